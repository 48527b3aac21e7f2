package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/monkedh/monkedh/pkg/models"
)

// ServiceConfig holds the parameters needed to construct a Service.
type ServiceConfig struct {
	Token        string
	Channel      string
	DashboardURL string
}

// IncidentInput contains data for an incident alert.
type IncidentInput struct {
	SessionID        string
	FrameNumber      int
	UrgencyLevel     models.UrgencyLevel
	SeverityIndex    float64
	SceneDescription string
	DetectedHazards  []string
}

// SessionCompleteInput contains data for the end-of-session notification.
type SessionCompleteInput struct {
	SessionID         string
	FramesAnalyzed    int
	IncidentCount     int
	EmergencyDetected bool
	MaxSeverity       float64
}

// Service handles Slack notification delivery.
// Nil-safe: all methods are no-ops when service is nil.
type Service struct {
	client       *Client
	dashboardURL string
	logger       *slog.Logger
}

// NewService creates a new Slack notification service.
// Returns nil if Token or Channel is empty.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Token == "" || cfg.Channel == "" {
		return nil
	}
	return &Service{
		client:       NewClient(cfg.Token, cfg.Channel),
		dashboardURL: cfg.DashboardURL,
		logger:       slog.Default().With("component", "slack-service"),
	}
}

// NewServiceWithClient creates a Service backed by a pre-built Client.
// Useful for testing with a mock API server.
func NewServiceWithClient(client *Client, dashboardURL string) *Service {
	return &Service{
		client:       client,
		dashboardURL: dashboardURL,
		logger:       slog.Default().With("component", "slack-service"),
	}
}

// NotifyIncident sends an incident alert.
// Fail-open: errors are logged, never returned.
func (s *Service) NotifyIncident(ctx context.Context, input IncidentInput) {
	if s == nil {
		return
	}
	blocks := BuildIncidentMessage(input, s.dashboardURL)
	if err := s.client.PostMessage(ctx, blocks, 5*time.Second); err != nil {
		s.logger.Error("Failed to send Slack incident notification",
			"session_id", input.SessionID,
			"frame_number", input.FrameNumber,
			"error", err)
	}
}

// NotifySessionComplete sends the end-of-session summary.
// Fail-open: errors are logged, never returned.
func (s *Service) NotifySessionComplete(ctx context.Context, input SessionCompleteInput) {
	if s == nil {
		return
	}
	blocks := BuildSessionCompleteMessage(input, s.dashboardURL)
	if err := s.client.PostMessage(ctx, blocks, 5*time.Second); err != nil {
		s.logger.Error("Failed to send Slack completion notification",
			"session_id", input.SessionID,
			"error", err)
	}
}

// NotifySessionFailed reports a pipeline failure.
// Fail-open: errors are logged, never returned.
func (s *Service) NotifySessionFailed(ctx context.Context, sessionID, detail string) {
	if s == nil {
		return
	}
	blocks := BuildSessionFailedMessage(sessionID, detail)
	if err := s.client.PostMessage(ctx, blocks, 5*time.Second); err != nil {
		s.logger.Error("Failed to send Slack failure notification",
			"session_id", sessionID,
			"error", err)
	}
}
