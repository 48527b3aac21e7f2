// Package pipeline runs the per-session analysis task: frame extraction,
// vision triage, incident tracking, attribution, and agent dispatch.
package pipeline

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/monkedh/monkedh/pkg/events"
	"github.com/monkedh/monkedh/pkg/metrics"
	"github.com/monkedh/monkedh/pkg/models"
	"github.com/monkedh/monkedh/pkg/notify"
	"github.com/monkedh/monkedh/pkg/phone"
	"github.com/monkedh/monkedh/pkg/triage"
)

// VisionAnalyzer captions one frame and returns its triage metrics.
type VisionAnalyzer interface {
	Analyze(ctx context.Context, req models.AnalysisRequest) (*models.EmergencyMetrics, error)
}

// HeatmapClient produces patch attribution for a critical frame.
type HeatmapClient interface {
	Enabled() bool
	Heatmap(ctx context.Context, req models.XaiRequest) (*models.XaiResult, error)
}

// AgentCaller runs the emergency agent for a dispatched frame.
type AgentCaller interface {
	Analyze(ctx context.Context, req models.DispatchRequest) (*models.AgentResult, error)
}

// FrameSource yields sampled frames until io.EOF.
type FrameSource interface {
	Next() (*models.Frame, error)
	Close() error
}

// Opener probes a video file and opens its frame stream. interval is the
// sampling period in seconds of video time.
type Opener func(ctx context.Context, path string, interval float64) (*models.VideoInfo, FrameSource, error)

// Orchestrator owns the session lifecycle: it accepts uploads, spawns one
// detached pipeline task per session, and feeds the session event bus.
type Orchestrator struct {
	registry *events.Registry
	vision   VisionAnalyzer
	xai      HeatmapClient
	agent    AgentCaller
	phone    *phone.State
	notifier *notify.Service
	open     Opener
	interval float64
	tempDir  string
	logger   *slog.Logger
}

// Config wires an Orchestrator.
type Config struct {
	Registry *events.Registry
	Vision   VisionAnalyzer
	Xai      HeatmapClient
	Agent    AgentCaller
	Phone    *phone.State
	Notifier *notify.Service
	Open     Opener
	// Interval is the frame sampling period in seconds (default 1.0).
	Interval float64
	// TempDir overrides the upload spool directory (default os.TempDir()).
	TempDir string
}

// New creates an Orchestrator.
func New(cfg Config) *Orchestrator {
	if cfg.Interval <= 0 {
		cfg.Interval = 1.0
	}
	return &Orchestrator{
		registry: cfg.Registry,
		vision:   cfg.Vision,
		xai:      cfg.Xai,
		agent:    cfg.Agent,
		phone:    cfg.Phone,
		notifier: cfg.Notifier,
		open:     cfg.Open,
		interval: cfg.Interval,
		tempDir:  cfg.TempDir,
		logger:   slog.Default().With("component", "pipeline"),
	}
}

// StartSession spools the upload to a temp file, registers the session, and
// spawns the pipeline task. It returns as soon as the task is launched.
func (o *Orchestrator) StartSession(filename string, body io.Reader) (string, error) {
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".mp4"
	}
	tmp, err := os.CreateTemp(o.tempDir, "monkedh-upload-*"+ext)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}

	sessionID := uuid.NewString()
	if err := o.registry.Register(sessionID); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}

	// The task outlives the upload request; it gets its own cancelable
	// context owned by the registry.
	ctx, cancel := context.WithCancel(context.Background())
	o.registry.SetCancel(sessionID, cancel)

	o.logger.Info("Session started",
		"session_id", sessionID,
		"filename", filename)

	go o.run(ctx, sessionID, tmp.Name())
	return sessionID, nil
}

// run is the pipeline task for one session. It always terminates the stream
// with exactly one of complete or error, followed by end.
func (o *Orchestrator) run(ctx context.Context, sessionID, path string) {
	metrics.SessionStarted()
	defer metrics.SessionEnded()
	defer os.Remove(path)

	info, frames, err := o.open(ctx, path, o.interval)
	if err != nil {
		o.logger.Error("Failed to open video",
			"session_id", sessionID,
			"error", err)
		o.finishWithError(sessionID, err.Error())
		return
	}
	defer frames.Close()

	var (
		analyzed           []models.EmergencyMetrics
		incidents          []*events.IncidentPayload
		timeline           []TimelinePoint
		severities         []float64
		dispatchCandidates []int // indexes into analyzed
		hazardSet          = map[string]struct{}{}
		urgencyCounts      = map[models.UrgencyLevel]int{}
		maxUrgency         = models.UrgencyLow
		best               = -1
		bestSeverity       float64
		maxSeverity        float64
		xaiResult          *models.XaiResult
		xaiDisabledSent    bool
		frameCount         int
	)

	for {
		frame, err := frames.Next()
		if err != nil {
			break
		}
		if ctx.Err() != nil {
			o.finishCancelled(sessionID)
			return
		}
		frameCount++

		m, err := o.analyzeFrame(ctx, frame)
		if err != nil {
			if ctx.Err() != nil {
				o.finishCancelled(sessionID)
				return
			}
			o.logger.Warn("Vision analysis failed, skipping frame",
				"session_id", sessionID,
				"frame_number", frame.FrameNumber,
				"error", err)
			metrics.RecordVisionFailure()
			continue
		}

		severity := triage.SeverityIndex(m)
		metrics.RecordFrameAnalyzed(severity)
		severities = append(severities, severity)
		analyzed = append(analyzed, *m)
		idx := len(analyzed) - 1
		for _, h := range m.DetectedHazards {
			hazardSet[h] = struct{}{}
		}
		if severity > maxSeverity {
			maxSeverity = severity
		}
		if best < 0 || severity > bestSeverity {
			best = idx
			bestSeverity = severity
		}

		label := triage.PublicUrgency(m)
		urgencyCounts[label]++
		if triage.Priority(label) > triage.Priority(maxUrgency) {
			maxUrgency = label
		}

		dispatch := triage.DispatchRequired(m, severity)
		if dispatch {
			dispatchCandidates = append(dispatchCandidates, idx)
		}

		o.publish(ctx, sessionID, events.EventFrame, events.FramePayload{
			SessionID:           sessionID,
			FrameNumber:         m.FrameNumber,
			Timestamp:           m.Timestamp,
			UrgencyLevel:        label,
			SceneDescription:    m.SceneDescription,
			DetectedHazards:     m.DetectedHazards,
			PeopleCount:         m.PeopleCount,
			VisibleInjuries:     m.VisibleInjuries,
			DispatchRecommended: dispatch,
			RecommendedAction:   m.RecommendedAction,
		})

		if triage.Priority(label) >= triage.Priority(models.UrgencyHigh) || severity >= 6.0 {
			incident := &events.IncidentPayload{
				Timestamp:           m.Timestamp,
				FrameNumber:         m.FrameNumber,
				UrgencyLevel:        label,
				SceneDescription:    m.SceneDescription,
				DetectedHazards:     m.DetectedHazards,
				PeopleCount:         m.PeopleCount,
				VisibleInjuries:     m.VisibleInjuries,
				DispatchRecommended: dispatch,
			}
			incidents = append(incidents, incident)
			metrics.RecordIncident()
			if len(incidents) == 1 && o.notifier != nil {
				o.notifier.NotifyIncident(ctx, notify.IncidentInput{
					SessionID:        sessionID,
					FrameNumber:      m.FrameNumber,
					UrgencyLevel:     label,
					SeverityIndex:    severity,
					SceneDescription: m.SceneDescription,
					DetectedHazards:  m.DetectedHazards,
				})
			}

			if xaiResult == nil &&
				(triage.Priority(label) >= triage.Priority(models.UrgencyHigh) ||
					severity >= 7.0 || m.VisibleInjuries) {
				if o.xai != nil && o.xai.Enabled() {
					xaiResult = o.runXai(ctx, sessionID, frame, m, incident)
				} else if !xaiDisabledSent {
					xaiDisabledSent = true
					o.publish(ctx, sessionID, events.EventXaiDisabled, events.XaiDisabledPayload{
						FrameNumber: m.FrameNumber,
						Timestamp:   m.Timestamp,
						Reason:      "XAI analysis is disabled",
					})
				}
			}

			o.publish(ctx, sessionID, events.EventIncident, *incident)
		}

		timeline = append(timeline, TimelinePoint{
			Timestamp:        m.Timestamp,
			FrameNumber:      m.FrameNumber,
			UrgencyLevel:     label,
			SceneDescription: m.SceneDescription,
			DetectedHazards:  m.DetectedHazards,
		})
	}
	if ctx.Err() != nil {
		o.finishCancelled(sessionID)
		return
	}

	selection := selectDispatch(analyzed, severities, dispatchCandidates, best, bestSeverity)

	var agentResult *models.AgentResult
	if selection >= 0 {
		agentResult = o.runAgent(ctx, sessionID, analyzed[selection], severities[selection], incidents)
	}
	if ctx.Err() != nil {
		o.finishCancelled(sessionID)
		return
	}

	report := Report{
		SessionID: sessionID,
		VideoInfo: info,
		AnalysisSummary: Summary{
			TotalFramesAnalyzed:       frameCount,
			ThreatLevel:               maxUrgency,
			DominantUrgencyLevel:      dominantLabel(urgencyCounts),
			HighUrgencyFrames:         urgencyCounts[models.UrgencyHigh],
			MediumUrgencyFrames:       urgencyCounts[models.UrgencyMedium],
			NormalUrgencyFrames:       urgencyCounts[models.UrgencyNormal],
			LowUrgencyFrames:          urgencyCounts[models.UrgencyLow],
			MaxSeverityIndex:          maxSeverity,
			AverageSeverityIndex:      averageSeverity(severities),
			UniqueHazardsDetected:     sortedHazards(hazardSet),
			TotalIncidents:            len(incidents),
			RequiresImmediateResponse: selection >= 0,
		},
		EmergencyResponses: []models.ToolInvocation{},
		CriticalIncidents:  make([]events.IncidentPayload, 0, len(incidents)),
		UrgencyTimeline:    timeline,
		XaiAnalysis:        xaiResult,
		XaiEnabled:         o.xai != nil && o.xai.Enabled(),
	}
	if o.phone != nil {
		snap := o.phone.Snapshot()
		report.AnalysisSummary.PhoneBridgeConnected = snap.Connected
		report.AnalysisSummary.PhoneBridgeIP = snap.IP
	}
	if agentResult != nil {
		report.EmergencyResponses = agentResult.EmergencyCalls
	}
	for _, inc := range incidents {
		report.CriticalIncidents = append(report.CriticalIncidents, *inc)
	}

	// Terminal events must go out even when the publish context is gone.
	o.publish(context.Background(), sessionID, events.EventComplete, report)
	o.publish(context.Background(), sessionID, events.EventEnd, events.EndPayload{SessionID: sessionID})

	o.logger.Info("Session complete",
		"session_id", sessionID,
		"frames", frameCount,
		"incidents", len(incidents),
		"threat_level", maxUrgency)

	if o.notifier != nil && (maxUrgency == models.UrgencyHigh || agentResult != nil) {
		o.notifier.NotifySessionComplete(context.Background(), notify.SessionCompleteInput{
			SessionID:         sessionID,
			FramesAnalyzed:    frameCount,
			IncidentCount:     len(incidents),
			EmergencyDetected: len(incidents) > 0,
			MaxSeverity:       maxSeverity,
		})
	}
}

// analyzeFrame runs the vision call and, when the service returned only a
// raw caption, hosts the hazard parsing locally.
func (o *Orchestrator) analyzeFrame(ctx context.Context, frame *models.Frame) (*models.EmergencyMetrics, error) {
	m, err := o.vision.Analyze(ctx, models.AnalysisRequest{
		ImageBase64: frame.ImageBase64,
		Timestamp:   frame.Timestamp,
		FrameNumber: frame.FrameNumber,
	})
	if err != nil {
		return nil, err
	}
	if m.SceneDescription == "" && m.RawResponse != "" {
		parsed := triage.Parse(m.RawResponse, frame.Timestamp, frame.FrameNumber)
		return &parsed, nil
	}
	return m, nil
}

// runXai requests the attribution heatmap for the qualifying frame, attaches
// it to the triggering incident, and publishes the outcome.
func (o *Orchestrator) runXai(ctx context.Context, sessionID string, frame *models.Frame, m *models.EmergencyMetrics, incident *events.IncidentPayload) *models.XaiResult {
	result, err := o.xai.Heatmap(ctx, models.XaiRequest{
		ImageBase64:      frame.ImageBase64,
		FrameNumber:      m.FrameNumber,
		Timestamp:        m.Timestamp,
		SceneDescription: m.SceneDescription,
		DetectedHazards:  m.DetectedHazards,
	})
	if err != nil {
		o.logger.Warn("XAI analysis failed",
			"session_id", sessionID,
			"frame_number", m.FrameNumber,
			"error", err)
		o.publish(ctx, sessionID, events.EventXaiError, events.XaiErrorPayload{
			FrameNumber: m.FrameNumber,
			Timestamp:   m.Timestamp,
			Detail:      err.Error(),
		})
		return nil
	}

	incident.XaiAnalysis = result
	o.publish(ctx, sessionID, events.EventXaiHeatmap, events.XaiHeatmapPayload{
		SessionID:          sessionID,
		FrameNumber:        m.FrameNumber,
		Timestamp:          m.Timestamp,
		GridSize:           result.GridSize,
		HeatmapImageBase64: result.HeatmapImageBase64,
		Cells:              result.Cells,
		Explanation:        result.Explanation,
		MaxScore:           result.MaxScore,
	})
	return result
}

// runAgent performs the single end-of-stream agent dispatch and fans out the
// resulting tool calls. The raw urgency level goes to the agent; published
// events only ever carry public levels.
func (o *Orchestrator) runAgent(ctx context.Context, sessionID string, m models.EmergencyMetrics, severity float64, incidents []*events.IncidentPayload) *models.AgentResult {
	result, err := o.agent.Analyze(ctx, models.DispatchRequest{
		UrgencyScore:     m.UrgencyScore,
		UrgencyLevel:     string(m.UrgencyLevel),
		SceneDescription: m.SceneDescription,
		DetectedHazards:  m.DetectedHazards,
		PeopleCount:      m.PeopleCount,
		VisibleInjuries:  m.VisibleInjuries,
		Timestamp:        m.Timestamp,
		FrameNumber:      m.FrameNumber,
		SeverityIndex:    severity,
	})
	if err != nil {
		o.logger.Error("Agent dispatch failed",
			"session_id", sessionID,
			"frame_number", m.FrameNumber,
			"error", err)
		metrics.RecordAgentDispatch(false)
		return nil
	}
	metrics.RecordAgentDispatch(result.Success)

	o.publish(ctx, sessionID, events.EventAgentCall, events.AgentCallPayload{
		SessionID:          sessionID,
		FrameNumber:        m.FrameNumber,
		AgentResponse:      result.AgentResponse,
		EmergencyResponses: result.EmergencyCalls,
		ActionsTaken:       result.ActionsTaken,
		ToolCalls:          result.ActionsTaken,
	})
	for _, call := range result.EmergencyCalls {
		o.publish(ctx, sessionID, events.EventToolCall, events.ToolCallPayload{
			SessionID:      sessionID,
			FrameNumber:    m.FrameNumber,
			ToolInvocation: call,
		})
	}

	// The incident for the dispatched frame carries the agent outcome in
	// the final report.
	for _, inc := range incidents {
		if inc.FrameNumber == m.FrameNumber {
			inc.AgentResponse = result.AgentResponse
			inc.ActionsTaken = result.ActionsTaken
			break
		}
	}
	return result
}

// selectDispatch picks the frame for the agent call: the most severe
// dispatch candidate, or the overall best frame when it is severe enough.
// Returns -1 when no agent call is warranted.
func selectDispatch(analyzed []models.EmergencyMetrics, severities []float64, candidates []int, best int, bestSeverity float64) int {
	if len(candidates) > 0 {
		selected := candidates[0]
		for _, idx := range candidates[1:] {
			if severities[idx] > severities[selected] {
				selected = idx
			}
		}
		return selected
	}
	if best >= 0 && bestSeverity > 5.0 {
		return best
	}
	return -1
}

func (o *Orchestrator) finishWithError(sessionID, detail string) {
	o.publish(context.Background(), sessionID, events.EventError, events.ErrorPayload{Detail: detail})
	o.publish(context.Background(), sessionID, events.EventEnd, events.EndPayload{SessionID: sessionID})
	if o.notifier != nil {
		o.notifier.NotifySessionFailed(context.Background(), sessionID, detail)
	}
}

func (o *Orchestrator) finishCancelled(sessionID string) {
	o.logger.Info("Session cancelled", "session_id", sessionID)
	o.finishWithError(sessionID, "cancelled")
}

func (o *Orchestrator) publish(ctx context.Context, sessionID, name string, data any) {
	if err := o.registry.Publish(ctx, sessionID, name, data); err != nil {
		o.logger.Warn("Event publish aborted",
			"session_id", sessionID,
			"event", name,
			"error", err)
	}
}
