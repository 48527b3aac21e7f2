// Package api exposes the orchestrator's HTTP surface: video uploads, the
// per-session SSE stream, phone bridge control, and health endpoints.
package api

import (
	"context"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/monkedh/monkedh/pkg/clients"
	"github.com/monkedh/monkedh/pkg/events"
	"github.com/monkedh/monkedh/pkg/phone"
	"github.com/monkedh/monkedh/pkg/pipeline"
)

// Server is the HTTP API server.
type Server struct {
	echo         *echo.Echo
	httpServer   *http.Server
	registry     *events.Registry
	orchestrator *pipeline.Orchestrator
	vision       *clients.VisionClient
	agent        *clients.AgentClient
	xaiEnabled   bool
	phoneState   *phone.State
	phoneMonitor *phone.Monitor
	phoneHub     *phone.Hub
}

// ServerConfig wires a Server.
type ServerConfig struct {
	Registry     *events.Registry
	Orchestrator *pipeline.Orchestrator
	Vision       *clients.VisionClient
	Agent        *clients.AgentClient
	XaiEnabled   bool
	PhoneState   *phone.State
	PhoneMonitor *phone.Monitor
	PhoneHub     *phone.Hub
}

// NewServer creates the API server and registers all routes.
func NewServer(cfg ServerConfig) *Server {
	s := &Server{
		echo:         echo.New(),
		registry:     cfg.Registry,
		orchestrator: cfg.Orchestrator,
		vision:       cfg.Vision,
		agent:        cfg.Agent,
		xaiEnabled:   cfg.XaiEnabled,
		phoneState:   cfg.PhoneState,
		phoneMonitor: cfg.PhoneMonitor,
		phoneHub:     cfg.PhoneHub,
	}

	s.echo.Use(securityHeaders())
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/", s.rootHandler)
	s.echo.GET("/health", s.healthHandler)
	s.echo.GET("/metrics", s.metricsHandler)

	s.echo.GET("/phone/status", s.phoneStatusHandler)
	s.echo.POST("/phone/update_ip", s.phoneUpdateIPHandler)
	s.echo.GET("/ws/phone", s.phoneWSHandler)

	s.echo.POST("/analyze/frame", s.analyzeFrameHandler)
	s.echo.POST("/analyze/video-emergency", s.analyzeVideoHandler)
	s.echo.GET("/stream/video/:session_id", s.streamHandler)
}

// Start begins serving on addr. Blocks until the server stops.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the route tree for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}
