// Monkedh orchestrator server: serves the HTTP API, runs per-session
// video analysis pipelines and monitors the emergency phone bridge.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/monkedh/monkedh/pkg/api"
	"github.com/monkedh/monkedh/pkg/clients"
	"github.com/monkedh/monkedh/pkg/config"
	"github.com/monkedh/monkedh/pkg/events"
	"github.com/monkedh/monkedh/pkg/notify"
	"github.com/monkedh/monkedh/pkg/phone"
	"github.com/monkedh/monkedh/pkg/pipeline"
	"github.com/monkedh/monkedh/pkg/version"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("Could not load .env file, continuing with existing environment",
			"error", err)
	}

	cfg := config.Load()

	slog.Info("Starting Monkedh",
		"version", version.Full(),
		"http_port", cfg.HTTPPort,
		"vision_service", cfg.VisionServiceURL,
		"agent_service", cfg.AgentServiceURL,
		"xai_enabled", cfg.XaiEnabled)

	ctx := context.Background()

	// Phone bridge monitoring.
	phoneState := phone.NewState(cfg.PhoneBridgePort)
	if cfg.PhoneBridgeIP != "" {
		phoneState.SetIP(cfg.PhoneBridgeIP)
	}
	phoneHub := phone.NewHub()
	phoneMonitor := phone.NewMonitor(phoneState,
		clients.NewPhoneProber(cfg.ProbeTimeout), phoneHub, cfg.PhoneHealthInterval)
	phoneMonitor.Start(ctx)

	// Remote analyzer clients.
	vision := clients.NewVisionClient(cfg.VisionServiceURL, cfg.VisionTimeout)
	agent := clients.NewAgentClient(cfg.AgentServiceURL, cfg.AgentTimeout)
	xai := clients.NewXaiClient(cfg.XaiServiceURL, cfg.XaiGridSize, cfg.XaiEnabled, cfg.XaiTimeout)

	notifier := notify.NewService(notify.ServiceConfig{
		Token:        cfg.SlackBotToken,
		Channel:      cfg.SlackChannelID,
		DashboardURL: cfg.DashboardURL,
	})
	if notifier == nil {
		slog.Info("Slack notifications disabled")
	}

	registry := events.NewRegistry()
	orchestrator := pipeline.New(pipeline.Config{
		Registry: registry,
		Vision:   vision,
		Xai:      xai,
		Agent:    agent,
		Phone:    phoneState,
		Notifier: notifier,
		Open:     pipeline.VideoOpener,
		Interval: cfg.FrameInterval,
	})

	httpServer := api.NewServer(api.ServerConfig{
		Registry:     registry,
		Orchestrator: orchestrator,
		Vision:       vision,
		Agent:        agent,
		XaiEnabled:   cfg.XaiEnabled,
		PhoneState:   phoneState,
		PhoneMonitor: phoneMonitor,
		PhoneHub:     phoneHub,
	})

	// Start HTTP server (non-blocking).
	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.HTTPPort
		slog.Info("HTTP server listening", "addr", addr)
		if err := httpServer.Start(addr); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			errCh <- err
		}
	}()

	slog.Info("Monkedh started successfully")

	// Wait for shutdown signal or server error.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
	}

	// Graceful shutdown: stop accepting requests first, then the monitor.
	httpShutdownCtx, httpCancel := context.WithTimeout(ctx, 5*time.Second)
	defer httpCancel()
	if err := httpServer.Shutdown(httpShutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	phoneMonitor.Stop()

	slog.Info("Shutdown complete")
}
