package api

import (
	"context"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"
)

const healthProbeTimeout = 2 * time.Second

// healthHandler handles GET /health: probes the vision and agent services,
// reports the XAI toggle, and embeds the phone bridge status.
func (s *Server) healthHandler(c *echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthProbeTimeout)
	defer cancel()

	services := map[string]string{}
	degraded := false
	llamaConnected := false

	if s.vision != nil {
		if health, err := s.vision.Health(ctx); err != nil {
			services["vision"] = "unhealthy"
			degraded = true
		} else {
			services["vision"] = "healthy"
			llamaConnected = health.LlamaConnected
		}
	}

	if s.agent != nil {
		if err := s.agent.Health(ctx); err != nil {
			services["agent"] = "unhealthy"
			degraded = true
		} else {
			services["agent"] = "healthy"
		}
	}

	// The XAI toggle is configuration, not liveness; it never degrades the
	// aggregate status.
	if s.xaiEnabled {
		services["xai"] = "enabled"
	} else {
		services["xai"] = "disabled"
	}

	resp := &HealthResponse{
		Status:      "healthy",
		Services:    services,
		LlamaServer: llamaConnected,
	}
	if degraded {
		resp.Status = "degraded"
	}
	if s.phoneState != nil {
		if s.phoneMonitor != nil {
			s.phoneMonitor.Refresh(ctx)
		}
		resp.Phone = s.phoneState.Snapshot()
	}
	return c.JSON(http.StatusOK, resp)
}
