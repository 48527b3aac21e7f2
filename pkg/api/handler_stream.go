package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/monkedh/monkedh/pkg/events"
)

// streamHandler handles GET /stream/video/:session_id: the Server-Sent
// Events feed for one analysis session. The stream closes after the end
// event; a consumer that disconnects early cancels the pipeline.
func (s *Server) streamHandler(c *echo.Context) error {
	sessionID := c.Param("session_id")

	ch, err := s.registry.Subscribe(sessionID)
	if err != nil {
		switch {
		case errors.Is(err, events.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "session not found")
		case errors.Is(err, events.ErrAlreadySubscribed):
			return echo.NewHTTPError(http.StatusConflict, "session already has a subscriber")
		default:
			return err
		}
	}

	resp := c.Response()
	resp.Header().Set("Content-Type", "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)

	flusher, _ := resp.(http.Flusher)
	ctx := c.Request().Context()

	for {
		select {
		case <-ctx.Done():
			// Consumer went away mid-stream; stop the pipeline and drop
			// the queue.
			s.registry.Cleanup(sessionID)
			return nil
		case ev := <-ch:
			data, err := json.Marshal(ev.Data)
			if err != nil {
				data = []byte(`{}`)
			}
			if _, err := fmt.Fprintf(resp, "event: %s\ndata: %s\n\n", ev.Name, data); err != nil {
				s.registry.Cleanup(sessionID)
				return nil
			}
			if flusher != nil {
				flusher.Flush()
			}
			if ev.Name == events.EventEnd {
				return nil
			}
		}
	}
}
