package api

import (
	"context"
	"encoding/json"

	"github.com/coder/websocket"
	echo "github.com/labstack/echo/v5"

	"github.com/monkedh/monkedh/pkg/models"
)

// phoneWSHandler handles GET /ws/phone: upgrades to WebSocket and pushes the
// current phone bridge status plus every subsequent change.
func (s *Server) phoneWSHandler(c *echo.Context) error {
	if s.phoneHub == nil {
		return echo.NewHTTPError(503, "WebSocket not available")
	}

	conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		return err
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx := c.Request().Context()
	sub := s.phoneHub.Subscribe()
	defer s.phoneHub.Unsubscribe(sub)

	// Current state first, changes after.
	if err := writeStatus(ctx, conn, s.phoneState.Snapshot()); err != nil {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case status := <-sub:
			if err := writeStatus(ctx, conn, status); err != nil {
				return nil
			}
		}
	}
}

func writeStatus(ctx context.Context, conn *websocket.Conn, status models.PhoneStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}
