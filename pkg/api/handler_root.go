package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"
)

// rootHandler handles GET /.
func (s *Server) rootHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, &RootResponse{
		Message: "Monkedh Emergency Video Orchestrator",
		Status:  "running",
	})
}
