package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/monkedh/monkedh/pkg/models"
)

// analyzeFrameHandler handles POST /analyze/frame: a synchronous proxy to
// the vision service for single-frame triage.
func (s *Server) analyzeFrameHandler(c *echo.Context) error {
	var req models.AnalysisRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.ImageBase64 == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "image_base64 field is required")
	}

	metrics, err := s.vision.Analyze(c.Request().Context(), req)
	if err != nil {
		return mapClientError(err)
	}
	return c.JSON(http.StatusOK, metrics)
}

// analyzeVideoHandler handles POST /analyze/video-emergency: spools the
// multipart upload and spawns the analysis pipeline.
func (s *Server) analyzeVideoHandler(c *echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file field is required")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not read upload")
	}
	defer file.Close()

	sessionID, err := s.orchestrator.StartSession(fileHeader.Filename, file)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to start analysis session")
	}
	return c.JSON(http.StatusOK, &AnalyzeVideoResponse{
		SessionID: sessionID,
		Status:    "processing",
	})
}
