package api

import (
	"github.com/monkedh/monkedh/pkg/models"
)

// RootResponse is returned by GET /.
type RootResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status      string             `json:"status"`
	Services    map[string]string  `json:"services"`
	LlamaServer bool               `json:"llama_server"`
	Phone       models.PhoneStatus `json:"phone"`
}

// UpdatePhoneIPResponse is returned by POST /phone/update_ip.
type UpdatePhoneIPResponse struct {
	Saved bool   `json:"saved"`
	IP    string `json:"ip"`
}

// AnalyzeVideoResponse is returned by POST /analyze/video-emergency.
type AnalyzeVideoResponse struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}
