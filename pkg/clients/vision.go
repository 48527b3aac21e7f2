package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/monkedh/monkedh/pkg/models"
)

// VisionClient talks to the vision service that captions and assesses a
// single frame.
type VisionClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewVisionClient creates a vision client with a per-call timeout
// (default 30s when zero).
func NewVisionClient(baseURL string, timeout time.Duration) *VisionClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &VisionClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Analyze submits one frame and returns its structured assessment.
func (c *VisionClient) Analyze(ctx context.Context, req models.AnalysisRequest) (*models.EmergencyMetrics, error) {
	var metrics models.EmergencyMetrics
	if err := c.postJSON(ctx, "/analyze", req, &metrics); err != nil {
		return nil, err
	}
	return &metrics, nil
}

// VisionHealth is the vision service's health report. LlamaConnected reflects
// whether its backing model server is reachable.
type VisionHealth struct {
	Status         string `json:"status"`
	LlamaConnected bool   `json:"vllm_connected"`
}

// Health probes the vision service's /health endpoint.
func (c *VisionClient) Health(ctx context.Context) (*VisionHealth, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, wrapTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{Code: resp.StatusCode, Body: truncate(string(body), 200)}
	}

	var health VisionHealth
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, &DecodeError{Err: err}
	}
	return &health, nil
}

func (c *VisionClient) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return wrapTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Body: truncate(string(respBody), 200)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &DecodeError{Err: err}
	}
	return nil
}
