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

// XaiClient talks to the attribution service that scores an NxN patch grid
// for a critical frame and renders a heatmap overlay.
type XaiClient struct {
	baseURL    string
	gridSize   int
	enabled    bool
	httpClient *http.Client
}

// NewXaiClient creates an attribution client. Timeout defaults to 45s,
// gridSize to 8.
func NewXaiClient(baseURL string, gridSize int, enabled bool, timeout time.Duration) *XaiClient {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	if gridSize <= 0 {
		gridSize = 8
	}
	return &XaiClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		gridSize:   gridSize,
		enabled:    enabled,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether attribution is switched on.
func (c *XaiClient) Enabled() bool { return c.enabled }

// Heatmap requests patch attribution for one frame. The configured grid size
// is applied when the request does not carry one.
func (c *XaiClient) Heatmap(ctx context.Context, req models.XaiRequest) (*models.XaiResult, error) {
	if !c.enabled {
		return nil, ErrDisabled
	}
	if req.GridSize <= 0 {
		req.GridSize = c.gridSize
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, wrapTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{Code: resp.StatusCode, Body: truncate(string(respBody), 200)}
	}

	var result models.XaiResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &DecodeError{Err: err}
	}
	return &result, nil
}
