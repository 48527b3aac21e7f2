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
	"github.com/monkedh/monkedh/pkg/toolcall"
)

// AgentClient talks to the tool-using agent service that places emergency
// calls for a dispatched frame.
type AgentClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAgentClient creates an agent client with a per-call timeout
// (default 60s when zero). Agent runs are the slowest remote calls in the
// pipeline: they include an LLM tool loop.
func NewAgentClient(baseURL string, timeout time.Duration) *AgentClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &AgentClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// agentWire is the union of the two response shapes the agent contract
// allows: a fully parsed AgentResult, or a raw executor trace with
// output + intermediate_steps that the adapter must canonicalize.
type agentWire struct {
	Success        *bool                   `json:"success"`
	AgentResponse  string                  `json:"agent_response"`
	EmergencyCalls []models.ToolInvocation `json:"emergency_calls"`
	ActionsTaken   []models.AgentAction    `json:"actions_taken"`
	Error          string                  `json:"error"`

	Output string               `json:"output"`
	Steps  []toolcall.TraceStep `json:"intermediate_steps"`
}

// Analyze submits a dispatch request and returns the canonicalized result.
// When the agent succeeds without invoking any tool, a fallback virtual call
// is synthesized so the dispatch always surfaces at least one invocation.
func (c *AgentClient) Analyze(ctx context.Context, req models.DispatchRequest) (*models.AgentResult, error) {
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

	var wire agentWire
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, &DecodeError{Err: err}
	}

	result := &models.AgentResult{
		Success:        wire.Success == nil || *wire.Success,
		AgentResponse:  wire.AgentResponse,
		EmergencyCalls: wire.EmergencyCalls,
		ActionsTaken:   wire.ActionsTaken,
		Error:          wire.Error,
	}
	if result.AgentResponse == "" {
		result.AgentResponse = wire.Output
	}
	if result.EmergencyCalls == nil && len(wire.Steps) > 0 {
		result.EmergencyCalls, result.ActionsTaken = toolcall.ParseSteps(wire.Steps, req)
	}
	if result.Success && len(result.EmergencyCalls) == 0 {
		result.EmergencyCalls = append(result.EmergencyCalls, toolcall.InferFallback(req))
	}
	return result, nil
}

// Health probes the agent service's /health endpoint.
func (c *AgentClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return wrapTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Body: truncate(string(body), 200)}
	}
	return nil
}
