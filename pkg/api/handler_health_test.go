package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monkedh/monkedh/pkg/clients"
	"github.com/monkedh/monkedh/pkg/phone"
)

func healthUpstream(t *testing.T, visionBody string, agentCode int) (*httptest.Server, *httptest.Server) {
	t.Helper()
	vision := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		w.Write([]byte(visionBody))
	}))
	t.Cleanup(vision.Close)
	agent := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(agentCode)
	}))
	t.Cleanup(agent.Close)
	return vision, agent
}

func TestHealthAllHealthy(t *testing.T) {
	vision, agent := healthUpstream(t, `{"status":"healthy","vllm_connected":true}`, http.StatusOK)

	state := phone.NewState(0)
	s := NewServer(ServerConfig{
		Vision:       clients.NewVisionClient(vision.URL, 0),
		Agent:        clients.NewAgentClient(agent.URL, 0),
		XaiEnabled:   true,
		PhoneState:   state,
		PhoneMonitor: phone.NewMonitor(state, &recordingProber{}, nil, time.Second),
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "healthy", resp.Services["vision"])
	assert.Equal(t, "healthy", resp.Services["agent"])
	assert.Equal(t, "enabled", resp.Services["xai"])
	assert.True(t, resp.LlamaServer)
	assert.False(t, resp.Phone.Connected)
}

func TestHealthDegradedWhenAgentDown(t *testing.T) {
	vision, agent := healthUpstream(t, `{"status":"healthy","vllm_connected":false}`, http.StatusServiceUnavailable)

	s := NewServer(ServerConfig{
		Vision:     clients.NewVisionClient(vision.URL, 0),
		Agent:      clients.NewAgentClient(agent.URL, 0),
		XaiEnabled: false,
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "unhealthy", resp.Services["agent"])
	assert.Equal(t, "disabled", resp.Services["xai"])
	assert.False(t, resp.LlamaServer)
}
