package clients

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monkedh/monkedh/pkg/models"
)

func TestVisionAnalyze(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/analyze", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req models.AnalysisRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 30, req.FrameNumber)

		json.NewEncoder(w).Encode(models.EmergencyMetrics{
			Timestamp:       req.Timestamp,
			FrameNumber:     req.FrameNumber,
			UrgencyLevel:    models.UrgencyHigh,
			UrgencyScore:    7.5,
			DetectedHazards: []string{"smoke"},
			Confidence:      0.8,
		})
	}))
	defer srv.Close()

	client := NewVisionClient(srv.URL, 0)
	m, err := client.Analyze(context.Background(), models.AnalysisRequest{
		ImageBase64: "Zg==",
		Timestamp:   "0:00:01",
		FrameNumber: 30,
	})
	require.NoError(t, err)
	assert.Equal(t, models.UrgencyHigh, m.UrgencyLevel)
	assert.Equal(t, []string{"smoke"}, m.DetectedHazards)
}

func TestVisionAnalyzeBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewVisionClient(srv.URL, 0)
	_, err := client.Analyze(context.Background(), models.AnalysisRequest{})

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.Code)
	assert.Contains(t, statusErr.Body, "model not loaded")
}

func TestVisionAnalyzeDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	client := NewVisionClient(srv.URL, 0)
	_, err := client.Analyze(context.Background(), models.AnalysisRequest{})

	var decodeErr *DecodeError
	assert.ErrorAs(t, err, &decodeErr)
}

func TestVisionAnalyzeUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewVisionClient(srv.URL, 0)
	_, err := client.Analyze(context.Background(), models.AnalysisRequest{})
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestVisionAnalyzeTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewVisionClient(srv.URL, 20*time.Millisecond)
	_, err := client.Analyze(context.Background(), models.AnalysisRequest{})
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestVisionHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		w.Write([]byte(`{"status":"healthy","vllm_connected":true}`))
	}))
	defer srv.Close()

	health, err := NewVisionClient(srv.URL, 0).Health(context.Background())
	require.NoError(t, err)
	assert.True(t, health.LlamaConnected)
}

func TestAgentAnalyzeParsedShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req models.DispatchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "critical", req.UrgencyLevel)

		json.NewEncoder(w).Encode(map[string]any{
			"success":        true,
			"agent_response": "dispatched",
			"emergency_calls": []map[string]any{
				{"tool": "call_authorities", "service_type": "FIRE"},
			},
		})
	}))
	defer srv.Close()

	result, err := NewAgentClient(srv.URL, 0).Analyze(context.Background(), models.DispatchRequest{
		UrgencyLevel: "critical",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "dispatched", result.AgentResponse)
	require.Len(t, result.EmergencyCalls, 1)
	assert.Equal(t, "FIRE", result.EmergencyCalls[0].ServiceType)
}

func TestAgentAnalyzeTraceShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"output": "Called the fire department.",
			"intermediate_steps": [
				[{"tool": "call_authorities", "tool_input": {"situation_description": "fire"}},
				 "{\"service_type\": \"FIRE\", \"call_id\": \"C-9\"}"]
			]
		}`))
	}))
	defer srv.Close()

	result, err := NewAgentClient(srv.URL, 0).Analyze(context.Background(), models.DispatchRequest{
		UrgencyLevel: "high",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "Called the fire department.", result.AgentResponse)
	require.Len(t, result.EmergencyCalls, 1)
	assert.Equal(t, "C-9", result.EmergencyCalls[0].CallID)
	require.Len(t, result.ActionsTaken, 1)
}

func TestAgentAnalyzeFallbackSynthesis(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "agent_response": "nothing to do"}`))
	}))
	defer srv.Close()

	result, err := NewAgentClient(srv.URL, 0).Analyze(context.Background(), models.DispatchRequest{
		UrgencyLevel:     "high",
		SceneDescription: "flames on the roof",
		FrameNumber:      12,
	})
	require.NoError(t, err)
	require.Len(t, result.EmergencyCalls, 1)
	call := result.EmergencyCalls[0]
	assert.Equal(t, models.ToolFallbackCall, call.Tool)
	assert.Equal(t, "FALLBACK-12", call.CallID)
	assert.True(t, call.Fallback)
}

func TestAgentAnalyzeFailureNoFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "error": "llm offline"}`))
	}))
	defer srv.Close()

	result, err := NewAgentClient(srv.URL, 0).Analyze(context.Background(), models.DispatchRequest{})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Empty(t, result.EmergencyCalls)
	assert.Equal(t, "llm offline", result.Error)
}

func TestXaiHeatmap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req models.XaiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 8, req.GridSize, "default grid size applied")

		json.NewEncoder(w).Encode(models.XaiResult{
			FrameNumber: req.FrameNumber,
			GridSize:    req.GridSize,
			MaxScore:    0.88,
			Cells:       []models.XaiCell{{Row: 0, Col: 1, Score: 0.88, Summary: "flames"}},
		})
	}))
	defer srv.Close()

	client := NewXaiClient(srv.URL, 0, true, 0)
	result, err := client.Heatmap(context.Background(), models.XaiRequest{FrameNumber: 90})
	require.NoError(t, err)
	assert.Equal(t, 0.88, result.MaxScore)
	require.Len(t, result.Cells, 1)
}

func TestXaiDisabled(t *testing.T) {
	client := NewXaiClient("http://unused", 8, false, 0)
	assert.False(t, client.Enabled())
	_, err := client.Heatmap(context.Background(), models.XaiRequest{})
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestPhoneProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
	}))
	defer srv.Close()

	prober := NewPhoneProber(0)
	assert.NoError(t, prober.Probe(context.Background(), srv.URL))
}

func TestPhoneProbeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	prober := NewPhoneProber(0)
	err := prober.Probe(context.Background(), srv.URL)
	var statusErr *StatusError
	assert.ErrorAs(t, err, &statusErr)

	srv.Close()
	err = prober.Probe(context.Background(), srv.URL)
	assert.True(t, errors.Is(err, ErrUnreachable) || errors.Is(err, ErrTimeout))
}
