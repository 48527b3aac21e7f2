package toolcall

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monkedh/monkedh/pkg/models"
)

func TestNormalizeService(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"fire", ServiceFire},
		{"Fire Dept", ServiceFire},
		{"FIREFIGHTERS", ServiceFire},
		{"explosion", ServiceFire},
		{"fire_department", ServiceFire},
		{"police", ServicePolice},
		{"Law  Enforcement", ServicePolice},
		{"sheriff", ServicePolice},
		{"911", ServiceSamu},
		{"ambulance", ServiceSamu},
		{"EMS", ServiceSamu},
		{"paramedics", ServiceSamu},
		{"", ServiceSamu},
		{"something else entirely", ServiceSamu},
		{"local fire brigade", ServiceFire},
		{"security officer", ServicePolice},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeService(tt.input))
		})
	}
}

func TestServiceLabel(t *testing.T) {
	assert.Equal(t, "Fire Department", ServiceLabel(ServiceFire))
	assert.Equal(t, "Police Department", ServiceLabel(ServicePolice))
	assert.Equal(t, "Ambulance / EMS", ServiceLabel(ServiceSamu))
	assert.Equal(t, "Emergency Services", ServiceLabel("UNKNOWN"))
}

func TestTraceStepUnmarshal(t *testing.T) {
	raw := `[{"tool":"call_authorities","tool_input":{"service":"fire"}},"{\"call_id\":\"C-1\"}"]`
	var step TraceStep
	require.NoError(t, json.Unmarshal([]byte(raw), &step))
	assert.Equal(t, "call_authorities", step.Action.Tool)
	assert.Equal(t, "fire", step.Action.Input["service"])
	assert.JSONEq(t, `{"call_id":"C-1"}`, step.Output)

	assert.Error(t, json.Unmarshal([]byte(`[{"tool":"x"}]`), &step))
	assert.Error(t, json.Unmarshal([]byte(`{"tool":"x"}`), &step))
}

func dispatchFixture() models.DispatchRequest {
	return models.DispatchRequest{
		UrgencyScore:     9.5,
		UrgencyLevel:     "critical",
		SceneDescription: "Building on fire, people trapped",
		DetectedHazards:  []string{"fire", "smoke"},
		FrameNumber:      90,
		SeverityIndex:    10.0,
	}
}

func step(tool string, input map[string]any, output any) TraceStep {
	out, _ := json.Marshal(output)
	return TraceStep{
		Action: TraceAction{Tool: tool, Input: input},
		Output: string(out),
	}
}

func TestParseStepsCallAuthorities(t *testing.T) {
	steps := []TraceStep{
		step(models.ToolCallAuthorities,
			map[string]any{"situation_description": "flames on floor two"},
			map[string]any{"service_type": "FIRE", "service": "Fire Department", "call_id": "CALL-1"}),
	}

	calls, actions := ParseSteps(steps, dispatchFixture())
	require.Len(t, calls, 1)
	require.Len(t, actions, 1)

	call := calls[0]
	assert.Equal(t, models.ToolCallAuthorities, call.Tool)
	assert.Equal(t, "FIRE", call.ServiceType)
	assert.Equal(t, "Fire Department", call.Service)
	assert.Equal(t, "CALL-1", call.CallID)
	assert.Equal(t, "critical", call.Urgency)
	assert.Equal(t, "flames on floor two", call.Situation)
	assert.True(t, call.RequiresManualDispatch)
	assert.Equal(t, models.DispatchPending, call.DispatchStatus)
	assert.Equal(t, "queued", call.Status)
	assert.Equal(t, "call", call.Channel)
}

func TestParseStepsPhoneCallHazardGate(t *testing.T) {
	steps := []TraceStep{
		step(models.ToolPhoneCall,
			map[string]any{"hazard_type": "fire", "situation_summary": "fire at warehouse"},
			map[string]any{"call_id": "PC-1"}),
		step(models.ToolPhoneCall,
			map[string]any{"hazard_type": "flood"},
			map[string]any{"call_id": "PC-2"}),
	}

	calls, actions := ParseSteps(steps, dispatchFixture())
	require.Len(t, actions, 2, "rejected steps still appear in the action log")
	require.Len(t, calls, 1, "unsupported hazard types are rejected")

	call := calls[0]
	assert.Equal(t, models.ToolPhoneCall, call.Tool)
	assert.Equal(t, "PC-1", call.CallID)
	assert.False(t, call.RequiresManualDispatch)
	assert.Equal(t, models.DispatchCompleted, call.DispatchStatus)
	assert.Equal(t, "frontend_queue", call.Channel)
}

func TestParseStepsSMSPrefix(t *testing.T) {
	steps := []TraceStep{
		step(models.ToolPhoneSMS, nil, map[string]any{"message": "Fire confirmed at the site"}),
	}

	calls, _ := ParseSteps(steps, dispatchFixture())
	require.Len(t, calls, 1)
	assert.Equal(t, "Sent by Monkedh: Fire confirmed at the site", calls[0].Message)
	assert.Equal(t, "sms", calls[0].ServiceType)
	assert.Equal(t, "SMS Dispatch", calls[0].Service)
}

func TestParseStepsRedirect(t *testing.T) {
	steps := []TraceStep{
		step(models.ToolRedirectToChat, nil, map[string]any{"message": "talk to dispatcher"}),
	}

	calls, _ := ParseSteps(steps, dispatchFixture())
	require.Len(t, calls, 1)
	call := calls[0]
	assert.Equal(t, "/chat", call.Destination)
	assert.Equal(t, "redirect", call.Action)
	assert.Equal(t, "critical", call.Priority)
	assert.Equal(t, "frontend_redirect", call.Channel)
	assert.Equal(t, models.DispatchPending, call.DispatchStatus)
}

func TestParseStepsSkipsGarbageOutput(t *testing.T) {
	steps := []TraceStep{
		{Action: TraceAction{Tool: models.ToolCallAuthorities}, Output: "I called them."},
	}
	calls, actions := ParseSteps(steps, dispatchFixture())
	assert.Empty(t, calls)
	assert.Len(t, actions, 1)
}

func TestEnsureSMSPrefix(t *testing.T) {
	assert.Equal(t, "Sent by Monkedh: Emergency confirmed", EnsureSMSPrefix(""))
	assert.Equal(t, "Sent by Monkedh: help", EnsureSMSPrefix("help"))
	assert.Equal(t, "Sent by Monkedh: already tagged", EnsureSMSPrefix("Sent by Monkedh: already tagged"))
}

func TestInferFallback(t *testing.T) {
	three := 3

	tests := []struct {
		name     string
		req      models.DispatchRequest
		expected string
	}{
		{
			"fire wins",
			models.DispatchRequest{SceneDescription: "flames everywhere", DetectedHazards: []string{"fire"}},
			ServiceFire,
		},
		{
			"injuries go to samu",
			models.DispatchRequest{SceneDescription: "collapsed wall", VisibleInjuries: true},
			ServiceSamu,
		},
		{
			"people present go to samu",
			models.DispatchRequest{SceneDescription: "crowd gathering", PeopleCount: &three},
			ServiceSamu,
		},
		{
			"violence goes to police",
			models.DispatchRequest{SceneDescription: "weapon drawn in the lobby"},
			ServicePolice,
		},
		{
			"default samu",
			models.DispatchRequest{SceneDescription: "unclear scene"},
			ServiceSamu,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.FrameNumber = 42
			tt.req.UrgencyLevel = "high"
			call := InferFallback(tt.req)

			assert.Equal(t, models.ToolFallbackCall, call.Tool)
			assert.Equal(t, tt.expected, NormalizeService(call.ServiceType))
			assert.Equal(t, ServiceLabel(tt.expected), call.Service)
			assert.Equal(t, "FALLBACK-42", call.CallID)
			assert.True(t, call.Fallback)
			assert.True(t, call.RequiresManualDispatch)
			assert.Equal(t, models.DispatchPending, call.DispatchStatus)
			assert.NotNil(t, call.ToolInput)
			assert.NotNil(t, call.ToolOutput)
		})
	}
}
