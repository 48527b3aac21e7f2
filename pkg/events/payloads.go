package events

import (
	"github.com/monkedh/monkedh/pkg/models"
)

// FramePayload is published for every successfully analyzed frame.
// UrgencyLevel is always the public level (critical never leaves the process).
type FramePayload struct {
	SessionID           string              `json:"session_id"`
	FrameNumber         int                 `json:"frame_number"`
	Timestamp           string              `json:"timestamp"`
	UrgencyLevel        models.UrgencyLevel `json:"urgency_level"`
	SceneDescription    string              `json:"scene_description"`
	DetectedHazards     []string            `json:"detected_hazards"`
	PeopleCount         *int                `json:"people_count"`
	VisibleInjuries     bool                `json:"visible_injuries"`
	DispatchRecommended bool                `json:"dispatch_recommended"`
	RecommendedAction   string              `json:"recommended_action"`
}

// IncidentPayload records a frame whose urgency or severity crossed the
// incident threshold. The pipeline may enrich the record with the XAI
// attribution and the agent's response before the final report; the
// published incident event carries the record as of publication time.
type IncidentPayload struct {
	Timestamp           string               `json:"timestamp"`
	FrameNumber         int                  `json:"frame_number"`
	UrgencyLevel        models.UrgencyLevel  `json:"urgency_level"`
	SceneDescription    string               `json:"scene_description"`
	DetectedHazards     []string             `json:"detected_hazards"`
	PeopleCount         *int                 `json:"people_count"`
	VisibleInjuries     bool                 `json:"visible_injuries"`
	DispatchRecommended bool                 `json:"dispatch_recommended"`
	XaiAnalysis         *models.XaiResult    `json:"xai_analysis,omitempty"`
	AgentResponse       string               `json:"agent_response,omitempty"`
	ActionsTaken        []models.AgentAction `json:"actions_taken,omitempty"`
}

// XaiHeatmapPayload carries the attribution grid for the qualifying frame.
type XaiHeatmapPayload struct {
	SessionID          string           `json:"session_id"`
	FrameNumber        int              `json:"frame_number"`
	Timestamp          string           `json:"timestamp"`
	GridSize           int              `json:"grid_size"`
	HeatmapImageBase64 string           `json:"heatmap_image_base64"`
	Cells              []models.XaiCell `json:"cells"`
	Explanation        string           `json:"explanation"`
	MaxScore           float64          `json:"max_score"`
}

// XaiErrorPayload reports a failed attribution attempt.
type XaiErrorPayload struct {
	FrameNumber int    `json:"frame_number"`
	Timestamp   string `json:"timestamp"`
	Detail      string `json:"detail"`
}

// XaiDisabledPayload reports that attribution was skipped because the
// feature is switched off.
type XaiDisabledPayload struct {
	FrameNumber int    `json:"frame_number"`
	Timestamp   string `json:"timestamp"`
	Reason      string `json:"reason"`
}

// AgentCallPayload summarizes the single agent dispatch of a session.
// ToolCalls mirrors ActionsTaken for consumers that key on that field.
type AgentCallPayload struct {
	SessionID          string                  `json:"session_id"`
	FrameNumber        int                     `json:"frame_number"`
	AgentResponse      string                  `json:"agent_response"`
	EmergencyResponses []models.ToolInvocation `json:"emergency_responses"`
	ActionsTaken       []models.AgentAction    `json:"actions_taken"`
	ToolCalls          []models.AgentAction    `json:"tool_calls"`
}

// ToolCallPayload is one canonical tool invocation fanned out after the
// agent call, tagged with the session and the dispatched frame.
type ToolCallPayload struct {
	SessionID   string `json:"session_id"`
	FrameNumber int    `json:"frame_number"`
	models.ToolInvocation
}

// ErrorPayload is the terminal payload for a failed session.
type ErrorPayload struct {
	Detail string `json:"detail"`
}

// EndPayload closes every session stream.
type EndPayload struct {
	SessionID string `json:"session_id"`
}
