package models

// Canonical tool names produced by the agent adapter.
const (
	ToolCallAuthorities = "call_authorities"
	ToolPhoneCall       = "phone_call_tool"
	ToolPhoneSMS        = "phone_sms_tool"
	ToolRedirectToChat  = "redirect_to_chat_tool"
	ToolFallbackCall    = "fallback_virtual_call"
)

// Dispatch status values carried on tool invocations.
const (
	DispatchPending   = "pending"
	DispatchCompleted = "completed"
	DispatchFailed    = "failed"
)

// DispatchRequest is the payload sent to the agent service when the
// orchestrator selects a frame for dispatch. UrgencyLevel is the raw level
// and may be "critical"; the agent is the only consumer that sees it unmapped.
type DispatchRequest struct {
	UrgencyScore     float64  `json:"urgency_score"`
	UrgencyLevel     string   `json:"urgency_level"`
	SceneDescription string   `json:"scene_description"`
	DetectedHazards  []string `json:"detected_hazards"`
	PeopleCount      *int     `json:"people_count"`
	VisibleInjuries  bool     `json:"visible_injuries"`
	Timestamp        string   `json:"timestamp"`
	FrameNumber      int      `json:"frame_number"`
	SeverityIndex    float64  `json:"severity_index"`
}

// ToolInvocation is one canonicalized action (call, SMS, redirect) emitted by
// the agent. Only the fields relevant to the invoking tool are populated.
type ToolInvocation struct {
	Tool                   string         `json:"tool"`
	ServiceType            string         `json:"service_type,omitempty"`
	Service                string         `json:"service,omitempty"`
	Urgency                string         `json:"urgency,omitempty"`
	Situation              string         `json:"situation,omitempty"`
	Message                string         `json:"message,omitempty"`
	Timestamp              string         `json:"timestamp,omitempty"`
	CallID                 string         `json:"call_id,omitempty"`
	EstimatedArrival       string         `json:"estimated_arrival,omitempty"`
	Channel                string         `json:"channel,omitempty"`
	RequiresManualDispatch bool           `json:"requires_manual_dispatch"`
	DispatchStatus         string         `json:"dispatch_status"`
	Status                 string         `json:"status"`
	Action                 string         `json:"action,omitempty"`
	Destination            string         `json:"destination,omitempty"`
	ConfirmationPrompt     string         `json:"confirmation_prompt,omitempty"`
	PrefillMessage         string         `json:"prefill_message,omitempty"`
	Priority               string         `json:"priority,omitempty"`
	Fallback               bool           `json:"fallback,omitempty"`
	PhoneBridgeResponse    any            `json:"phone_bridge_response,omitempty"`
	ToolInput              map[string]any `json:"tool_input,omitempty"`
	ToolOutput             map[string]any `json:"tool_output,omitempty"`
}

// AgentAction is one raw step from the agent's tool trace.
type AgentAction struct {
	Tool   string         `json:"tool"`
	Input  map[string]any `json:"input"`
	Output string         `json:"output"`
}

// AgentResult is the agent service's answer to a dispatch request.
type AgentResult struct {
	Success        bool             `json:"success"`
	AgentResponse  string           `json:"agent_response"`
	EmergencyCalls []ToolInvocation `json:"emergency_calls"`
	ActionsTaken   []AgentAction    `json:"actions_taken"`
	Error          string           `json:"error,omitempty"`
}
