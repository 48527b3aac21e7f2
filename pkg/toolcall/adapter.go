// Package toolcall canonicalizes the agent's raw tool-invocation trace into
// ToolInvocation records, normalizes emergency service names, and synthesizes
// a fallback call when the agent took no tool action at all.
package toolcall

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/monkedh/monkedh/pkg/models"
)

// Canonical service identifiers.
const (
	ServiceFire   = "FIRE"
	ServicePolice = "POLICE"
	ServiceSamu   = "SAMU"
)

var serviceAliases = map[string]string{
	"fire":              ServiceFire,
	"fire dept":         ServiceFire,
	"fire department":   ServiceFire,
	"firefighters":      ServiceFire,
	"flames":            ServiceFire,
	"smoke":             ServiceFire,
	"explosion":         ServiceFire,
	"police":            ServicePolice,
	"police department": ServicePolice,
	"law enforcement":   ServicePolice,
	"security":          ServicePolice,
	"sheriff":           ServicePolice,
	"911":               ServiceSamu,
	"medical":           ServiceSamu,
	"medical emergency": ServiceSamu,
	"ambulance":         ServiceSamu,
	"ambulance/ems":     ServiceSamu,
	"ems":               ServiceSamu,
	"paramedics":        ServiceSamu,
	"injury":            ServiceSamu,
	"samu":              ServiceSamu,
}

var serviceLabels = map[string]string{
	ServiceFire:   "Fire Department",
	ServicePolice: "Police Department",
	ServiceSamu:   "Ambulance / EMS",
}

var (
	fireTokens    = []string{"fire", "flame", "smoke", "explosion", "burn", "incendie"}
	medicalTokens = []string{"medical", "injury", "bleeding", "victim", "heart", "respiration", "samu", "ambulance"}
	policeTokens  = []string{"weapon", "assault", "violence", "police", "attack", "threat", "agression", "kidnap"}
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// NormalizeService maps a free-text service name onto FIRE, POLICE, or SAMU.
// Unrecognized names default to SAMU.
func NormalizeService(raw string) string {
	if raw == "" {
		return ServiceSamu
	}
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer("-", " ", "_", " ").Replace(key)
	key = whitespaceRe.ReplaceAllString(key, " ")
	if svc, ok := serviceAliases[key]; ok {
		return svc
	}
	if containsAny(key, []string{"fire", "flame", "smoke"}) {
		return ServiceFire
	}
	if containsAny(key, []string{"police", "law", "security", "sheriff", "officer"}) {
		return ServicePolice
	}
	if containsAny(key, []string{"medical", "injury", "ambulance", "ems", "paramedic", "victim", "rescue"}) {
		return ServiceSamu
	}
	return ServiceSamu
}

// ServiceLabel returns the display label for a canonical service.
func ServiceLabel(service string) string {
	if label, ok := serviceLabels[service]; ok {
		return label
	}
	return "Emergency Services"
}

// TraceAction is the tool-selection half of one agent trace step.
type TraceAction struct {
	Tool  string         `json:"tool"`
	Input map[string]any `json:"tool_input"`
}

// TraceStep is one (action, output) pair from the agent's intermediate steps.
// On the wire it is a two-element array.
type TraceStep struct {
	Action TraceAction
	Output string
}

// UnmarshalJSON decodes the [action, output] pair form.
func (s *TraceStep) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) < 2 {
		return fmt.Errorf("trace step has %d elements, want 2", len(pair))
	}
	if err := json.Unmarshal(pair[0], &s.Action); err != nil {
		return fmt.Errorf("trace step action: %w", err)
	}
	if err := json.Unmarshal(pair[1], &s.Output); err != nil {
		return fmt.Errorf("trace step output: %w", err)
	}
	return nil
}

// Trace is the raw shape an agent executor returns.
type Trace struct {
	Output string      `json:"output"`
	Steps  []TraceStep `json:"intermediate_steps"`
}

// ParseSteps converts a raw trace into canonical tool invocations plus the
// flat action log. Steps whose output cannot be parsed, and phone calls for
// unsupported hazard types, are recorded as actions but produce no invocation.
func ParseSteps(steps []TraceStep, req models.DispatchRequest) ([]models.ToolInvocation, []models.AgentAction) {
	calls := make([]models.ToolInvocation, 0, len(steps))
	actions := make([]models.AgentAction, 0, len(steps))

	for _, step := range steps {
		actions = append(actions, models.AgentAction{
			Tool:   step.Action.Tool,
			Input:  step.Action.Input,
			Output: step.Output,
		})

		var data map[string]any
		if err := json.Unmarshal([]byte(step.Output), &data); err != nil {
			slog.Warn("Unparseable tool output in agent trace",
				"tool", step.Action.Tool, "error", err)
			continue
		}

		switch step.Action.Tool {
		case models.ToolCallAuthorities:
			calls = append(calls, parseCallAuthorities(step, data, req))
		case models.ToolPhoneCall:
			if inv, ok := parsePhoneCall(step, data, req); ok {
				calls = append(calls, inv)
			}
		case models.ToolPhoneSMS:
			calls = append(calls, parsePhoneSMS(step, data, req))
		case models.ToolRedirectToChat:
			calls = append(calls, parseRedirect(step, data))
		default:
			slog.Warn("Unknown tool in agent trace", "tool", step.Action.Tool)
		}
	}
	return calls, actions
}

func parseCallAuthorities(step TraceStep, data map[string]any, req models.DispatchRequest) models.ToolInvocation {
	situation := firstString(data, "situation")
	if situation == "" {
		situation = inputString(step.Action.Input, "situation_description")
	}
	message := firstString(data, "message", "situation")
	if message == "" {
		message = inputString(step.Action.Input, "situation_description")
	}
	return models.ToolInvocation{
		Tool:                   models.ToolCallAuthorities,
		ServiceType:            firstString(data, "service_type"),
		Service:                firstString(data, "service", "service_label"),
		Urgency:                stringOr(firstString(data, "urgency"), req.UrgencyLevel),
		Situation:              situation,
		Message:                message,
		Timestamp:              firstString(data, "timestamp"),
		CallID:                 firstString(data, "call_id"),
		EstimatedArrival:       firstString(data, "estimated_arrival"),
		Channel:                stringOr(firstString(data, "channel"), "call"),
		RequiresManualDispatch: boolOr(data, "requires_manual_dispatch", true),
		DispatchStatus:         stringOr(firstString(data, "dispatch_status"), models.DispatchPending),
		Status:                 stringOr(firstString(data, "status"), "queued"),
		PhoneBridgeResponse:    data["phone_bridge_response"],
		ToolInput:              step.Action.Input,
		ToolOutput:             data,
	}
}

func parsePhoneCall(step TraceStep, data map[string]any, req models.DispatchRequest) (models.ToolInvocation, bool) {
	hazard := strings.ToLower(strings.TrimSpace(firstString(data, "hazard_type")))
	if hazard == "" {
		hazard = strings.ToLower(strings.TrimSpace(inputString(step.Action.Input, "hazard_type")))
	}
	if hazard != "fire" && hazard != "medical" {
		slog.Warn("Rejecting phone call for unsupported hazard", "hazard_type", hazard)
		return models.ToolInvocation{}, false
	}

	serviceType := firstString(data, "service_type")
	if serviceType == "" {
		serviceType = inputString(step.Action.Input, "service")
	}
	situation := firstString(data, "situation", "situation_summary")
	if situation == "" {
		situation = inputString(step.Action.Input, "situation_summary")
	}
	message := firstString(data, "message", "situation_summary")
	if message == "" {
		message = inputString(step.Action.Input, "situation_summary")
	}
	service := firstString(data, "service_label")
	if service == "" {
		service = inputString(step.Action.Input, "service")
	}
	return models.ToolInvocation{
		Tool:                   models.ToolPhoneCall,
		ServiceType:            serviceType,
		Service:                service,
		Urgency:                stringOr(firstString(data, "urgency"), req.UrgencyLevel),
		Situation:              situation,
		Message:                message,
		Timestamp:              firstString(data, "timestamp"),
		CallID:                 firstString(data, "call_id"),
		EstimatedArrival:       firstString(data, "estimated_arrival"),
		Channel:                stringOr(firstString(data, "channel"), "frontend_queue"),
		RequiresManualDispatch: boolOr(data, "requires_manual_dispatch", false),
		DispatchStatus:         stringOr(firstString(data, "dispatch_status"), models.DispatchCompleted),
		Status:                 stringOr(firstString(data, "status"), models.DispatchCompleted),
		PhoneBridgeResponse:    data["phone_bridge_response"],
		ToolInput:              step.Action.Input,
		ToolOutput:             data,
	}, true
}

func parsePhoneSMS(step TraceStep, data map[string]any, req models.DispatchRequest) models.ToolInvocation {
	message := EnsureSMSPrefix(firstString(data, "message"))
	return models.ToolInvocation{
		Tool:                   models.ToolPhoneSMS,
		ServiceType:            stringOr(firstString(data, "service_type"), "sms"),
		Service:                stringOr(firstString(data, "service"), "SMS Dispatch"),
		Urgency:                stringOr(firstString(data, "urgency"), req.UrgencyLevel),
		Situation:              stringOr(firstString(data, "situation"), message),
		Message:                message,
		Timestamp:              firstString(data, "timestamp"),
		CallID:                 firstString(data, "call_id"),
		Channel:                stringOr(firstString(data, "channel"), "frontend_queue"),
		RequiresManualDispatch: boolOr(data, "requires_manual_dispatch", false),
		DispatchStatus:         stringOr(firstString(data, "dispatch_status"), models.DispatchCompleted),
		Status:                 stringOr(firstString(data, "status"), models.DispatchCompleted),
		PhoneBridgeResponse:    data["phone_response"],
		Priority:               firstString(data, "priority"),
		ToolInput:              step.Action.Input,
		ToolOutput:             data,
	}
}

func parseRedirect(step TraceStep, data map[string]any) models.ToolInvocation {
	return models.ToolInvocation{
		Tool:                   models.ToolRedirectToChat,
		Channel:                stringOr(firstString(data, "channel"), "frontend_redirect"),
		Action:                 stringOr(firstString(data, "action"), "redirect"),
		Destination:            stringOr(firstString(data, "destination"), "/chat"),
		Message:                firstString(data, "message"),
		ConfirmationPrompt:     firstString(data, "confirmation_prompt"),
		PrefillMessage:         firstString(data, "prefill_message"),
		Timestamp:              firstString(data, "timestamp"),
		CallID:                 firstString(data, "call_id"),
		Priority:               stringOr(firstString(data, "priority"), "critical"),
		Status:                 stringOr(firstString(data, "status"), models.DispatchPending),
		RequiresManualDispatch: boolOr(data, "requires_manual_dispatch", false),
		DispatchStatus:         stringOr(firstString(data, "dispatch_status"), models.DispatchPending),
		ToolInput:              step.Action.Input,
		ToolOutput:             data,
	}
}

// EnsureSMSPrefix prepends the dispatcher signature when the message lacks it.
func EnsureSMSPrefix(message string) string {
	message = strings.TrimSpace(message)
	if message == "" {
		return "Sent by Monkedh: Emergency confirmed"
	}
	if strings.HasPrefix(strings.ToLower(message), "sent by monkedh") {
		return message
	}
	return "Sent by Monkedh: " + message
}

// InferFallback synthesizes a virtual call from the dispatched metrics when
// the agent produced no tool calls: FIRE for fire-related text, SAMU when
// injuries or people are present, POLICE for violence-related text, SAMU
// otherwise.
func InferFallback(req models.DispatchRequest) models.ToolInvocation {
	service := inferService(req)
	return models.ToolInvocation{
		Tool:                   models.ToolFallbackCall,
		ServiceType:            strings.ToLower(service),
		Service:                ServiceLabel(service),
		Urgency:                req.UrgencyLevel,
		Situation:              req.SceneDescription,
		Message:                req.SceneDescription,
		Timestamp:              time.Now().UTC().Format("2006-01-02 15:04:05"),
		CallID:                 fmt.Sprintf("FALLBACK-%d", req.FrameNumber),
		Channel:                "frontend_queue",
		Fallback:               true,
		RequiresManualDispatch: true,
		DispatchStatus:         models.DispatchPending,
		ToolInput:              map[string]any{},
		ToolOutput:             map[string]any{},
	}
}

func inferService(req models.DispatchRequest) string {
	text := strings.ToLower(req.SceneDescription + " " + strings.Join(req.DetectedHazards, " "))
	if containsAny(text, fireTokens) {
		return ServiceFire
	}
	if req.VisibleInjuries || (req.PeopleCount != nil && *req.PeopleCount > 0) {
		return ServiceSamu
	}
	if containsAny(text, policeTokens) {
		return ServicePolice
	}
	if containsAny(text, medicalTokens) {
		return ServiceSamu
	}
	return ServiceSamu
}

func containsAny(s string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}

func firstString(data map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := data[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func inputString(input map[string]any, key string) string {
	if v, ok := input[key].(string); ok {
		return v
	}
	return ""
}

func stringOr(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func boolOr(data map[string]any, key string, fallback bool) bool {
	if v, ok := data[key].(bool); ok {
		return v
	}
	return fallback
}
