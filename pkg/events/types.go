// Package events provides the per-session bounded event bus that carries the
// analysis stream from a pipeline task to its SSE consumer.
package events

// Event names on the session stream.
const (
	EventFrame       = "frame"
	EventIncident    = "incident"
	EventXaiHeatmap  = "xai_heatmap"
	EventXaiError    = "xai_error"
	EventXaiDisabled = "xai_disabled"
	EventAgentCall   = "agent_call"
	EventToolCall    = "tool_call"
	EventComplete    = "complete"
	EventError       = "error"
	EventEnd         = "end"
)

// Event is one entry on a session stream. Data is the JSON-serializable
// payload for the named event.
type Event struct {
	Name string
	Data any
}
