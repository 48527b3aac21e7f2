// Package models holds the shared data model exchanged between the video
// pipeline, the remote analyzer services, and the event stream.
package models

// UrgencyLevel classifies how urgent an analyzed frame is.
// Critical is an internal-only level: it is mapped to High before any
// value leaves the process (see triage.PublicUrgency).
type UrgencyLevel string

const (
	UrgencyLow      UrgencyLevel = "low"
	UrgencyNormal   UrgencyLevel = "normal"
	UrgencyMedium   UrgencyLevel = "medium"
	UrgencyHigh     UrgencyLevel = "high"
	UrgencyCritical UrgencyLevel = "critical"
)

// Hazard identifiers attached to analyzed frames.
const (
	HazardFire             = "fire"
	HazardSmoke            = "smoke"
	HazardWater            = "water"
	HazardStructuralDamage = "structural_damage"
	HazardGas              = "gas"
	HazardMedicalEmergency = "medical_emergency"
	HazardViolence         = "violence"
	HazardBlockedExit      = "blocked_exit"
)

// EmergencyMetrics is the structured assessment of a single frame, produced
// by the hazard parser from the vision service's free-text caption.
type EmergencyMetrics struct {
	Timestamp               string       `json:"timestamp"`
	FrameNumber             int          `json:"frame_number"`
	SceneDescription        string       `json:"scene_description"`
	UrgencyLevel            UrgencyLevel `json:"urgency_level"`
	UrgencyScore            float64      `json:"urgency_score"`
	DetectedHazards         []string     `json:"detected_hazards"`
	PeopleCount             *int         `json:"people_count"`
	VisibleInjuries         bool         `json:"visible_injuries"`
	EnvironmentalConditions string       `json:"environmental_conditions"`
	AccessibilityIssues     []string     `json:"accessibility_issues"`
	RecommendedAction       string       `json:"recommended_action"`
	Confidence              float64      `json:"confidence"`
	RawResponse             string       `json:"raw_response"`
}

// HasHazard reports whether h is among the detected hazards.
func (m *EmergencyMetrics) HasHazard(h string) bool {
	for _, d := range m.DetectedHazards {
		if d == h {
			return true
		}
	}
	return false
}

// AnalysisRequest is the payload sent to the vision service for one frame.
type AnalysisRequest struct {
	ImageBase64 string `json:"image_base64"`
	Timestamp   string `json:"timestamp"`
	FrameNumber int    `json:"frame_number"`
}
