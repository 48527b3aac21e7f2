package pipeline

import (
	"math"
	"sort"

	"github.com/monkedh/monkedh/pkg/events"
	"github.com/monkedh/monkedh/pkg/models"
)

// TimelinePoint is one entry of the per-session urgency timeline.
type TimelinePoint struct {
	Timestamp        string              `json:"timestamp"`
	FrameNumber      int                 `json:"frame_number"`
	UrgencyLevel     models.UrgencyLevel `json:"urgency_level"`
	SceneDescription string              `json:"scene_description"`
	DetectedHazards  []string            `json:"detected_hazards"`
}

// Summary aggregates the per-frame statistics of one session.
type Summary struct {
	TotalFramesAnalyzed       int                 `json:"total_frames_analyzed"`
	ThreatLevel               models.UrgencyLevel `json:"threat_level"`
	DominantUrgencyLevel      models.UrgencyLevel `json:"dominant_urgency_level"`
	HighUrgencyFrames         int                 `json:"high_urgency_frames"`
	MediumUrgencyFrames       int                 `json:"medium_urgency_frames"`
	NormalUrgencyFrames       int                 `json:"normal_urgency_frames"`
	LowUrgencyFrames          int                 `json:"low_urgency_frames"`
	MaxSeverityIndex          float64             `json:"max_severity_index"`
	AverageSeverityIndex      float64             `json:"average_severity_index"`
	UniqueHazardsDetected     []string            `json:"unique_hazards_detected"`
	TotalIncidents            int                 `json:"total_incidents"`
	RequiresImmediateResponse bool                `json:"requires_immediate_response"`
	PhoneBridgeConnected      bool                `json:"phone_bridge_connected"`
	PhoneBridgeIP             *string             `json:"phone_bridge_ip"`
}

// Report is the payload of the terminal complete event.
type Report struct {
	SessionID          string                   `json:"session_id"`
	VideoInfo          *models.VideoInfo        `json:"video_info"`
	AnalysisSummary    Summary                  `json:"analysis_summary"`
	EmergencyResponses []models.ToolInvocation  `json:"emergency_responses"`
	CriticalIncidents  []events.IncidentPayload `json:"critical_incidents"`
	UrgencyTimeline    []TimelinePoint          `json:"urgency_timeline"`
	XaiAnalysis        *models.XaiResult        `json:"xai_analysis"`
	XaiEnabled         bool                     `json:"xai_enabled"`
}

// dominantLabel picks the most frequent urgency label, breaking ties by
// higher priority. Sessions with no analyzed frames are low.
func dominantLabel(counts map[models.UrgencyLevel]int) models.UrgencyLevel {
	dominant := models.UrgencyLow
	bestCount := counts[models.UrgencyLow]
	for _, level := range []models.UrgencyLevel{models.UrgencyNormal, models.UrgencyMedium, models.UrgencyHigh} {
		if counts[level] > bestCount ||
			(counts[level] == bestCount && counts[level] > 0) {
			dominant = level
			bestCount = counts[level]
		}
	}
	return dominant
}

func sortedHazards(set map[string]struct{}) []string {
	hazards := make([]string, 0, len(set))
	for h := range set {
		hazards = append(hazards, h)
	}
	sort.Strings(hazards)
	return hazards
}

func averageSeverity(severities []float64) float64 {
	if len(severities) == 0 {
		return 0
	}
	var sum float64
	for _, s := range severities {
		sum += s
	}
	return math.Round(sum/float64(len(severities))*100) / 100
}
