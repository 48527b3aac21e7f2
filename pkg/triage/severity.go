package triage

import (
	"math"

	"github.com/monkedh/monkedh/pkg/models"
)

var hazardWeights = map[string]float64{
	models.HazardFire:             3.0,
	models.HazardMedicalEmergency: 3.0,
	models.HazardViolence:         2.5,
	models.HazardSmoke:            2.0,
	models.HazardStructuralDamage: 2.0,
	models.HazardGas:              2.0,
	models.HazardWater:            1.2,
	models.HazardBlockedExit:      1.0,
}

// HazardWeight returns the severity contribution of a single hazard.
// Unknown hazards still contribute a small baseline weight.
func HazardWeight(hazard string) float64 {
	if w, ok := hazardWeights[hazard]; ok {
		return w
	}
	return 0.8
}

// SeverityIndex derives the 0-10 severity scalar for one frame:
// 0.4*urgency_score + hazard weights + 2.5 for visible injuries +
// 0.3 per visible person (capped at 5), rounded to 2 decimals and
// clamped to 10.
func SeverityIndex(m *models.EmergencyMetrics) float64 {
	hazardScore := 0.0
	for _, h := range m.DetectedHazards {
		hazardScore += HazardWeight(h)
	}
	injuryBonus := 0.0
	if m.VisibleInjuries {
		injuryBonus = 2.5
	}
	people := 0
	if m.PeopleCount != nil {
		people = *m.PeopleCount
	}
	if people > 5 {
		people = 5
	}
	severity := 0.4*m.UrgencyScore + hazardScore + injuryBonus + 0.3*float64(people)
	return math.Min(10.0, math.Round(severity*100)/100)
}

// DispatchRequired decides whether a frame warrants escalation to the agent:
// a life-critical signal (fire, medical emergency, or visible injuries)
// combined with a high enough urgency or severity.
func DispatchRequired(m *models.EmergencyMetrics, severity float64) bool {
	hasCritical := false
	for _, h := range m.DetectedHazards {
		if h == models.HazardFire || h == models.HazardMedicalEmergency {
			hasCritical = true
			break
		}
	}
	return (hasCritical || m.VisibleInjuries) && (m.UrgencyScore >= 6.0 || severity >= 6.5)
}

var urgencyPriority = map[models.UrgencyLevel]int{
	models.UrgencyLow:    0,
	models.UrgencyNormal: 1,
	models.UrgencyMedium: 2,
	models.UrgencyHigh:   3,
}

// Priority orders public urgency levels for dominant-label selection.
// Unknown levels (including critical, which never reaches this path)
// rank lowest.
func Priority(level models.UrgencyLevel) int {
	return urgencyPriority[level]
}

// ClassifyUrgency buckets a raw urgency score into a public level.
func ClassifyUrgency(score float64) models.UrgencyLevel {
	switch {
	case score >= 7.0:
		return models.UrgencyHigh
	case score >= 5.0:
		return models.UrgencyMedium
	case score >= 3.0:
		return models.UrgencyNormal
	}
	return models.UrgencyLow
}

// PublicUrgency maps a frame's internal urgency to the level exposed to
// consumers: critical collapses to high, recognized levels pass through,
// anything else is re-classified from the score.
func PublicUrgency(m *models.EmergencyMetrics) models.UrgencyLevel {
	if m.UrgencyLevel == models.UrgencyCritical {
		return models.UrgencyHigh
	}
	if _, ok := urgencyPriority[m.UrgencyLevel]; ok {
		return m.UrgencyLevel
	}
	return ClassifyUrgency(m.UrgencyScore)
}
