package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monkedh/monkedh/pkg/models"
)

func TestParseBenignScene(t *testing.T) {
	m := Parse("A calm street with pedestrians walking. No danger. 3 people.", "00:00:00", 0)

	assert.Equal(t, models.UrgencyLow, m.UrgencyLevel)
	assert.Equal(t, 1.5, m.UrgencyScore)
	assert.Empty(t, m.DetectedHazards)
	require.NotNil(t, m.PeopleCount)
	assert.Equal(t, 3, *m.PeopleCount)
	assert.False(t, m.VisibleInjuries)
	assert.Equal(t, "00:00:00", m.Timestamp)
	assert.Equal(t, 0, m.FrameNumber)
	assert.Equal(t, 0.8, m.Confidence)
}

func TestParseFireWithInjuries(t *testing.T) {
	caption := "Building on fire, thick smoke everywhere. Injured people trapped inside. 4 people visible, injury: yes."
	m := Parse(caption, "00:00:12", 12)

	assert.Subset(t, m.DetectedHazards, []string{
		models.HazardFire, models.HazardSmoke, models.HazardMedicalEmergency, models.HazardBlockedExit,
	})
	assert.Equal(t, models.UrgencyCritical, m.UrgencyLevel)
	assert.Equal(t, 9.5, m.UrgencyScore)
	assert.True(t, m.VisibleInjuries)
	require.NotNil(t, m.PeopleCount)
	assert.Equal(t, 4, *m.PeopleCount)
}

func TestParseHazardDetection(t *testing.T) {
	tests := []struct {
		name    string
		caption string
		want    []string
	}{
		{"fire cue", "flames visible on the roof", []string{models.HazardFire}},
		{"fire negated", "the kitchen is intact, no fire anywhere", nil},
		{"smoke cue", "smoky haze above the road", []string{models.HazardSmoke}},
		{"water cue", "the basement is flooded and submerged", []string{models.HazardWater}},
		{"structural cue", "rubble and a collapsed wall", []string{models.HazardStructuralDamage}},
		{"gas with context", "strong smell of gas, possible leak", []string{models.HazardGas}},
		{"gas without context", "gas station on the corner", nil},
		{"violence cue", "a man holding a knife", []string{models.HazardViolence}},
		{"blocked exit cue", "the hallway is obstructed by furniture", []string{models.HazardBlockedExit}},
		{"full negation", "No fire, no injuries, everything is safe.", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Parse(tt.caption, "00:00:01", 1)
			if tt.want == nil {
				assert.Empty(t, m.DetectedHazards)
			} else {
				assert.Equal(t, tt.want, m.DetectedHazards)
			}
		})
	}
}

func TestParseUrgencyKeywordFallback(t *testing.T) {
	tests := []struct {
		caption string
		level   models.UrgencyLevel
		score   float64
	}{
		{"this is a life threatening situation", models.UrgencyCritical, 9.5},
		{"the road looks dangerous tonight", models.UrgencyHigh, 7.5},
		{"moderate congestion, some concern", models.UrgencyMedium, 4.5},
		{"everything is safe and calm", models.UrgencyLow, 1.5},
		{"an unremarkable parking lot", models.UrgencyLow, 1.5},
	}
	for _, tt := range tests {
		m := Parse(tt.caption, "00:00:00", 0)
		assert.Equal(t, tt.level, m.UrgencyLevel, tt.caption)
		assert.Equal(t, tt.score, m.UrgencyScore, tt.caption)
	}
}

func TestParsePeopleCount(t *testing.T) {
	tests := []struct {
		caption string
		want    *int
	}{
		{"I can see 7 people near the entrance", intPtr(7)},
		{"people: 2 standing by the car", intPtr(2)},
		{"see 12 gathered outside", intPtr(12)},
		{"count: 5", intPtr(5)},
		{"nobody around, the street is empty", intPtr(0)},
		{"a quiet alley", nil},
	}
	for _, tt := range tests {
		m := Parse(tt.caption, "00:00:00", 0)
		if tt.want == nil {
			assert.Nil(t, m.PeopleCount, tt.caption)
		} else {
			require.NotNil(t, m.PeopleCount, tt.caption)
			assert.Equal(t, *tt.want, *m.PeopleCount, tt.caption)
		}
	}
}

func TestParseInjuriesFlag(t *testing.T) {
	assert.True(t, Parse("injury: yes, one person bleeding", "", 0).VisibleInjuries)
	assert.True(t, Parse("injured: visible bruises on the driver", "", 0).VisibleInjuries)
	assert.False(t, Parse("no injuries reported", "", 0).VisibleInjuries)
}

func TestParseEnvironment(t *testing.T) {
	assert.Equal(t, "Low lighting conditions", Parse("dark warehouse interior", "", 0).EnvironmentalConditions)
	assert.Equal(t, "Good lighting", Parse("bright sunny plaza", "", 0).EnvironmentalConditions)
	assert.Equal(t, "Poor visibility due to smoke", Parse("smoke drifting over the lot", "", 0).EnvironmentalConditions)
	assert.Equal(t, "Wet conditions", Parse("rain falling on the street", "", 0).EnvironmentalConditions)
	assert.Equal(t, "Normal indoor/outdoor conditions", Parse("an office corridor", "", 0).EnvironmentalConditions)
}

func TestParseAccessibility(t *testing.T) {
	m := Parse("people trapped behind rubble", "", 0)
	assert.Equal(t, []string{models.HazardBlockedExit, "debris"}, m.AccessibilityIssues)

	assert.Empty(t, Parse("open plaza", "", 0).AccessibilityIssues)
}

func TestParseRecommendedAction(t *testing.T) {
	m := Parse("Smoke in the stairwell. Residents should evacuate now. The lobby is empty.", "", 0)
	assert.Equal(t, "Residents should evacuate now", m.RecommendedAction)

	// No action sentence: default template follows the assigned urgency.
	assert.Equal(t,
		"Monitor situation. Call emergency services if needed.",
		Parse("an empty hallway", "", 0).RecommendedAction)
	assert.Equal(t,
		"Call emergency services immediately. Ensure safety of all individuals.",
		Parse("smoky air in the garage", "", 0).RecommendedAction)
}

func TestParseSceneDescriptionClipped(t *testing.T) {
	long := make([]byte, 0, 400)
	for len(long) < 400 {
		long = append(long, "burning warehouse "...)
	}
	m := Parse(string(long), "", 0)
	assert.Len(t, m.SceneDescription, 250)
	assert.Equal(t, "...", m.SceneDescription[247:])

	short := Parse("Quiet street. Two parked cars. A closed shop.", "", 0)
	assert.Equal(t, "Quiet street.  Two parked cars", short.SceneDescription)
}

func TestParseDeterministic(t *testing.T) {
	caption := "Building on fire, 4 people visible, injury: yes. Evacuate immediately."
	a := Parse(caption, "00:00:03", 3)
	b := Parse(caption, "00:00:03", 3)
	assert.Equal(t, a, b)
}

func intPtr(n int) *int { return &n }
