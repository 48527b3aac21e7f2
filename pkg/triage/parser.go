// Package triage turns free-text vision captions into structured emergency
// assessments and applies the severity and dispatch policy on top of them.
package triage

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/monkedh/monkedh/pkg/models"
)

// hazardRule describes how one hazard is recognized in caption text.
// A hazard is added iff a cue matches, the negation does not, and (when
// context cues are present) at least one context cue also matches.
type hazardRule struct {
	name     string
	cues     []string
	negation *regexp.Regexp
	context  []string
}

var hazardRules = []hazardRule{
	{
		name:     models.HazardFire,
		cues:     []string{"fire", "flame", "burning", "blaze"},
		negation: regexp.MustCompile(`no\s+fire|fire[:\s]*no|without\s+fire`),
	},
	{
		name:     models.HazardSmoke,
		cues:     []string{"smoke", "smoking", "smoky"},
		negation: regexp.MustCompile(`no\s+smoke|smoke[:\s]*no|without\s+smoke`),
	},
	{
		name:     models.HazardWater,
		cues:     []string{"flood", "flooding", "submerged", "inundated", "water damage"},
		negation: regexp.MustCompile(`no\s+(flood|water)|flood[:\s]*no`),
	},
	{
		name:     models.HazardStructuralDamage,
		cues:     []string{"collapsed", "debris", "rubble", "damaged building", "broken structure", "structural damage", "crumbled", "destroyed"},
		negation: regexp.MustCompile(`no\s+damage|damage[:\s]*no|intact`),
	},
	{
		name:     models.HazardGas,
		cues:     []string{"gas leak", "gas", "chemical", "fumes", "toxic"},
		negation: regexp.MustCompile(`no\s+gas|gas[:\s]*no`),
		// Plain "gas" alone is too weak a signal ("gas station").
		context: []string{"leak", "fumes", "toxic", "chemical", "danger"},
	},
	{
		name:     models.HazardMedicalEmergency,
		cues:     []string{"injured", "injury", "hurt", "victim", "casualty", "wounded", "medical emergency", "blood", "bloody", "bleeding", "bloodied"},
		negation: regexp.MustCompile(`no\s+injur|injur[yed]*[:\s]*no|uninjured`),
	},
	{
		name:     models.HazardViolence,
		cues:     []string{"weapon", "gun", "knife", "assault", "attack", "violence", "fighting", "combat"},
		negation: regexp.MustCompile(`no\s+(weapon|violence)|weapon[:\s]*no`),
	},
	{
		name:     models.HazardBlockedExit,
		cues:     []string{"blocked exit", "obstructed", "trapped", "blocked path"},
		negation: regexp.MustCompile(`no\s+block|block[:\s]*no|clear`),
	},
}

var peoplePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d+)\s+(?:people|person|individual)`),
	regexp.MustCompile(`(?:people|person)[:\s]+(\d+)`),
	regexp.MustCompile(`see\s+(\d+)`),
	regexp.MustCompile(`count[:\s]+(\d+)`),
}

var injuriesRe = regexp.MustCompile(`injur[yed]*[:\s]*(?:yes|visible|present|detected)`)

var zeroPeoplePhrases = []string{"no people", "nobody", "none visible", "0 people"}

var actionKeywords = []string{
	"should", "must", "need to", "evacuate", "call", "contact",
	"move", "leave", "stay", "avoid", "immediately",
}

var defaultActions = map[models.UrgencyLevel]string{
	models.UrgencyCritical: "IMMEDIATE ACTION REQUIRED. Evacuate area and call emergency services NOW.",
	models.UrgencyHigh:     "Call emergency services immediately. Ensure safety of all individuals.",
	models.UrgencyMedium:   "Stay alert. Prepare to evacuate if situation worsens. Contact authorities if needed.",
	models.UrgencyLow:      "Monitor situation. Call emergency services if needed.",
}

// Parse maps a free-text caption to an EmergencyMetrics record.
// Pure and deterministic: the same caption, timestamp, and frame number
// always produce the same output. Matching is case-insensitive.
func Parse(caption, timestamp string, frameNumber int) models.EmergencyMetrics {
	lower := strings.ToLower(caption)

	hazards := detectHazards(lower)
	level, score := assignUrgency(lower, hazards)

	m := models.EmergencyMetrics{
		Timestamp:               timestamp,
		FrameNumber:             frameNumber,
		SceneDescription:        sceneDescription(caption),
		UrgencyLevel:            level,
		UrgencyScore:            score,
		DetectedHazards:         hazards,
		PeopleCount:             peopleCount(lower),
		VisibleInjuries:         injuriesRe.MatchString(lower),
		EnvironmentalConditions: environment(lower, hazards),
		AccessibilityIssues:     accessibility(lower, hazards),
		Confidence:              0.8,
		RawResponse:             caption,
	}
	m.RecommendedAction = recommendedAction(caption, level)
	return m
}

func detectHazards(lower string) []string {
	hazards := make([]string, 0, 4)
	for _, rule := range hazardRules {
		if !containsAny(lower, rule.cues) {
			continue
		}
		if rule.negation.MatchString(lower) {
			continue
		}
		if len(rule.context) > 0 && !containsAny(lower, rule.context) {
			continue
		}
		hazards = append(hazards, rule.name)
	}
	return hazards
}

// assignUrgency applies the first matching rule: critical hazards, then
// high-risk and medium-risk hazard tiers, then textual danger keywords.
func assignUrgency(lower string, hazards []string) (models.UrgencyLevel, float64) {
	has := func(names ...string) bool {
		for _, n := range names {
			for _, h := range hazards {
				if h == n {
					return true
				}
			}
		}
		return false
	}

	switch {
	case has(models.HazardFire, models.HazardViolence, models.HazardMedicalEmergency):
		return models.UrgencyCritical, 9.5
	case has(models.HazardSmoke, models.HazardStructuralDamage, models.HazardGas):
		return models.UrgencyHigh, 7.5
	case has(models.HazardWater, models.HazardBlockedExit):
		return models.UrgencyMedium, 4.5
	}

	switch {
	case containsAny(lower, []string{"critical", "extreme danger", "life threatening", "emergency"}):
		return models.UrgencyCritical, 9.5
	case containsAny(lower, []string{"high danger", "high risk", "dangerous", "urgent"}):
		return models.UrgencyHigh, 7.5
	case containsAny(lower, []string{"medium", "moderate", "caution", "some concern"}):
		return models.UrgencyMedium, 4.5
	}
	return models.UrgencyLow, 1.5
}

func peopleCount(lower string) *int {
	for _, re := range peoplePatterns {
		if m := re.FindStringSubmatch(lower); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				return &n
			}
		}
	}
	if containsAny(lower, zeroPeoplePhrases) {
		zero := 0
		return &zero
	}
	return nil
}

func environment(lower string, hazards []string) string {
	switch {
	case strings.Contains(lower, "dark") || strings.Contains(lower, "low light"):
		return "Low lighting conditions"
	case strings.Contains(lower, "bright") || strings.Contains(lower, "good light"):
		return "Good lighting"
	case contains(hazards, models.HazardSmoke):
		return "Poor visibility due to smoke"
	case strings.Contains(lower, "rain") || strings.Contains(lower, "wet"):
		return "Wet conditions"
	}
	return "Normal indoor/outdoor conditions"
}

func accessibility(lower string, hazards []string) []string {
	issues := []string{}
	if contains(hazards, models.HazardBlockedExit) {
		issues = append(issues, models.HazardBlockedExit)
	}
	if strings.Contains(lower, "debris") || strings.Contains(lower, "rubble") {
		issues = append(issues, "debris")
	}
	return issues
}

// recommendedAction collects up to two sentences carrying an action keyword;
// when none are present, it falls back to a per-urgency template.
func recommendedAction(caption string, level models.UrgencyLevel) string {
	var picked []string
	for _, sentence := range strings.Split(caption, ".") {
		lower := strings.ToLower(sentence)
		if containsAny(lower, actionKeywords) {
			picked = append(picked, strings.TrimSpace(sentence))
			if len(picked) == 2 {
				break
			}
		}
	}
	if len(picked) > 0 {
		return strings.Join(picked, ". ")
	}
	return defaultActions[level]
}

// sceneDescription keeps the first two sentences, clipped to 250 characters.
func sceneDescription(caption string) string {
	parts := strings.SplitN(caption, ".", 3)
	if len(parts) > 2 {
		parts = parts[:2]
	}
	desc := strings.TrimSpace(strings.Join(parts, ". "))
	if len(desc) > 250 {
		desc = desc[:247] + "..."
	}
	return desc
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
