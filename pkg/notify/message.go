package notify

import (
	"fmt"
	"strings"

	goslack "github.com/slack-go/slack"

	"github.com/monkedh/monkedh/pkg/models"
)

const maxBlockTextLength = 2900

var urgencyEmoji = map[models.UrgencyLevel]string{
	models.UrgencyHigh:   ":rotating_light:",
	models.UrgencyMedium: ":warning:",
	models.UrgencyLow:    ":information_source:",
}

func sessionURL(sessionID, dashboardURL string) string {
	return fmt.Sprintf("%s/sessions/%s", dashboardURL, sessionID)
}

// BuildIncidentMessage creates Block Kit blocks for an incident alert.
func BuildIncidentMessage(input IncidentInput, dashboardURL string) []goslack.Block {
	emoji := urgencyEmoji[input.UrgencyLevel]
	if emoji == "" {
		emoji = ":warning:"
	}

	header := fmt.Sprintf("%s *Emergency detected* (frame %d, urgency %s, severity %.1f)",
		emoji, input.FrameNumber, input.UrgencyLevel, input.SeverityIndex)

	body := input.SceneDescription
	if len(input.DetectedHazards) > 0 {
		body += "\nHazards: " + strings.Join(input.DetectedHazards, ", ")
	}
	if dashboardURL != "" {
		body += fmt.Sprintf("\n<%s|View in Dashboard>", sessionURL(input.SessionID, dashboardURL))
	}

	return []goslack.Block{
		goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, header, false, false),
			nil, nil,
		),
		goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, truncateForSlack(body), false, false),
			nil, nil,
		),
	}
}

// BuildSessionCompleteMessage creates Block Kit blocks for the end-of-session
// summary.
func BuildSessionCompleteMessage(input SessionCompleteInput, dashboardURL string) []goslack.Block {
	var header string
	if input.EmergencyDetected {
		header = fmt.Sprintf(":rotating_light: *Analysis complete: emergency confirmed* (%d incidents, max severity %.1f)",
			input.IncidentCount, input.MaxSeverity)
	} else {
		header = ":white_check_mark: *Analysis complete: no emergency detected*"
	}

	body := fmt.Sprintf("Session `%s`: %d frames analyzed.", input.SessionID, input.FramesAnalyzed)
	if dashboardURL != "" {
		body += fmt.Sprintf("\n<%s|View in Dashboard>", sessionURL(input.SessionID, dashboardURL))
	}

	return []goslack.Block{
		goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, header, false, false),
			nil, nil,
		),
		goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, truncateForSlack(body), false, false),
			nil, nil,
		),
	}
}

// BuildSessionFailedMessage creates Block Kit blocks for a failed session.
func BuildSessionFailedMessage(sessionID, detail string) []goslack.Block {
	text := fmt.Sprintf(":x: *Analysis failed* for session `%s`\n%s",
		sessionID, truncateForSlack(detail))
	return []goslack.Block{
		goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, text, false, false),
			nil, nil,
		),
	}
}

func truncateForSlack(s string) string {
	if len(s) <= maxBlockTextLength {
		return s
	}
	return s[:maxBlockTextLength] + "..."
}
