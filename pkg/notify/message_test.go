package notify

import (
	"strings"
	"testing"

	goslack "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monkedh/monkedh/pkg/models"
)

func sectionText(t *testing.T, b goslack.Block) string {
	t.Helper()
	section, ok := b.(*goslack.SectionBlock)
	require.True(t, ok, "expected a section block")
	require.NotNil(t, section.Text)
	return section.Text.Text
}

func TestBuildIncidentMessage(t *testing.T) {
	blocks := BuildIncidentMessage(IncidentInput{
		SessionID:        "abc-123",
		FrameNumber:      90,
		UrgencyLevel:     models.UrgencyHigh,
		SeverityIndex:    8.2,
		SceneDescription: "Flames spreading across the kitchen",
		DetectedHazards:  []string{"fire", "smoke"},
	}, "https://dash.example.com")

	require.Len(t, blocks, 2)
	header := sectionText(t, blocks[0])
	assert.Contains(t, header, "Emergency detected")
	assert.Contains(t, header, "frame 90")
	assert.Contains(t, header, "8.2")

	body := sectionText(t, blocks[1])
	assert.Contains(t, body, "fire, smoke")
	assert.Contains(t, body, "https://dash.example.com/sessions/abc-123")
}

func TestBuildSessionCompleteMessage(t *testing.T) {
	blocks := BuildSessionCompleteMessage(SessionCompleteInput{
		SessionID:         "abc-123",
		FramesAnalyzed:    31,
		IncidentCount:     2,
		EmergencyDetected: true,
		MaxSeverity:       9.1,
	}, "")

	require.Len(t, blocks, 2)
	assert.Contains(t, sectionText(t, blocks[0]), "emergency confirmed")
	assert.Contains(t, sectionText(t, blocks[1]), "31 frames analyzed")

	blocks = BuildSessionCompleteMessage(SessionCompleteInput{SessionID: "x"}, "")
	assert.Contains(t, sectionText(t, blocks[0]), "no emergency detected")
}

func TestBuildSessionFailedMessageTruncates(t *testing.T) {
	detail := strings.Repeat("x", maxBlockTextLength+500)
	blocks := BuildSessionFailedMessage("abc-123", detail)
	require.Len(t, blocks, 1)
	text := sectionText(t, blocks[0])
	assert.Contains(t, text, "Analysis failed")
	assert.Less(t, len(text), maxBlockTextLength+200)
}

func TestNilServiceIsNoop(t *testing.T) {
	var s *Service
	assert.NotPanics(t, func() {
		s.NotifyIncident(t.Context(), IncidentInput{})
		s.NotifySessionComplete(t.Context(), SessionCompleteInput{})
		s.NotifySessionFailed(t.Context(), "id", "boom")
	})
}

func TestNewServiceRequiresTokenAndChannel(t *testing.T) {
	assert.Nil(t, NewService(ServiceConfig{Token: "", Channel: "C123"}))
	assert.Nil(t, NewService(ServiceConfig{Token: "xoxb", Channel: ""}))
	assert.NotNil(t, NewService(ServiceConfig{Token: "xoxb", Channel: "C123"}))
}
