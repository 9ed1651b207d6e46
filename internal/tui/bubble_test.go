package tui

import (
	"strings"
	"testing"

	"github.com/MegaGrindStone/parcel-chat-ui/internal/models"
	"github.com/charmbracelet/glamour"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderBubbleAlignment(t *testing.T) {
	styles := DefaultStyles()

	user := RenderBubble(models.NewUserMessage("hi"), styles, 60, nil)
	bot := RenderBubble(models.NewBotMessage("hello", nil), styles, 60, nil)

	userLine := strings.Split(user, "\n")[0]
	botLine := strings.Split(bot, "\n")[0]

	assert.True(t, strings.HasPrefix(userLine, " "), "user bubble should be pushed right: %q", userLine)
	assert.False(t, strings.HasPrefix(botLine, " "), "bot bubble should start at the left: %q", botLine)
	assert.Contains(t, user, "hi")
	assert.Contains(t, bot, "hello")
}

func TestRenderBubbleMetadata(t *testing.T) {
	tests := []struct {
		name      string
		metadata  *models.Metadata
		wantLines []string
		missing   []string
	}{
		{
			name:    "No metadata",
			missing: []string{"Tracking:", "Status:", "Claim ID:"},
		},
		{
			name:      "Tracking and status",
			metadata:  &models.Metadata{TrackingNumber: "AB123456789", Status: "in transit"},
			wantLines: []string{"Tracking: AB123456789", "Status: in transit"},
			missing:   []string{"Claim ID:"},
		},
		{
			name:      "Claim only",
			metadata:  &models.Metadata{ClaimID: "CLM-1", Email: "me@example.com"},
			wantLines: []string{"Claim ID: CLM-1"},
			missing:   []string{"Tracking:", "me@example.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := RenderBubble(models.NewBotMessage("Here you go", tt.metadata), DefaultStyles(), 100, nil)

			last := -1
			for _, want := range tt.wantLines {
				idx := strings.Index(out, want)
				require.GreaterOrEqual(t, idx, 0, "missing %q in %q", want, out)
				assert.Greater(t, idx, last, "%q out of order", want)
				last = idx
			}
			for _, m := range tt.missing {
				assert.NotContains(t, out, m)
			}
		})
	}
}

func TestRenderBubbleMarkdown(t *testing.T) {
	r, err := glamour.NewTermRenderer(glamour.WithStandardStyle("notty"), glamour.WithWordWrap(40))
	require.NoError(t, err)

	out := RenderBubble(models.NewBotMessage("Your package is **in transit**", nil), DefaultStyles(), 80, r)
	assert.Contains(t, out, "in transit")

	// User text is never treated as markdown.
	out = RenderBubble(models.NewUserMessage("**literal**"), DefaultStyles(), 80, r)
	assert.Contains(t, out, "**literal**")
}

func TestRenderBubbleErrorNotice(t *testing.T) {
	r, err := glamour.NewTermRenderer(glamour.WithStandardStyle("notty"), glamour.WithWordWrap(80))
	require.NoError(t, err)

	msg := models.NewBotMessage("Error: **HTTP 502**", nil)
	require.True(t, msg.IsErrorNotice())

	out := RenderBubble(msg, DefaultStyles(), 100, r)
	assert.Contains(t, out, "Error: **HTTP 502**")
}
