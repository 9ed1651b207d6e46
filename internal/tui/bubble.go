package tui

import (
	"strings"

	"github.com/MegaGrindStone/parcel-chat-ui/internal/models"
	"github.com/charmbracelet/lipgloss"
)

// MarkdownRenderer turns bot markdown into terminal text. *glamour.TermRenderer satisfies it.
type MarkdownRenderer interface {
	Render(in string) (string, error)
}

// bubbleWidth is the widest a bubble may grow in a terminal of the given width.
func bubbleWidth(width int) int {
	w := width * 3 / 4
	if w < 20 {
		w = 20
	}
	return w
}

// RenderBubble renders msg as a chat bubble placed in a row of the given width: user messages on the
// right, bot messages on the left. Metadata lines follow the content in the order tracking number,
// status, claim ID. When md is nil, or fails, bot content is shown as plain text, and error notices are
// always shown as plain text.
func RenderBubble(msg models.Message, styles Styles, width int, md MarkdownRenderer) string {
	content := msg.Content
	if msg.Type == models.MessageTypeBot && !msg.IsErrorNotice() && md != nil {
		if rendered, err := md.Render(content); err == nil {
			content = trimRendered(rendered)
		}
	}

	body := content
	if lines := models.MetadataLines(msg.Metadata); len(lines) > 0 {
		body += "\n" + styles.Metadata.Render(strings.Join(lines, "\n"))
	}

	style := styles.BotBubble
	align := lipgloss.Left
	if msg.Type == models.MessageTypeUser {
		style = styles.UserBubble
		align = lipgloss.Right
	}

	inner := lipgloss.Width(body)
	if limit := bubbleWidth(width) - style.GetHorizontalFrameSize(); inner > limit {
		inner = limit
	}
	bubble := style.Width(inner + style.GetHorizontalPadding()).Render(body)

	return lipgloss.PlaceHorizontal(width, align, bubble)
}

// trimRendered drops the blank margin lines and trailing padding glamour adds around a document.
func trimRendered(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return strings.Trim(strings.Join(lines, "\n"), "\n")
}
