package models

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Bubble is the display form of a Message. It is a pure function of the message: the layout depends
// only on the message type and on which metadata fields are present.
type Bubble struct {
	ID        string
	Type      MessageType
	Content   string
	HTML      template.HTML
	Timestamp time.Time
	// Notice marks an error notice, whose text is shown as is.
	Notice bool

	// Lines are the metadata lines shown under the content, in display order.
	Lines []string
}

// Alignment values used by the front ends to place a bubble.
const (
	AlignLeft  = "left"
	AlignRight = "right"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(
		// GFM without its linkify extension: bare URLs in replies stay text.
		extension.Table,
		extension.Strikethrough,
		extension.TaskList,
		highlighting.NewHighlighting(highlighting.WithStyle("github")),
	),
	goldmark.WithRendererOptions(
		html.WithHardWraps(),
	),
)

// RenderMarkdown converts bot text to HTML. Raw HTML in the source is not passed through.
func RenderMarkdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown: %w", err)
	}
	// goldmark escapes raw HTML unless html.WithUnsafe is set, so the output is safe to embed.
	return template.HTML(buf.String()), nil //nolint:gosec
}

// NewBubble builds the display form of msg. Bot replies are rendered as markdown; user content and
// error notices are kept as escaped text.
func NewBubble(msg Message) (Bubble, error) {
	b := Bubble{
		ID:        msg.ID,
		Type:      msg.Type,
		Content:   msg.Content,
		Timestamp: msg.Timestamp,
		Lines:     MetadataLines(msg.Metadata),
		Notice:    msg.IsErrorNotice(),
	}

	if msg.Type != MessageTypeBot || msg.IsErrorNotice() {
		b.HTML = template.HTML(template.HTMLEscapeString(msg.Content)) //nolint:gosec
		return b, nil
	}

	rendered, err := RenderMarkdown(msg.Content)
	if err != nil {
		return Bubble{}, err
	}
	b.HTML = rendered
	return b, nil
}

// IsUser reports whether the bubble belongs to the user.
func (b Bubble) IsUser() bool {
	return b.Type == MessageTypeUser
}

// Align returns AlignRight for user bubbles and AlignLeft for everything else.
func (b Bubble) Align() string {
	if b.IsUser() {
		return AlignRight
	}
	return AlignLeft
}

// MetadataLines returns the display lines for the present metadata fields, in the order tracking
// number, status, claim ID. The email is not displayed.
func MetadataLines(md *Metadata) []string {
	if md.IsEmpty() {
		return nil
	}

	var lines []string
	if md.TrackingNumber != "" {
		lines = append(lines, "Tracking: "+md.TrackingNumber)
	}
	if md.Status != "" {
		lines = append(lines, "Status: "+md.Status)
	}
	if md.ClaimID != "" {
		lines = append(lines, "Claim ID: "+md.ClaimID)
	}
	return lines
}
