package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sendRecorder struct {
	sent []string
}

func (r *sendRecorder) send(text string) tea.Cmd {
	r.sent = append(r.sent, text)
	return nil
}

func typeText(b InputBox, text string) InputBox {
	for _, r := range text {
		b, _ = b.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return b
}

func TestInputBoxSubmit(t *testing.T) {
	rec := &sendRecorder{}
	b := NewInputBox(rec.send)

	b = typeText(b, "  AB123456789 ")
	assert.Equal(t, "  AB123456789 ", b.Value())

	b, _ = b.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, []string{"AB123456789"}, rec.sent)
	assert.Empty(t, b.Value(), "input must be cleared after a submission")
}

func TestInputBoxIgnoredSubmissions(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		disabled bool
		key      tea.KeyMsg
		wantKept string
	}{
		{
			name: "Empty",
			key:  tea.KeyMsg{Type: tea.KeyEnter},
		},
		{
			name:     "Whitespace only",
			value:    "   ",
			key:      tea.KeyMsg{Type: tea.KeyEnter},
			wantKept: "   ",
		},
		{
			name:     "Disabled",
			value:    "hello",
			disabled: true,
			key:      tea.KeyMsg{Type: tea.KeyEnter},
			wantKept: "hello",
		},
		{
			name:     "Alt+Enter",
			value:    "hello",
			key:      tea.KeyMsg{Type: tea.KeyEnter, Alt: true},
			wantKept: "hello",
		},
		{
			name:     "Pasted newline",
			value:    "hello",
			key:      tea.KeyMsg{Type: tea.KeyEnter, Paste: true},
			wantKept: "hello",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &sendRecorder{}
			b := NewInputBox(rec.send).SetValue(tt.value)
			b, _ = b.SetDisabled(tt.disabled)

			b, cmd := b.Update(tt.key)

			assert.Nil(t, cmd)
			assert.Empty(t, rec.sent)
			assert.Equal(t, tt.wantKept, b.Value())
		})
	}
}

func TestInputBoxOneCallPerConfirm(t *testing.T) {
	rec := &sendRecorder{}
	b := NewInputBox(rec.send)

	b = typeText(b, "first")
	b, _ = b.Update(tea.KeyMsg{Type: tea.KeyEnter})
	b, _ = b.Update(tea.KeyMsg{Type: tea.KeyEnter})
	b = typeText(b, "second")
	_, _ = b.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, []string{"first", "second"}, rec.sent)
}

func TestInputBoxDisabledIgnoresTyping(t *testing.T) {
	b := NewInputBox(nil)
	b, _ = b.SetDisabled(true)
	require.True(t, b.Disabled())

	b = typeText(b, "abc")
	assert.Empty(t, b.Value())

	b, _ = b.SetDisabled(false)
	b = typeText(b, "abc")
	assert.Equal(t, "abc", b.Value())
}

func TestInputBoxReturnsSendCommand(t *testing.T) {
	b := NewInputBox(func(text string) tea.Cmd {
		return func() tea.Msg { return text }
	})
	b = b.SetValue("hello")

	_, cmd := b.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, "hello", cmd())
}
