package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// SendFunc receives the trimmed text of one confirmed submission. The returned command, if any, is run
// by the program.
type SendFunc func(text string) tea.Cmd

// InputBox is the single-line message input. It keeps the pending text and calls its SendFunc once per
// Enter press, with the text trimmed, and only when the trimmed text is not empty and the box is enabled.
type InputBox struct {
	input    textinput.Model
	disabled bool
	onSend   SendFunc
}

// InputPlaceholder is shown while the input is empty.
const InputPlaceholder = "Type your message..."

// NewInputBox creates an enabled, focused input box calling onSend on submission.
func NewInputBox(onSend SendFunc) InputBox {
	ti := textinput.New()
	ti.Placeholder = InputPlaceholder
	ti.Prompt = "> "
	ti.CharLimit = 2000
	ti.Focus()

	return InputBox{
		input:  ti,
		onSend: onSend,
	}
}

// SetDisabled enables or disables the box. A disabled box keeps its text but ignores typing and Enter.
func (b InputBox) SetDisabled(disabled bool) (InputBox, tea.Cmd) {
	if b.disabled == disabled {
		return b, nil
	}
	b.disabled = disabled
	if disabled {
		b.input.Blur()
		return b, nil
	}
	return b, b.input.Focus()
}

// Disabled reports whether the box currently ignores input.
func (b InputBox) Disabled() bool {
	return b.disabled
}

// Value returns the pending text, untrimmed.
func (b InputBox) Value() string {
	return b.input.Value()
}

// SetValue replaces the pending text.
func (b InputBox) SetValue(s string) InputBox {
	b.input.SetValue(s)
	return b
}

// SetWidth sets the visible width of the text field.
func (b InputBox) SetWidth(w int) InputBox {
	b.input.Width = w
	return b
}

// Update handles one message. Enter without modifiers submits; pasted newlines and Alt+Enter do not.
func (b InputBox) Update(msg tea.Msg) (InputBox, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEnter {
		if key.Alt || key.Paste {
			return b, nil
		}
		return b.submit()
	}

	if b.disabled {
		return b, nil
	}

	var cmd tea.Cmd
	b.input, cmd = b.input.Update(msg)
	return b, cmd
}

func (b InputBox) submit() (InputBox, tea.Cmd) {
	if b.disabled {
		return b, nil
	}
	text := strings.TrimSpace(b.input.Value())
	if text == "" {
		return b, nil
	}

	b.input.Reset()
	if b.onSend == nil {
		return b, nil
	}
	return b, b.onSend(text)
}

// View renders the box.
func (b InputBox) View() string {
	return b.input.View()
}
