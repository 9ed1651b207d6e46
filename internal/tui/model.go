// Package tui is the terminal front end of the chat: the same conversation as the web page, drawn with
// bubbletea.
package tui

import (
	"context"
	"log/slog"
	"strings"

	"github.com/MegaGrindStone/parcel-chat-ui/internal/chat"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// Model is the bubbletea model of one terminal conversation.
type Model struct {
	ctrl *chat.Controller

	input    InputBox
	viewport viewport.Model
	spinner  spinner.Model
	styles   Styles

	markdownStyle string
	renderer      MarkdownRenderer

	width  int
	height int

	logger *slog.Logger
}

// Option configures a Model.
type Option func(*Model)

type startedMsg struct{}

type replyMsg struct{}

const (
	title    = "Package Tracking Assistant"
	subtitle = "Track your packages and file claims"
	hint     = "Sample tracking numbers: AB123456789 (in transit), CD555666777 (lost), XY987654321 (delivered)"

	initializing = "Initializing chat..."
	typing       = "Assistant is typing..."

	// header, subtitle, status, input border, input, hint
	chromeHeight = 6
)

// WithStyles replaces the default styles.
func WithStyles(s Styles) Option {
	return func(m *Model) {
		m.styles = s
	}
}

// WithMarkdownStyle selects a glamour standard style such as "dark", "light" or "notty". The default
// detects the terminal background.
func WithMarkdownStyle(name string) Option {
	return func(m *Model) {
		m.markdownStyle = name
	}
}

// WithLogger sets the logger. Output must not go to the terminal the program draws on.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Model) {
		m.logger = logger
	}
}

// NewModel creates the model for ctrl. The chat is started by the command returned from Init.
func NewModel(ctrl *chat.Controller, opts ...Option) Model {
	m := Model{
		ctrl:     ctrl,
		viewport: viewport.New(80, 20),
		styles:   DefaultStyles(),
		width:    80,
		height:   20 + chromeHeight,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.logger = m.logger.With(slog.String("module", "tui"))

	m.spinner = spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(m.styles.Spinner))
	m.input = NewInputBox(func(text string) tea.Cmd {
		turn, ok := ctrl.Send(text)
		if !ok {
			return nil
		}
		return resolve(turn)
	})
	// Nothing is accepted until the chat has started.
	m.input, _ = m.input.SetDisabled(true)
	m.renderer = m.newRenderer()

	return m
}

func resolve(turn chat.Turn) tea.Cmd {
	return func() tea.Msg {
		turn.Resolve(context.Background())
		return replyMsg{}
	}
}

// Init starts the chat and the typing indicator.
func (m Model) Init() tea.Cmd {
	ctrl := m.ctrl
	start := func() tea.Msg {
		ctrl.Start(context.Background())
		return startedMsg{}
	}
	return tea.Batch(start, m.spinner.Tick, textinput.Blink)
}

// Update handles one message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m = m.resize(msg.Width, msg.Height)
		return m.refresh()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case startedMsg:
		m.logger.Debug("Chat started", slog.String("sessionID", m.ctrl.SessionID()))
		return m.refresh()

	case replyMsg:
		return m.refresh()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)

	// A submission appends the user message right away.
	m, refreshCmd := m.refresh()
	return m, tea.Batch(inputCmd, refreshCmd)
}

// View renders the whole screen.
func (m Model) View() string {
	status := ""
	if m.ctrl.Loading() && len(m.ctrl.Messages()) > 0 {
		status = m.spinner.View() + " " + m.styles.Muted.Render(typing)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.styles.Header.Render(title),
		m.styles.Subtitle.Render(subtitle),
		m.viewport.View(),
		status,
		m.styles.Input.Render(m.input.View()),
		m.styles.Hint.Render(hint),
	)
}

func (m Model) refresh() (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.input, cmd = m.input.SetDisabled(!m.ctrl.Ready())

	m.viewport.SetContent(m.renderMessages())
	m.viewport.GotoBottom()
	return m, cmd
}

func (m Model) renderMessages() string {
	msgs := m.ctrl.Messages()
	if len(msgs) == 0 {
		return m.styles.Muted.Render(initializing)
	}

	rendered := make([]string, len(msgs))
	for i, msg := range msgs {
		rendered[i] = RenderBubble(msg, m.styles, m.viewport.Width, m.renderer)
	}
	return strings.Join(rendered, "\n")
}

func (m Model) resize(width, height int) Model {
	m.width, m.height = width, height

	m.viewport.Width = width
	m.viewport.Height = max(height-chromeHeight, 3)
	m.input = m.input.SetWidth(max(width-4, 10))
	m.renderer = m.newRenderer()
	return m
}

func (m Model) newRenderer() MarkdownRenderer {
	style := glamour.WithAutoStyle()
	if m.markdownStyle != "" {
		style = glamour.WithStandardStyle(m.markdownStyle)
	}

	wrap := bubbleWidth(m.width) - m.styles.BotBubble.GetHorizontalFrameSize()
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(wrap))
	if err != nil {
		m.logger.Warn("Markdown rendering disabled", slog.String("err", err.Error()))
		return nil
	}
	return r
}
