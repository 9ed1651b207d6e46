package tui

import "github.com/charmbracelet/lipgloss"

// Theme holds the colors used by the terminal chat.
type Theme struct {
	Primary    lipgloss.Color
	Muted      lipgloss.Color
	UserBubble lipgloss.Color
	UserText   lipgloss.Color
	BotBorder  lipgloss.Color
	Metadata   lipgloss.Color
}

// Styles holds all the styled components of the terminal chat.
type Styles struct {
	Theme Theme

	Header   lipgloss.Style
	Subtitle lipgloss.Style
	Hint     lipgloss.Style
	Muted    lipgloss.Style

	UserBubble lipgloss.Style
	BotBubble  lipgloss.Style
	Metadata   lipgloss.Style

	Input   lipgloss.Style
	Spinner lipgloss.Style
}

// DefaultTheme mirrors the palette of the web page.
func DefaultTheme() Theme {
	return Theme{
		Primary:    lipgloss.Color("#2563eb"),
		Muted:      lipgloss.Color("#6b7280"),
		UserBubble: lipgloss.Color("#2563eb"),
		UserText:   lipgloss.Color("#ffffff"),
		BotBorder:  lipgloss.Color("#d1d5db"),
		Metadata:   lipgloss.Color("#9ca3af"),
	}
}

// NewStyles creates a new Styles instance with the given theme
func NewStyles(theme Theme) Styles {
	return Styles{
		Theme: theme,

		Header: lipgloss.NewStyle().
			Background(theme.Primary).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 2).
			Bold(true),

		Subtitle: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 2),

		Hint: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Italic(true),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		UserBubble: lipgloss.NewStyle().
			Background(theme.UserBubble).
			Foreground(theme.UserText).
			Padding(0, 1),

		BotBubble: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.BotBorder).
			Padding(0, 1),

		Metadata: lipgloss.NewStyle().
			Foreground(theme.Metadata),

		Input: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(theme.BotBorder),

		Spinner: lipgloss.NewStyle().
			Foreground(theme.Primary),
	}
}

// DefaultStyles returns the styles built from DefaultTheme.
func DefaultStyles() Styles {
	return NewStyles(DefaultTheme())
}
