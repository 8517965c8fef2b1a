// Package tui provides an interactive environment browser for devenv.
package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette shared with the CLI output colors.
var (
	ColorPrimary   = lipgloss.Color("#7C3AED")
	ColorSecondary = lipgloss.Color("#06B6D4")
	ColorSuccess   = lipgloss.Color("#10B981")
	ColorWarning   = lipgloss.Color("#F59E0B")
	ColorError     = lipgloss.Color("#EF4444")
	ColorMuted     = lipgloss.Color("#6B7280")
	ColorText      = lipgloss.Color("#F3F4F6")
	ColorBg        = lipgloss.Color("#1F2937")
	ColorBgAlt     = lipgloss.Color("#374151")
)

// Version status labels
const (
	StatusCurrent     = "current"
	StatusInstalled   = "installed"
	StatusAvailable   = "available"
	StatusUnsupported = "unsupported"
)

// StatusColors maps a version status to its badge color.
var StatusColors = map[string]lipgloss.Color{
	StatusCurrent:     ColorSuccess,
	StatusInstalled:   ColorSecondary,
	StatusAvailable:   ColorMuted,
	StatusUnsupported: ColorWarning,
}

// Styles holds the lipgloss styles of every view.
type Styles struct {
	// Bars
	Header lipgloss.Style
	TabBar lipgloss.Style
	Footer lipgloss.Style

	TabActive   lipgloss.Style
	TabInactive lipgloss.Style

	Title       lipgloss.Style
	Description lipgloss.Style

	// Rows
	Cursor lipgloss.Style
	Gutter lipgloss.Style

	EnvName    lipgloss.Style
	EnvVersion lipgloss.Style
	EnvPath    lipgloss.Style
	EnvDesc    lipgloss.Style

	// Status
	Success lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style
	Spinner lipgloss.Style

	InputPrompt lipgloss.Style

	HelpKey  lipgloss.Style
	HelpDesc lipgloss.Style
	HelpSep  lipgloss.Style

	// Confirmation dialog
	Dialog       lipgloss.Style
	DialogTitle  lipgloss.Style
	DialogButton lipgloss.Style
	DialogCancel lipgloss.Style
}

// DefaultStyles returns the default style configuration
func DefaultStyles() *Styles {
	s := &Styles{}

	s.Header = lipgloss.NewStyle().
		Foreground(ColorText).
		Background(ColorBgAlt).
		Padding(0, 1).
		Bold(true)

	s.TabBar = lipgloss.NewStyle().
		Background(ColorBgAlt).
		Padding(0, 1)

	s.Footer = lipgloss.NewStyle().
		Foreground(ColorMuted).
		Background(ColorBgAlt).
		Padding(0, 1)

	tab := lipgloss.NewStyle().Padding(0, 2)
	s.TabActive = tab.
		Foreground(ColorPrimary).
		Bold(true).
		Underline(true)
	s.TabInactive = tab.
		Foreground(ColorMuted)

	s.Title = lipgloss.NewStyle().
		Foreground(ColorText).
		Bold(true).
		MarginBottom(1)

	s.Description = lipgloss.NewStyle().
		Foreground(ColorMuted)

	s.Cursor = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true).
		SetString("> ")
	s.Gutter = lipgloss.NewStyle().
		SetString("  ")

	s.EnvName = lipgloss.NewStyle().
		Foreground(ColorText).
		Bold(true)

	s.EnvVersion = lipgloss.NewStyle().
		Foreground(ColorSuccess)

	s.EnvPath = lipgloss.NewStyle().
		Foreground(ColorSecondary).
		Italic(true)

	s.EnvDesc = lipgloss.NewStyle().
		Foreground(ColorMuted)

	s.Success = lipgloss.NewStyle().
		Foreground(ColorSuccess).
		Bold(true)

	s.Error = lipgloss.NewStyle().
		Foreground(ColorError).
		Bold(true)

	s.Info = lipgloss.NewStyle().
		Foreground(ColorSecondary)

	s.Spinner = lipgloss.NewStyle().
		Foreground(ColorPrimary)

	s.InputPrompt = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true)

	s.HelpKey = lipgloss.NewStyle().
		Foreground(ColorSecondary).
		Bold(true)
	s.HelpDesc = lipgloss.NewStyle().
		Foreground(ColorMuted)
	s.HelpSep = lipgloss.NewStyle().
		Foreground(ColorMuted).
		SetString(" - ")

	s.Dialog = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorPrimary).
		Padding(1, 2).
		Width(60)

	s.DialogTitle = lipgloss.NewStyle().
		Foreground(ColorText).
		Bold(true).
		MarginBottom(1)

	s.DialogButton = lipgloss.NewStyle().
		Foreground(ColorText).
		Background(ColorPrimary).
		Padding(0, 2).
		MarginRight(1)

	s.DialogCancel = lipgloss.NewStyle().
		Foreground(ColorMuted)

	return s
}

// StatusBadge renders status as a colored label.
func StatusBadge(status string) string {
	color, ok := StatusColors[status]
	if !ok {
		color = ColorMuted
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(color).
		Padding(0, 1).
		Render(status)
}
