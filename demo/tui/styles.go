package tui

import "github.com/charmbracelet/lipgloss"

// Palette for the ingestion console
const (
	colorAccent  = "#00A8E8"
	colorOK      = "#2ECC71"
	colorAlert   = "#E74C3C"
	colorMuted   = "#6C6C6C"
	colorText    = "#F5F5F5"
	colorOutline = "#005F87"
)

// Styles for the console views
var (
	TitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(colorText)).
		Background(lipgloss.Color(colorAccent)).
		Padding(0, 1).
		MarginTop(1).
		MarginBottom(1)

	StatusStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(colorOK))

	ErrorStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(colorAlert))

	InfoStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(colorMuted))

	// ImportanceStyle renders the [1..5] score badge in the article list.
	ImportanceStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(colorAccent))

	BoxStyle = lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(colorOutline)).
		Padding(0, 2)

	HighlightStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(colorText)).
		Background(lipgloss.Color(colorOutline)).
		Padding(0, 1)
)
