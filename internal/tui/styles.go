package tui

import "github.com/charmbracelet/lipgloss"

// Styles
var (
	baseFg    = lipgloss.Color("#E6E6E6")
	baseDimFg = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#6B7280"}
	accentFg  = lipgloss.Color("#7C3AED")
	errorFg   = lipgloss.Color("#F87171")
	borderCol = lipgloss.Color("#243141")
	dragBg    = lipgloss.Color("#3B2A63")
	selectBg  = lipgloss.Color("#1E293B")

	appStyle    = lipgloss.NewStyle().Foreground(baseFg)
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(borderCol).Padding(0, 1)
	titleStyle  = lipgloss.NewStyle().Foreground(accentFg).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(baseDimFg)
	errStyle    = lipgloss.NewStyle().Foreground(errorFg)
	dragStyle   = lipgloss.NewStyle().Background(dragBg)
	selectStyle = lipgloss.NewStyle().Background(selectBg)
)
