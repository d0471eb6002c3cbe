package cli

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	successColor = lipgloss.Color("#A6E3A1")
	warningColor = lipgloss.Color("#F9E2AF")
	errorColor   = lipgloss.Color("#F38BA8")
	mutedColor   = lipgloss.Color("#6C7086")
)

func box(color lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1)
}

// successBox frames a completed step
func successBox(msg string) string {
	return box(successColor).Render(msg)
}

// warningBox frames a hint about a missing earlier step
func warningBox(msg string) string {
	return box(warningColor).Render(msg)
}

// errorBox frames a failure message
func errorBox(msg string) string {
	return box(errorColor).Render(msg)
}

func muted(s string) string {
	return lipgloss.NewStyle().Foreground(mutedColor).Render(s)
}
