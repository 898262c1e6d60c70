package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	phaseStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	failureStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("246")).PaddingLeft(2)
	attemptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
)
