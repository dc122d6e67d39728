package ui

import "github.com/charmbracelet/lipgloss"

// Styles is the shared palette. One instance is built at startup and
// threaded through the screen models.
type Styles struct {
	Title     lipgloss.Style
	Subtle    lipgloss.Style
	Cursor    lipgloss.Style
	Favorite  lipgloss.Style
	Badge     lipgloss.Style
	Notice    lipgloss.Style
	Error     lipgloss.Style
	OwnMsg    lipgloss.Style
	OtherMsg  lipgloss.Style
	ButtonOn  lipgloss.Style
	ButtonOff lipgloss.Style
	Modal     lipgloss.Style
	StatusBar lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		Subtle:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Cursor:    lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true),
		Favorite:  lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		Badge:     lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
		Notice:    lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		OwnMsg:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		OtherMsg:  lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		ButtonOn:  lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("114")).Padding(0, 1),
		ButtonOff: lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(0, 1),
		Modal: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("205")).
			Padding(1, 2),
		StatusBar: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}
