package outcome

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title   lipgloss.Style
	header  lipgloss.Style
	domain  lipgloss.Style
	detail  lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	warning lipgloss.Style
	section lipgloss.Style
	empty   lipgloss.Style
	item    lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:   lipgloss.NewStyle().Bold(true),
		header:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		domain:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		detail:  lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		success: lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
		failure: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		warning: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		section: lipgloss.NewStyle().MarginTop(1),
		empty:   lipgloss.NewStyle().Faint(true),
		item:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")).PaddingLeft(2),
	}
}
