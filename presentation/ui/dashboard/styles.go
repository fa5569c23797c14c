package dashboard

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

var (
	accent = lipgloss.AdaptiveColor{Light: "#0B7A75", Dark: "#4FD1C5"}
	muted  = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	warn   = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}
)

type styles struct {
	brand   lipgloss.Style
	title   lipgloss.Style
	meta    lipgloss.Style
	warning lipgloss.Style
	pane    lipgloss.Style
	focused lipgloss.Style
	log     lipgloss.Style
}

func defaultStyles() styles {
	pane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(muted).
		Padding(0, 1)
	return styles{
		brand:   lipgloss.NewStyle().Bold(true).Foreground(accent),
		title:   lipgloss.NewStyle().Bold(true),
		meta:    lipgloss.NewStyle().Foreground(muted),
		warning: lipgloss.NewStyle().Foreground(warn),
		pane:    pane,
		focused: pane.BorderForeground(accent),
		log:     lipgloss.NewStyle().Foreground(muted),
	}
}

func tableStyles(focused bool) table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(muted).
		BorderBottom(true).
		Bold(true)
	if focused {
		s.Selected = s.Selected.Foreground(lipgloss.Color("229")).Background(lipgloss.Color("30"))
	} else {
		s.Selected = lipgloss.NewStyle()
	}
	return s
}
