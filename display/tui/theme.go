package tui

import "github.com/charmbracelet/lipgloss"

// styles is the resolved set of lipgloss styles for one ThemePreset.
type styles struct {
	activeTab   lipgloss.Style
	inactiveTab lipgloss.Style
	header      lipgloss.Style
	footer      lipgloss.Style
	content     lipgloss.Style
	title       lipgloss.Style
	label       lipgloss.Style
	muted       lipgloss.Style
	err         lipgloss.Style

	cpu  lipgloss.Color
	ram  lipgloss.Color
	axis lipgloss.Color
}

func newStyles(p ThemePreset) styles {
	s := styles{
		activeTab: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(p.Primary).
			Padding(0, 2),
		inactiveTab: lipgloss.NewStyle().
			Foreground(p.Muted).
			Padding(0, 2),
		header: lipgloss.NewStyle().
			MarginBottom(1),
		footer: lipgloss.NewStyle().
			Foreground(p.Muted).
			MarginTop(1),
		content: lipgloss.NewStyle().
			Padding(1, 2),
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Secondary),
		label: lipgloss.NewStyle().
			Bold(true),
		muted: lipgloss.NewStyle().
			Foreground(p.Muted),
		err: lipgloss.NewStyle().
			Foreground(p.Danger),
		cpu:  p.CPU,
		ram:  p.RAM,
		axis: p.Muted,
	}

	if p.ShowBorders {
		s.header = s.header.
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(p.Muted)
	}
	if p.CompactMode {
		s.content = lipgloss.NewStyle().Padding(0, 1)
	}
	return s
}
