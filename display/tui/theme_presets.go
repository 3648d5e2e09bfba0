package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ThemePreset is a named color scheme plus the layout switches that go with
// it. Select one with the display.theme config key.
type ThemePreset struct {
	Name        string
	Description string

	Primary   lipgloss.Color // active tab background
	Secondary lipgloss.Color // section titles
	CPU       lipgloss.Color // CPU chart
	RAM       lipgloss.Color // RAM chart
	Muted     lipgloss.Color // axes, footer, inactive tabs
	Danger    lipgloss.Color // error line

	ShowBorders bool
	CompactMode bool
}

var (
	// MonitoringTheme is the default dark theme.
	MonitoringTheme = ThemePreset{
		Name:        "monitoring",
		Description: "Dark theme for status monitoring",
		Primary:     lipgloss.Color("#7C3AED"),
		Secondary:   lipgloss.Color("#06B6D4"),
		CPU:         lipgloss.Color("#F97316"),
		RAM:         lipgloss.Color("#3B82F6"),
		Muted:       lipgloss.Color("#6B7280"),
		Danger:      lipgloss.Color("#EF4444"),
		ShowBorders: true,
	}

	// MinimalTheme drops borders and padding.
	MinimalTheme = ThemePreset{
		Name:        "minimal",
		Description: "Clean minimal theme",
		Primary:     lipgloss.Color("#8B5CF6"),
		Secondary:   lipgloss.Color("#67E8F9"),
		CPU:         lipgloss.Color("#FDBA74"),
		RAM:         lipgloss.Color("#93C5FD"),
		Muted:       lipgloss.Color("#9CA3AF"),
		Danger:      lipgloss.Color("#F87171"),
		CompactMode: true,
	}

	// HighContrastTheme uses the basic ANSI palette, for terminals without
	// true color.
	HighContrastTheme = ThemePreset{
		Name:        "high-contrast",
		Description: "Basic ANSI colors",
		Primary:     lipgloss.Color("5"),
		Secondary:   lipgloss.Color("6"),
		CPU:         lipgloss.Color("3"),
		RAM:         lipgloss.Color("4"),
		Muted:       lipgloss.Color("7"),
		Danger:      lipgloss.Color("1"),
		ShowBorders: true,
	}
)

var allPresets = []ThemePreset{MonitoringTheme, MinimalTheme, HighContrastTheme}

// LookupThemePreset finds a preset by case-insensitive name.
func LookupThemePreset(name string) (ThemePreset, bool) {
	for _, p := range allPresets {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return ThemePreset{}, false
}

// GetThemePreset returns the named preset, or MonitoringTheme for unknown
// names.
func GetThemePreset(name string) ThemePreset {
	if p, ok := LookupThemePreset(name); ok {
		return p
	}
	return MonitoringTheme
}

// ThemeNames lists the preset names in display order.
func ThemeNames() []string {
	names := make([]string, len(allPresets))
	for i, p := range allPresets {
		names[i] = p.Name
	}
	return names
}
