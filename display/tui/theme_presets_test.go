package tui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestGetThemePreset(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"monitoring", "monitoring"},
		{"minimal", "minimal"},
		{"high-contrast", "high-contrast"},
		{"MINIMAL", "minimal"},
		{"nonexistent", "monitoring"},
		{"", "monitoring"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetThemePreset(tt.name).Name; got != tt.want {
				t.Errorf("GetThemePreset(%q).Name = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestLookupThemePreset(t *testing.T) {
	if _, ok := LookupThemePreset("full"); ok {
		t.Error("LookupThemePreset(full) should not exist")
	}
	p, ok := LookupThemePreset("minimal")
	if !ok || !p.CompactMode {
		t.Errorf("LookupThemePreset(minimal) = %+v, %v", p, ok)
	}
}

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	want := []string{"monitoring", "minimal", "high-contrast"}
	if len(names) != len(want) {
		t.Fatalf("ThemeNames() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("ThemeNames()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
	names[0] = "mutated"
	if ThemeNames()[0] != "monitoring" {
		t.Error("ThemeNames should return a fresh slice")
	}
}

func TestNewStyles(t *testing.T) {
	mon := newStyles(MonitoringTheme)
	minimal := newStyles(MinimalTheme)

	if mon.activeTab.GetBackground() != MonitoringTheme.Primary {
		t.Errorf("monitoring active tab background = %v", mon.activeTab.GetBackground())
	}
	if minimal.activeTab.GetBackground() != MinimalTheme.Primary {
		t.Errorf("minimal active tab background = %v", minimal.activeTab.GetBackground())
	}
	if !mon.header.GetBorderBottom() {
		t.Error("monitoring header should have a bottom border")
	}
	if minimal.header.GetBorderBottom() {
		t.Error("minimal header should not have a border")
	}
	if mon.content.GetPaddingLeft() != 2 || minimal.content.GetPaddingLeft() != 1 {
		t.Errorf("content padding = %d/%d, want 2/1",
			mon.content.GetPaddingLeft(), minimal.content.GetPaddingLeft())
	}
	if mon.cpu != lipgloss.Color("#F97316") || mon.axis != MonitoringTheme.Muted {
		t.Errorf("chart colors = %v/%v", mon.cpu, mon.axis)
	}
}
