package widgets

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Gauge colors by usage band.
var (
	gaugeOK      = lipgloss.Color("#22C55E")
	gaugeWarning = lipgloss.Color("#EAB308")
	gaugeDanger  = lipgloss.Color("#EF4444")
)

// GaugeConfig describes a horizontal usage bar.
type GaugeConfig struct {
	// Percent is the usage to show; values outside 0-100 are clamped.
	Percent float64
	// Width of the bar in cells, excluding label and percentage.
	Width int
	// Label is drawn before the bar.
	Label string
	// ShowPercent appends the value, e.g. " 75%".
	ShowPercent bool
	// Warning and Danger are the percentages where the bar turns yellow and
	// red. Zero selects 70 and 90.
	Warning, Danger float64
	// Plain disables color, for non-terminal output.
	Plain bool
}

// DefaultGaugeConfig returns a 20-cell bar with the percentage shown.
func DefaultGaugeConfig() GaugeConfig {
	return GaugeConfig{Width: 20, ShowPercent: true, Warning: 70, Danger: 90}
}

// GaugeColor returns the band color for percent.
func GaugeColor(percent, warning, danger float64) lipgloss.Color {
	if warning == 0 {
		warning = 70
	}
	if danger == 0 {
		danger = 90
	}
	switch {
	case percent >= danger:
		return gaugeDanger
	case percent >= warning:
		return gaugeWarning
	default:
		return gaugeOK
	}
}

// RenderGauge draws [Label ]████░░░░[ NN%].
func RenderGauge(cfg GaugeConfig) string {
	pct := math.Max(0, math.Min(100, cfg.Percent))
	width := cfg.Width
	if width <= 0 {
		width = 20
	}

	filled := int(math.Round(pct / 100 * float64(width)))
	bar := strings.Repeat("█", filled)
	if !cfg.Plain {
		bar = lipgloss.NewStyle().Foreground(GaugeColor(pct, cfg.Warning, cfg.Danger)).Render(bar)
	}
	bar += strings.Repeat("░", width-filled)

	if cfg.Label != "" {
		bar = cfg.Label + " " + bar
	}
	if cfg.ShowPercent {
		bar += fmt.Sprintf(" %3.0f%%", pct)
	}
	return bar
}
