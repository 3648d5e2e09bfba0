package widgets

import "github.com/charmbracelet/lipgloss"

// Freshness says how current a displayed metric is.
type Freshness int

const (
	// Live means the value came from this tick.
	Live Freshness = iota
	// Stale means this tick failed and the last good value is shown.
	Stale
	// WarmingUp means no value has been computed yet.
	WarmingUp
	// Offline means no sampler is publishing.
	Offline
)

var freshnessText = map[Freshness]string{
	Live:      "live",
	Stale:     "stale",
	WarmingUp: "warming up",
	Offline:   "offline",
}

var freshnessColor = map[Freshness]lipgloss.Color{
	Live:      lipgloss.Color("#22C55E"),
	Stale:     lipgloss.Color("#EAB308"),
	WarmingUp: lipgloss.Color("#3B82F6"),
	Offline:   lipgloss.Color("#6B7280"),
}

func (f Freshness) String() string {
	if s, ok := freshnessText[f]; ok {
		return s
	}
	return "unknown"
}

// RenderIndicator draws a colored dot followed by the state name. Offline
// uses a hollow dot.
func RenderIndicator(f Freshness) string {
	icon := "●"
	if f == Offline {
		icon = "○"
	}
	style := lipgloss.NewStyle().Foreground(freshnessColor[f])
	return style.Render(icon) + " " + f.String()
}
