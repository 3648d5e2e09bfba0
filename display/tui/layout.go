package tui

import (
	"strings"

	"gitlab.com/tinyland/lab/hostpulse/internal/format"
)

// LayoutSize represents a responsive breakpoint for terminal width.
type LayoutSize int

const (
	// LayoutCompact is used for terminals narrower than 60 characters.
	LayoutCompact LayoutSize = iota
	// LayoutNormal is used for terminals between 60 and 120 characters wide.
	LayoutNormal
	// LayoutWide is used for terminals wider than 120 characters.
	LayoutWide
)

// DetectLayout returns the appropriate LayoutSize for the given terminal width.
func DetectLayout(width int) LayoutSize {
	switch {
	case width < 60:
		return LayoutCompact
	case width <= 120:
		return LayoutNormal
	default:
		return LayoutWide
	}
}

// LayoutConfig holds responsive layout values that adapt to terminal width.
type LayoutConfig struct {
	// GaugeWidth is the character width of the disk gauge bar.
	GaugeWidth int
	// ChartWidth is the width available to the history chart, y labels included.
	ChartWidth int
	// ShowChart selects the multi-row chart; otherwise a one-row sparkline
	// is drawn.
	ShowChart bool
	// ShowStats controls the min/avg/max caption under the chart.
	ShowStats bool
}

// LayoutForSize returns a LayoutConfig appropriate for the given size and width.
func LayoutForSize(size LayoutSize, width int) LayoutConfig {
	switch size {
	case LayoutCompact:
		return LayoutConfig{
			GaugeWidth: 10,
			ChartWidth: max(width-4, 1),
			ShowChart:  false,
			ShowStats:  false,
		}
	case LayoutWide:
		return LayoutConfig{
			GaugeWidth: 40,
			ChartWidth: width - 8,
			ShowChart:  true,
			ShowStats:  true,
		}
	default: // LayoutNormal
		return LayoutConfig{
			GaugeWidth: 20,
			ChartWidth: width - 6,
			ShowChart:  true,
			ShowStats:  true,
		}
	}
}

// truncateText is a convenience wrapper for format.TruncateWithEllipsis.
func truncateText(s string, maxWidth int) string {
	return format.TruncateWithEllipsis(s, maxWidth)
}

// sectionTitle renders a centered title with horizontal rules on either side.
// Format: "---- Title ----"
func sectionTitle(title string, width int) string {
	if width <= 0 {
		return title
	}

	titleLen := len([]rune(title))
	// 2 spaces around the title text.
	decorLen := titleLen + 2
	if decorLen >= width {
		return title
	}

	remaining := width - decorLen
	leftLen := remaining / 2
	rightLen := remaining - leftLen

	left := strings.Repeat("─", leftLen)
	right := strings.Repeat("─", rightLen)

	return left + " " + title + " " + right
}
