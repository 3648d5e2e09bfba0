package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// sparkBlocks are the eight block heights, lowest first.
var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// SparklineConfig describes a one-row history sparkline.
type SparklineConfig struct {
	// Values to plot, oldest first.
	Values []float64
	// Width in cells. Only the newest Width values are drawn; fewer values
	// are left-padded. Zero means len(Values).
	Width int
	// Min and Max bound the scale. Both zero selects the 0-100 percent scale.
	Min, Max float64
	// Color of the blocks. Empty leaves them unstyled.
	Color lipgloss.Color
}

// RenderSparkline draws cfg as a single line of block runes.
func RenderSparkline(cfg SparklineConfig) string {
	values := cfg.Values
	if len(values) == 0 {
		return ""
	}

	width := cfg.Width
	if width <= 0 {
		width = len(values)
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	lo, hi := cfg.Min, cfg.Max
	if lo == 0 && hi == 0 {
		hi = 100
	}

	var sb strings.Builder
	sb.Grow(width * 3)
	for _, v := range values {
		sb.WriteRune(sparkBlocks[blockLevel(v, lo, hi, len(sparkBlocks)-1)])
	}
	line := strings.Repeat(" ", width-len(values)) + sb.String()

	if cfg.Color != "" {
		line = lipgloss.NewStyle().Foreground(cfg.Color).Render(line)
	}
	return line
}

// blockLevel maps v in [lo,hi] onto 0..top, clamping outside values.
func blockLevel(v, lo, hi float64, top int) int {
	if hi <= lo {
		return top / 2
	}
	n := (v - lo) / (hi - lo)
	switch {
	case n <= 0:
		return 0
	case n >= 1:
		return top
	}
	return int(n*float64(top) + 0.5)
}
