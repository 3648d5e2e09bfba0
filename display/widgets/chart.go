package widgets

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	chartAxisWidth = 4 // "100┤"
	minChartWidth  = chartAxisWidth + 2
	minChartHeight = 3
)

// ChartConfig describes a usage history chart. The y axis is fixed to 0-100
// and the x axis spans [0, len(Values)] across the plot width.
type ChartConfig struct {
	// Values to plot, oldest first.
	Values []float64
	// Width is the total width including the y axis labels.
	Width int
	// Height is the number of plot rows, excluding the two x axis rows.
	Height int
	// Color of the plotted area.
	Color lipgloss.Color
	// AxisColor of the axes and labels.
	AxisColor lipgloss.Color
}

// RenderChart draws cfg as Height+2 lines: the plot rows with y labels, the x
// axis line and the x labels.
func RenderChart(cfg ChartConfig) string {
	width := max(cfg.Width, minChartWidth)
	height := max(cfg.Height, minChartHeight)
	plotW := width - chartAxisWidth

	axis := lipgloss.NewStyle()
	if cfg.AxisColor != "" {
		axis = axis.Foreground(cfg.AxisColor)
	}
	area := lipgloss.NewStyle()
	if cfg.Color != "" {
		area = area.Foreground(cfg.Color)
	}

	cols := resample(cfg.Values, plotW)
	lines := make([]string, 0, height+2)

	for row := 0; row < height; row++ {
		floor := (height - 1 - row) * 8
		var sb strings.Builder
		for _, v := range cols {
			fill := int(v/100*float64(height*8)+0.5) - floor
			switch {
			case fill <= 0:
				sb.WriteByte(' ')
			case fill >= 8:
				sb.WriteRune(sparkBlocks[7])
			default:
				sb.WriteRune(sparkBlocks[fill-1])
			}
		}
		plot := sb.String() + strings.Repeat(" ", plotW-len(cols))
		lines = append(lines, axis.Render(yLabel(row, height))+area.Render(plot))
	}

	lines = append(lines, axis.Render("   └"+strings.Repeat("─", plotW)))

	count := strconv.Itoa(len(cfg.Values))
	gap := max(plotW-1-len(count), 1)
	lines = append(lines, axis.Render("    0"+strings.Repeat(" ", gap)+count))

	return strings.Join(lines, "\n")
}

// yLabel returns the 4-cell axis prefix for a plot row.
func yLabel(row, height int) string {
	switch {
	case row == 0:
		return "100┤"
	case row == height-1:
		return "  0┤"
	case row == height/2 && height >= 5:
		return fmt.Sprintf("%3d┤", 50)
	default:
		return "   │"
	}
}

// resample maps values onto n columns spanning the whole series, averaging
// the samples that fall into each column. It returns nil for no values.
func resample(values []float64, n int) []float64 {
	if len(values) == 0 || n <= 0 {
		return nil
	}
	out := make([]float64, n)
	for c := 0; c < n; c++ {
		start := c * len(values) / n
		end := max((c+1)*len(values)/n, start+1)
		var sum float64
		for _, v := range values[start:end] {
			sum += v
		}
		out[c] = sum / float64(end-start)
	}
	return out
}
