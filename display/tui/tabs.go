package tui

import (
	"fmt"
	"strings"

	"gitlab.com/tinyland/lab/hostpulse/collectors/history"
	"gitlab.com/tinyland/lab/hostpulse/display/widgets"
	"gitlab.com/tinyland/lab/hostpulse/internal/format"
)

// renderUsageTab draws the RAM or CPU tab: timestamp, current value,
// history chart and its summary.
func (m Model) renderUsageTab(t Tab, label string, layout LayoutConfig) string {
	color := m.styles.ram
	if t == TabCPU {
		color = m.styles.cpu
	}

	lines := []string{
		m.styles.title.Render(sectionTitle(t.String(), layout.ChartWidth)),
		m.dateTimeLine(),
	}

	value := "-"
	if m.snap != nil {
		if t == TabCPU {
			value = format.Percent(m.snap.CPU)
		} else {
			value = format.Percent(m.snap.RAM)
		}
	}
	lines = append(lines,
		m.styles.label.Render(label)+" "+value+"  "+widgets.RenderIndicator(m.freshness(t)),
		"",
	)

	values := m.values(t)
	switch {
	case len(values) == 0:
		lines = append(lines, m.styles.muted.Render("no samples yet"))
	case layout.ShowChart:
		lines = append(lines, widgets.RenderChart(widgets.ChartConfig{
			Values:    values,
			Width:     layout.ChartWidth,
			Height:    m.chartHeight(),
			Color:     color,
			AxisColor: m.styles.axis,
		}))
	default:
		lines = append(lines, widgets.RenderSparkline(widgets.SparklineConfig{
			Values: values,
			Width:  layout.ChartWidth,
			Color:  color,
		}))
	}

	if layout.ShowStats && len(values) > 0 {
		st := history.Summarize(values)
		lines = append(lines, m.styles.muted.Render(
			fmt.Sprintf("%s  (%d samples)", format.Stats(st.Min, st.Avg, st.Max), st.Count)))
	}

	if w := m.warning(t); w != "" {
		lines = append(lines, m.styles.err.Render(w))
	}
	return strings.Join(lines, "\n")
}

// renderDiskTab draws the usage gauge and sizes of the monitored mount.
func (m Model) renderDiskTab(layout LayoutConfig) string {
	lines := []string{
		m.styles.title.Render(sectionTitle(TabDisk.String(), layout.ChartWidth)),
		m.dateTimeLine(),
	}
	if m.snap == nil {
		lines = append(lines, "", m.styles.muted.Render("no samples yet"))
		return strings.Join(lines, "\n")
	}

	d := m.snap.Disk
	device := d.Device
	if device == "" {
		device = "unknown"
	}

	gauge := widgets.DefaultGaugeConfig()
	gauge.Percent = float64(d.Percent)
	gauge.Width = layout.GaugeWidth
	gauge.Label = "Usage"

	rows := [][2]string{
		{"Device:", device},
		{"Mount:", d.Mount},
		{"Total:", format.MB(d.TotalMB)},
		{"Used:", format.MB(d.UsedMB)},
		{"Free:", format.MB(d.FreeMB)},
	}

	lines = append(lines, "", widgets.RenderGauge(gauge), "")
	for _, r := range rows {
		lines = append(lines, m.styles.label.Width(8).Render(r[0])+r[1])
	}
	lines = append(lines, "", widgets.RenderIndicator(m.freshness(TabDisk)))

	if w := m.warning(TabDisk); w != "" {
		lines = append(lines, m.styles.err.Render(w))
	}
	return strings.Join(lines, "\n")
}

func (m Model) dateTimeLine() string {
	ts := "-"
	if m.snap != nil {
		ts = format.Timestamp(m.snap.Timestamp)
	}
	return m.styles.label.Render("Date/Time:") + " " + ts
}

// warning returns this tick's warning for the metric shown on t.
func (m Model) warning(t Tab) string {
	if m.snap == nil {
		return ""
	}
	prefix := strings.ToLower(t.String()) + ": "
	for _, w := range m.snap.Warnings {
		if strings.HasPrefix(w, prefix) {
			return w
		}
	}
	return ""
}
