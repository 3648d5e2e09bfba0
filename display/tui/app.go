// Package tui is the hostpulse terminal UI: RAM, CPU and Disk tabs drawn from
// sampler snapshots, fed either live from the runner or from the published
// cache snapshot.
package tui

import (
	"context"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"gitlab.com/tinyland/lab/hostpulse/cache"
	"gitlab.com/tinyland/lab/hostpulse/collectors/history"
	"gitlab.com/tinyland/lab/hostpulse/collectors/sysmetrics"
	"gitlab.com/tinyland/lab/hostpulse/display/widgets"
	"gitlab.com/tinyland/lab/hostpulse/internal/format"
)

// Tab identifies which tab is currently active.
type Tab int

const (
	TabRAM Tab = iota
	TabCPU
	TabDisk
	tabCount // sentinel for wrapping
)

// tabNames maps each Tab value to its display label.
var tabNames = map[Tab]string{
	TabRAM:  "RAM",
	TabCPU:  "CPU",
	TabDisk: "Disk",
}

func (t Tab) String() string { return tabNames[t] }

const (
	defaultChartHeight = 12
	defaultAttachEvery = time.Second
	defaultHistorySize = 1000
)

// Options configures a Model.
type Options struct {
	// StartTab is the tab shown first.
	StartTab Tab

	// ChartHeight is the preferred number of chart rows. The chart shrinks
	// on short terminals.
	ChartHeight int

	// Theme selects colors. The zero value means MonitoringTheme.
	Theme ThemePreset

	// Attach, when set, makes the Model poll the snapshot published in this
	// store instead of waiting for pushed SnapshotMsgs.
	Attach *cache.Store

	// AttachEvery is the cache poll interval. A snapshot older than three
	// of its publisher's intervals is shown as offline; AttachEvery stands in
	// when the snapshot carries no interval.
	AttachEvery time.Duration

	// HistorySize bounds the history kept locally when snapshots arrive
	// without their histories.
	HistorySize int

	// LoadHost fills the header. Nil leaves the header generic.
	LoadHost func(context.Context) (sysmetrics.HostInfo, error)
}

// Model is the top-level Bubbletea model for the hostpulse TUI.
type Model struct {
	opts       Options
	styles     styles
	help       help.Model
	zones      *zone.Manager
	zonePrefix string

	activeTab Tab
	width     int
	height    int
	ready     bool

	snap    *sysmetrics.Snapshot
	lastErr error
	offline bool
	closed  bool
	host    *sysmetrics.HostInfo

	// Local histories, used when snapshots carry none.
	cpuLocal  *history.Series
	ramLocal  *history.Series
	lastRunID string
	lastSeq   uint64
}

// NewModel returns an initialized Model showing opts.StartTab.
func NewModel(opts Options) Model {
	if opts.ChartHeight < 3 {
		opts.ChartHeight = defaultChartHeight
	}
	if opts.AttachEvery <= 0 {
		opts.AttachEvery = defaultAttachEvery
	}
	if opts.HistorySize < 1 {
		opts.HistorySize = defaultHistorySize
	}
	if opts.Theme.Name == "" {
		opts.Theme = MonitoringTheme
	}
	if opts.StartTab < 0 || opts.StartTab >= tabCount {
		opts.StartTab = TabRAM
	}

	zones := zone.New()
	return Model{
		opts:       opts,
		styles:     newStyles(opts.Theme),
		help:       help.New(),
		zones:      zones,
		zonePrefix: zones.NewPrefix(),
		activeTab:  opts.StartTab,
		cpuLocal:   history.NewSeries("cpu", opts.HistorySize),
		ramLocal:   history.NewSeries("ram", opts.HistorySize),
	}
}

// Close stops the mouse zone worker.
func (m Model) Close() {
	m.zones.Close()
}

// Init implements tea.Model. It loads host info and, in attach mode, starts
// polling the cache.
func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.opts.LoadHost != nil {
		cmds = append(cmds, loadHostCmd(m.opts.LoadHost))
	}
	if m.opts.Attach != nil {
		cmds = append(cmds, m.fetch(), attachTickCmd(m.opts.AttachEvery))
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.NextTab):
			m.activeTab = (m.activeTab + 1) % tabCount
		case key.Matches(msg, keys.PrevTab):
			m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
		case key.Matches(msg, keys.Tab1):
			m.activeTab = TabRAM
		case key.Matches(msg, keys.Tab2):
			m.activeTab = TabCPU
		case key.Matches(msg, keys.Tab3):
			m.activeTab = TabDisk
		case key.Matches(msg, keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, keys.Refresh):
			if m.opts.Attach != nil {
				return m, m.fetch()
			}
		}

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionRelease && msg.Button == tea.MouseButtonLeft {
			if t, ok := m.tabAt(msg); ok {
				m.activeTab = t
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true

	case SnapshotMsg:
		m.applySnapshot(msg)

	case SourceClosedMsg:
		m.closed = true

	case attachTickMsg:
		return m, tea.Batch(m.fetch(), attachTickCmd(m.opts.AttachEvery))

	case hostInfoMsg:
		if msg.err == nil {
			info := msg.info
			m.host = &info
		}
	}

	return m, nil
}

func (m Model) fetch() tea.Cmd {
	return fetchSnapshotCmd(m.opts.Attach, cache.StaleAfterTicks*m.opts.AttachEvery)
}

// applySnapshot records a snapshot, or the error that replaced it. When a
// snapshot carries no histories, its current values are appended to the
// local series once per sampler tick.
func (m *Model) applySnapshot(msg SnapshotMsg) {
	m.offline = msg.Offline
	if msg.Err != nil {
		m.lastErr = msg.Err
		return
	}
	m.lastErr = nil
	snap := msg.Snapshot
	if snap == nil {
		return
	}
	m.snap = snap

	if len(snap.CPUHistory) > 0 || len(snap.RAMHistory) > 0 || msg.Offline {
		return
	}
	if snap.RunID != m.lastRunID {
		m.cpuLocal = history.NewSeries("cpu", m.opts.HistorySize)
		m.ramLocal = history.NewSeries("ram", m.opts.HistorySize)
		m.lastRunID = snap.RunID
		m.lastSeq = 0
	}
	if snap.Seq <= m.lastSeq {
		return
	}
	m.lastSeq = snap.Seq
	if m.freshness(TabCPU) == widgets.Live {
		m.cpuLocal.Append(snap.Timestamp, snap.CPU)
	}
	if m.freshness(TabRAM) == widgets.Live {
		m.ramLocal.Append(snap.Timestamp, snap.RAM)
	}
}

// freshness reports how current the value shown on tab t is.
func (m Model) freshness(t Tab) widgets.Freshness {
	if m.snap == nil {
		if m.offline || m.closed {
			return widgets.Offline
		}
		return widgets.WarmingUp
	}
	if m.offline || m.closed {
		return widgets.Offline
	}
	switch t {
	case TabCPU:
		if m.snap.CPUStale {
			return widgets.Stale
		}
		if m.snap.Seq <= 1 && len(m.snap.CPUHistory) == 0 {
			return widgets.WarmingUp
		}
	case TabRAM:
		if m.snap.RAMStale {
			return widgets.Stale
		}
	case TabDisk:
		if m.snap.DiskStale {
			return widgets.Stale
		}
	}
	return widgets.Live
}

// values returns the chart series for t, oldest first.
func (m Model) values(t Tab) []float64 {
	switch t {
	case TabCPU:
		if m.snap != nil && len(m.snap.CPUHistory) > 0 {
			return m.snap.CPUValues()
		}
		return m.cpuLocal.Values()
	case TabRAM:
		if m.snap != nil && len(m.snap.RAMHistory) > 0 {
			return m.snap.RAMValues()
		}
		return m.ramLocal.Values()
	}
	return nil
}

func (m Model) tabZoneID(t Tab) string {
	return m.zonePrefix + "tab-" + strconv.Itoa(int(t))
}

// tabAt returns the tab under a mouse event.
func (m Model) tabAt(msg tea.MouseMsg) (Tab, bool) {
	for t := Tab(0); t < tabCount; t++ {
		if z := m.zones.Get(m.tabZoneID(t)); z != nil && z.InBounds(msg) {
			return t, true
		}
	}
	return 0, false
}

// View implements tea.Model. It renders the header, active tab content, and footer.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	header := m.renderHeader()
	content := m.renderTabContent()
	footer := m.renderFooter()

	return m.zones.Scan(lipgloss.JoinVertical(lipgloss.Left, header, content, footer))
}

// renderHeader renders the host line and the tab bar with the active tab
// highlighted. Each tab is a mouse zone.
func (m Model) renderHeader() string {
	var tabs []string
	for i := Tab(0); i < tabCount; i++ {
		name := tabNames[i]
		var rendered string
		if i == m.activeTab {
			rendered = m.styles.activeTab.Render(name)
		} else {
			rendered = m.styles.inactiveTab.Render(name)
		}
		tabs = append(tabs, m.zones.Mark(m.tabZoneID(i), rendered))
	}

	tabBar := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	hostLine := m.styles.title.Render(truncateText(m.hostLine(), max(m.width, 1)))
	return m.styles.header.Width(m.width).Render(lipgloss.JoinVertical(lipgloss.Left, hostLine, tabBar))
}

func (m Model) hostLine() string {
	if m.host == nil {
		return "hostpulse"
	}
	line := m.host.Hostname
	if m.host.Platform != "" {
		line += " · " + m.host.Platform
	}
	if m.host.Kernel != "" {
		line += " · " + m.host.Kernel
	}
	if m.host.Uptime > 0 {
		line += " · up " + format.FormatDuration(m.host.Uptime)
	}
	return line
}

// renderTabContent delegates to the renderer for the active tab.
func (m Model) renderTabContent() string {
	layout := LayoutForSize(DetectLayout(m.width), m.width)

	var content string
	switch m.activeTab {
	case TabRAM:
		content = m.renderUsageTab(TabRAM, "Used RAM:", layout)
	case TabCPU:
		content = m.renderUsageTab(TabCPU, "Used CPU:", layout)
	case TabDisk:
		content = m.renderDiskTab(layout)
	}

	if m.lastErr != nil {
		content += "\n\n" + m.styles.err.Render("error: "+m.lastErr.Error())
	}
	return m.styles.content.Width(m.width).Render(content)
}

// chartHeight fits the configured chart height into the terminal, leaving
// room for the header, the tab text and the footer.
func (m Model) chartHeight() int {
	const reserved = 16
	return max(min(m.opts.ChartHeight, m.height-reserved), 3)
}

// renderFooter renders the key help, the snapshot time and the overall
// freshness.
func (m Model) renderFooter() string {
	line := m.help.View(keys)
	if m.snap != nil {
		line += "  Updated: " + format.Timestamp(m.snap.Timestamp)
	}
	line += "  " + widgets.RenderIndicator(m.freshness(m.activeTab))
	return m.styles.footer.Width(m.width).Render(line)
}
