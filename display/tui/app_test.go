package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"gitlab.com/tinyland/lab/hostpulse/cache"
	"gitlab.com/tinyland/lab/hostpulse/collectors"
	"gitlab.com/tinyland/lab/hostpulse/collectors/history"
	"gitlab.com/tinyland/lab/hostpulse/collectors/sysmetrics"
	"gitlab.com/tinyland/lab/hostpulse/display/widgets"
	"gitlab.com/tinyland/lab/hostpulse/internal/format"
)

var testTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// isQuitCmd executes a tea.Cmd and returns true if it produces a tea.QuitMsg.
func isQuitCmd(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	msg := cmd()
	_, ok := msg.(tea.QuitMsg)
	return ok
}

func newTestModel(t *testing.T, opts Options) Model {
	t.Helper()
	m := NewModel(opts)
	t.Cleanup(m.Close)
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	updated, _ := m.Update(msg)
	return updated.(Model)
}

func testSnapshot(seq uint64) *sysmetrics.Snapshot {
	ts := testTime.Add(time.Duration(seq) * time.Second)
	return &sysmetrics.Snapshot{
		RunID:     "run-1",
		Seq:       seq,
		Timestamp: ts,
		CPU:       12.5,
		RAM:       40,
		Disk: sysmetrics.DiskUsage{
			Mount: "/", Device: "/dev/vda1", Percent: 75,
			TotalMB: 100, UsedMB: 75, FreeMB: 25,
		},
		CPUHistory: []history.Sample{{Index: 0, Time: ts, Value: 12.5}},
		RAMHistory: []history.Sample{{Index: 0, Time: ts, Value: 40}},
	}
}

func TestNewModel(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		tab  Tab
	}{
		{"defaults", Options{}, TabRAM},
		{"start on disk", Options{StartTab: TabDisk}, TabDisk},
		{"out of range", Options{StartTab: Tab(7)}, TabRAM},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel(t, tt.opts)
			if m.activeTab != tt.tab {
				t.Errorf("activeTab = %v, want %v", m.activeTab, tt.tab)
			}
			if m.ready || m.snap != nil {
				t.Error("new model should not be ready or hold a snapshot")
			}
			if m.opts.ChartHeight != defaultChartHeight || m.opts.Theme.Name != "monitoring" {
				t.Errorf("opts = %+v, want defaults filled", m.opts)
			}
		})
	}
}

func TestModel_InitDefaults(t *testing.T) {
	m := newTestModel(t, Options{})
	if cmd := m.Init(); cmd != nil {
		t.Error("Init() without host loader or attach store should return nil")
	}
}

func TestModel_UpdateQuit(t *testing.T) {
	for _, msg := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune{'q'}},
		{Type: tea.KeyCtrlC},
	} {
		m := newTestModel(t, Options{})
		if _, cmd := m.Update(msg); !isQuitCmd(cmd) {
			t.Errorf("%v should quit", msg)
		}
	}
}

func TestModel_TabNavigation(t *testing.T) {
	tests := []struct {
		name  string
		start Tab
		msg   tea.KeyMsg
		want  Tab
	}{
		{"next", TabRAM, tea.KeyMsg{Type: tea.KeyTab}, TabCPU},
		{"next wraps", TabDisk, tea.KeyMsg{Type: tea.KeyTab}, TabRAM},
		{"prev wraps", TabRAM, tea.KeyMsg{Type: tea.KeyShiftTab}, TabDisk},
		{"prev", TabDisk, tea.KeyMsg{Type: tea.KeyShiftTab}, TabCPU},
		{"right", TabRAM, tea.KeyMsg{Type: tea.KeyRight}, TabCPU},
		{"jump 1", TabDisk, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'1'}}, TabRAM},
		{"jump 2", TabRAM, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'2'}}, TabCPU},
		{"jump 3", TabRAM, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'3'}}, TabDisk},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel(t, Options{StartTab: tt.start})
			if got := update(t, m, tt.msg).activeTab; got != tt.want {
				t.Errorf("activeTab = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestModel_HelpToggle(t *testing.T) {
	m := newTestModel(t, Options{})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	if !m.help.ShowAll {
		t.Error("? should expand help")
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	if m.help.ShowAll {
		t.Error("second ? should collapse help")
	}
}

func TestModel_RefreshWithoutAttach(t *testing.T) {
	m := newTestModel(t, Options{})
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}}); cmd != nil {
		t.Error("refresh in live mode should be a no-op")
	}
}

func TestModel_WindowSize(t *testing.T) {
	m := newTestModel(t, Options{})
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	if !m.ready || m.width != 120 || m.height != 40 || m.help.Width != 120 {
		t.Errorf("after resize: ready=%v width=%d height=%d help=%d", m.ready, m.width, m.height, m.help.Width)
	}
}

func TestModel_Freshness(t *testing.T) {
	warm := testSnapshot(1)
	warm.CPUHistory = nil

	stale := testSnapshot(5)
	stale.RAMStale = true
	stale.DiskStale = true

	tests := []struct {
		name string
		msgs []tea.Msg
		tab  Tab
		want widgets.Freshness
	}{
		{"no snapshot", nil, TabRAM, widgets.WarmingUp},
		{"cpu warming up", []tea.Msg{SnapshotMsg{Snapshot: warm}}, TabCPU, widgets.WarmingUp},
		{"ram live on first tick", []tea.Msg{SnapshotMsg{Snapshot: warm}}, TabRAM, widgets.Live},
		{"ram stale", []tea.Msg{SnapshotMsg{Snapshot: stale}}, TabRAM, widgets.Stale},
		{"disk stale", []tea.Msg{SnapshotMsg{Snapshot: stale}}, TabDisk, widgets.Stale},
		{"cpu live", []tea.Msg{SnapshotMsg{Snapshot: stale}}, TabCPU, widgets.Live},
		{"offline", []tea.Msg{SnapshotMsg{Snapshot: testSnapshot(2), Offline: true}}, TabCPU, widgets.Offline},
		{"missing cache", []tea.Msg{SnapshotMsg{Offline: true}}, TabRAM, widgets.Offline},
		{"source closed", []tea.Msg{SnapshotMsg{Snapshot: testSnapshot(2)}, SourceClosedMsg{}}, TabRAM, widgets.Offline},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel(t, Options{})
			for _, msg := range tt.msgs {
				m = update(t, m, msg)
			}
			if got := m.freshness(tt.tab); got != tt.want {
				t.Errorf("freshness(%v) = %v, want %v", tt.tab, got, tt.want)
			}
		})
	}
}

func TestModel_SnapshotError(t *testing.T) {
	m := newTestModel(t, Options{})
	m = update(t, m, SnapshotMsg{Snapshot: testSnapshot(1)})
	m = update(t, m, SnapshotMsg{Err: errors.New("collector panicked")})

	if m.snap == nil || m.snap.Seq != 1 {
		t.Error("an error should keep the last snapshot")
	}
	if m.lastErr == nil {
		t.Fatal("lastErr not recorded")
	}

	m = update(t, m, SnapshotMsg{Snapshot: testSnapshot(2)})
	if m.lastErr != nil {
		t.Errorf("lastErr = %v, want cleared by next snapshot", m.lastErr)
	}
}

func TestModel_LocalHistory(t *testing.T) {
	bare := func(runID string, seq uint64, cpu, ram float64) tea.Msg {
		s := testSnapshot(seq).WithoutHistory()
		s.RunID = runID
		s.CPU, s.RAM = cpu, ram
		return SnapshotMsg{Snapshot: s}
	}

	m := newTestModel(t, Options{HistorySize: 3})
	for _, msg := range []tea.Msg{
		bare("a", 1, 0, 10), // cpu warming up
		bare("a", 2, 20, 20),
		bare("a", 2, 20, 20), // same tick read twice
		bare("a", 3, 30, 30),
	} {
		m = update(t, m, msg)
	}

	if got := m.values(TabRAM); len(got) != 3 || got[0] != 10 || got[2] != 30 {
		t.Errorf("RAM values = %v, want [10 20 30]", got)
	}
	if got := m.values(TabCPU); len(got) != 2 || got[0] != 20 {
		t.Errorf("CPU values = %v, want [20 30]", got)
	}

	m = update(t, m, bare("a", 4, 40, 40))
	if got := m.values(TabRAM); len(got) != 3 || got[0] != 20 {
		t.Errorf("RAM values after eviction = %v, want [20 30 40]", got)
	}

	// A new sampler run starts a fresh history.
	m = update(t, m, bare("b", 1, 0, 50))
	if got := m.values(TabRAM); len(got) != 1 || got[0] != 50 {
		t.Errorf("RAM values after restart = %v, want [50]", got)
	}
}

func TestModel_SnapshotHistoryPreferred(t *testing.T) {
	m := newTestModel(t, Options{})
	m = update(t, m, SnapshotMsg{Snapshot: testSnapshot(1)})
	if got := m.values(TabCPU); len(got) != 1 || got[0] != 12.5 {
		t.Errorf("CPU values = %v, want the snapshot history", got)
	}
	if m.cpuLocal.Len() != 0 {
		t.Error("local history should stay empty when snapshots carry history")
	}
}

func TestModel_View(t *testing.T) {
	snap := testSnapshot(3)
	snap.Warnings = []string{"disk: source unavailable"}
	stamp := format.Timestamp(snap.Timestamp)

	tests := []struct {
		name  string
		tab   Tab
		width int
		want  []string
	}{
		{"ram", TabRAM, 100, []string{"RAM", "CPU", "Disk", "Date/Time: " + stamp, "Used RAM: 40.00%", "100┤", "min 40.00%", "Updated: " + stamp}},
		{"cpu", TabCPU, 100, []string{"Used CPU: 12.50%", "avg 12.50%"}},
		{"cpu compact", TabCPU, 50, []string{"Used CPU: 12.50%"}},
		{"disk", TabDisk, 100, []string{"/dev/vda1", "75%", "Total:", "100 MB", "Used:", "75 MB", "Free:", "25 MB", "disk: source unavailable"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel(t, Options{StartTab: tt.tab})
			m = update(t, m, tea.WindowSizeMsg{Width: tt.width, Height: 40})
			m = update(t, m, SnapshotMsg{Snapshot: snap})

			view := m.View()
			for _, want := range tt.want {
				if !strings.Contains(view, want) {
					t.Errorf("view missing %q:\n%s", want, view)
				}
			}
		})
	}
}

func TestModel_ViewStates(t *testing.T) {
	m := newTestModel(t, Options{})
	if got := m.View(); got != "Initializing..." {
		t.Errorf("View() before resize = %q", got)
	}

	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 30})
	view := m.View()
	for _, want := range []string{"hostpulse", "no samples yet", "warming up", "quit"} {
		if !strings.Contains(view, want) {
			t.Errorf("empty view missing %q:\n%s", want, view)
		}
	}

	m = update(t, m, SnapshotMsg{Err: errors.New("boom")})
	if !strings.Contains(m.View(), "error: boom") {
		t.Error("view should show the last error")
	}
}

func TestModel_HostHeader(t *testing.T) {
	info := sysmetrics.HostInfo{Hostname: "box", Platform: "debian 12", Kernel: "6.1.0", Uptime: 26 * time.Hour}
	load := func(context.Context) (sysmetrics.HostInfo, error) { return info, nil }

	msg := loadHostCmd(load)()
	m := newTestModel(t, Options{LoadHost: load})
	m = update(t, m, msg)
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})

	want := "box · debian 12 · 6.1.0 · up " + format.FormatDuration(26*time.Hour)
	if !strings.Contains(m.View(), want) {
		t.Errorf("header missing %q", want)
	}

	failed := update(t, newTestModel(t, Options{}), hostInfoMsg{err: errors.New("no host")})
	if failed.host != nil {
		t.Error("failed host lookup should leave the header generic")
	}
}

func TestChartHeight(t *testing.T) {
	tests := []struct {
		pref, height, want int
	}{
		{12, 40, 12},
		{12, 20, 4},
		{12, 10, 3},
		{5, 60, 5},
	}
	for _, tt := range tests {
		m := newTestModel(t, Options{ChartHeight: tt.pref})
		m.height = tt.height
		if got := m.chartHeight(); got != tt.want {
			t.Errorf("chartHeight(pref=%d, height=%d) = %d, want %d", tt.pref, tt.height, got, tt.want)
		}
	}
}

func TestFromUpdate(t *testing.T) {
	snap := testSnapshot(1)
	tests := []struct {
		name   string
		update collectors.Update
		want   tea.Msg
	}{
		{"snapshot", collectors.Update{Data: snap}, SnapshotMsg{Snapshot: snap}},
		{"other data", collectors.Update{Data: "x"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromUpdate(tt.update); got != tt.want {
				t.Errorf("FromUpdate() = %#v, want %#v", got, tt.want)
			}
		})
	}

	err := errors.New("failed")
	msg, ok := FromUpdate(collectors.Update{Error: err}).(SnapshotMsg)
	if !ok || msg.Err != err {
		t.Errorf("FromUpdate(error) = %#v", msg)
	}
}

func TestFeed(t *testing.T) {
	updates := make(chan collectors.Update, 3)
	updates <- collectors.Update{Data: testSnapshot(1)}
	updates <- collectors.Update{Data: 42}
	updates <- collectors.Update{Data: testSnapshot(2)}
	close(updates)

	var got []tea.Msg
	Feed(context.Background(), updates, func(msg tea.Msg) { got = append(got, msg) })

	if len(got) != 3 {
		t.Fatalf("Feed sent %d messages, want 3: %#v", len(got), got)
	}
	if s, ok := got[1].(SnapshotMsg); !ok || s.Snapshot.Seq != 2 {
		t.Errorf("second message = %#v, want snapshot 2", got[1])
	}
	if _, ok := got[2].(SourceClosedMsg); !ok {
		t.Errorf("last message = %#v, want SourceClosedMsg", got[2])
	}
}

func TestFeedStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		Feed(ctx, make(chan collectors.Update), func(tea.Msg) { t.Error("unexpected send") })
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Feed did not return after cancel")
	}
}

func TestAttachFetch(t *testing.T) {
	store, err := cache.NewStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	m := newTestModel(t, Options{Attach: store, AttachEvery: time.Second})

	missing, ok := m.fetch()().(SnapshotMsg)
	if !ok || !missing.Offline || missing.Snapshot != nil {
		t.Errorf("fetch with empty cache = %#v, want offline", missing)
	}

	if err := cache.NewPublisher(store, nil, false).Publish(testSnapshot(7)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	msg, ok := m.fetch()().(SnapshotMsg)
	if !ok || msg.Offline || msg.Snapshot == nil || msg.Snapshot.Seq != 7 {
		t.Fatalf("fetch = %#v, want fresh snapshot 7", msg)
	}

	m = update(t, m, msg)
	if got := m.freshness(TabRAM); got != widgets.Live {
		t.Errorf("freshness = %v, want live", got)
	}
	if got := m.values(TabRAM); len(got) != 1 || got[0] != 40 {
		t.Errorf("local RAM history = %v, want [40]", got)
	}

	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}}); cmd == nil {
		t.Error("refresh in attach mode should fetch")
	}
	if _, cmd := m.Update(attachTickMsg{}); cmd == nil {
		t.Error("attach tick should schedule a fetch")
	}
	if cmd := m.Init(); cmd == nil {
		t.Error("Init in attach mode should start polling")
	}
}
