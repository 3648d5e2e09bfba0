package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"gitlab.com/tinyland/lab/hostpulse/cache"
	"gitlab.com/tinyland/lab/hostpulse/collectors"
	"gitlab.com/tinyland/lab/hostpulse/collectors/sysmetrics"
)

const hostInfoTimeout = 2 * time.Second

// SnapshotMsg delivers a sampler snapshot to the Model. Offline marks a
// snapshot read back from the cache that is older than the freshness window,
// or a missing one (Snapshot nil).
type SnapshotMsg struct {
	Snapshot *sysmetrics.Snapshot
	Err      error
	Offline  bool
}

// SourceClosedMsg tells the Model that no more snapshots will arrive.
type SourceClosedMsg struct{}

type hostInfoMsg struct {
	info sysmetrics.HostInfo
	err  error
}

type attachTickMsg struct{}

// FromUpdate converts a runner update into a Model message. Updates that do
// not carry a snapshot yield nil.
func FromUpdate(u collectors.Update) tea.Msg {
	if u.Error != nil {
		return SnapshotMsg{Err: u.Error}
	}
	if snap, ok := u.Data.(*sysmetrics.Snapshot); ok {
		return SnapshotMsg{Snapshot: snap}
	}
	return nil
}

// Feed forwards runner updates to send until updates is closed or ctx is
// done. A closed channel is reported with SourceClosedMsg.
func Feed(ctx context.Context, updates <-chan collectors.Update, send func(tea.Msg)) {
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				send(SourceClosedMsg{})
				return
			}
			if msg := FromUpdate(u); msg != nil {
				send(msg)
			}
		}
	}
}

// fetchSnapshotCmd reads the published snapshot from store. It runs as a
// command so cache I/O never blocks the render loop.
func fetchSnapshotCmd(store *cache.Store, maxAge time.Duration) tea.Cmd {
	return func() tea.Msg {
		snap, entry, err := cache.ReadSnapshot(store, maxAge)
		if err != nil {
			return SnapshotMsg{Err: err, Offline: true}
		}
		if snap == nil {
			return SnapshotMsg{Offline: true}
		}
		return SnapshotMsg{Snapshot: snap, Offline: !entry.Fresh}
	}
}

// attachTickCmd schedules the next cache read.
func attachTickCmd(every time.Duration) tea.Cmd {
	return tea.Tick(every, func(time.Time) tea.Msg { return attachTickMsg{} })
}

// loadHostCmd queries host identity for the header.
func loadHostCmd(load func(context.Context) (sysmetrics.HostInfo, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), hostInfoTimeout)
		defer cancel()
		info, err := load(ctx)
		return hostInfoMsg{info: info, err: err}
	}
}
