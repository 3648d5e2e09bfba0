package cache

import (
	"context"
	"io"
	"log/slog"
	"time"

	"gitlab.com/tinyland/lab/hostpulse/collectors"
	"gitlab.com/tinyland/lab/hostpulse/collectors/sysmetrics"
)

// SnapshotKey is the key the latest sampler snapshot is published under.
const SnapshotKey = "sysmetrics"

// Publisher writes sampler snapshots to a Store. The file is only ever read
// by other processes; a restarted sampler starts with empty histories.
type Publisher struct {
	store          *Store
	logger         *slog.Logger
	includeHistory bool
	lastErr        string
}

// NewPublisher creates a publisher. Histories are written only when
// includeHistory is set.
func NewPublisher(store *Store, logger *slog.Logger, includeHistory bool) *Publisher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Publisher{store: store, logger: logger, includeHistory: includeHistory}
}

// Publish writes snap.
func (p *Publisher) Publish(snap *sysmetrics.Snapshot) error {
	if !p.includeHistory {
		snap = snap.WithoutHistory()
	}
	return SetTyped(p.store, SnapshotKey, snap)
}

// Run publishes every snapshot received on updates until the channel is
// closed or ctx ends. Updates from other collectors and failed collections
// are skipped. Write errors are logged once per distinct message.
func (p *Publisher) Run(ctx context.Context, updates <-chan collectors.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			snap, isSnap := u.Data.(*sysmetrics.Snapshot)
			if u.Error != nil || !isSnap || snap == nil {
				continue
			}
			p.report(p.Publish(snap))
		}
	}
}

func (p *Publisher) report(err error) {
	if err == nil {
		if p.lastErr != "" {
			p.logger.Info("cache: snapshot publishing recovered")
			p.lastErr = ""
		}
		return
	}
	if msg := err.Error(); msg != p.lastErr {
		p.logger.Warn("cache: publish snapshot", "error", err)
		p.lastErr = msg
	}
}

// StaleAfterTicks is the number of missed ticks after which a published
// snapshot counts as stale.
const StaleAfterTicks = 3

// StaleAfter returns how long snap stays fresh: StaleAfterTicks of the
// interval it was published with, or fallback when it carries none.
func StaleAfter(snap *sysmetrics.Snapshot, fallback time.Duration) time.Duration {
	if snap != nil && snap.Interval > 0 {
		return StaleAfterTicks * snap.Interval
	}
	return fallback
}

// ReadSnapshot loads the published snapshot. It returns nil and no error when
// nothing has been published. Freshness follows StaleAfter, with maxAge as
// the fallback window.
func ReadSnapshot(store *Store, maxAge time.Duration) (*sysmetrics.Snapshot, *Entry, error) {
	snap, entry, err := GetTyped[sysmetrics.Snapshot](store, SnapshotKey, maxAge)
	if err != nil || snap == nil {
		return snap, entry, err
	}
	entry.Fresh = entry.Age < StaleAfter(snap, maxAge)
	return snap, entry, nil
}
