package sysmetrics

import (
	"context"
	"fmt"
)

// CPUTracker turns successive /proc/stat reads into a usage rate. It keeps the
// previous snapshot so each Sample covers only the interval since the last
// call. It is not safe for concurrent use; the sampler is its only caller.
type CPUTracker struct {
	read func(context.Context) (CPUSnapshot, error)
	mode CPUMode

	prev    CPUSnapshot
	hasPrev bool
}

// NewCPUTracker creates a tracker over read with no previous snapshot.
func NewCPUTracker(read func(context.Context) (CPUSnapshot, error), mode CPUMode) *CPUTracker {
	if mode == "" {
		mode = CPUModeDelta
	}
	return &CPUTracker{read: read, mode: mode}
}

// Mode returns the computation mode.
func (t *CPUTracker) Mode() CPUMode { return t.mode }

// Sample reads the counters and returns CPU usage in percent.
//
// In delta mode the first call only seeds the tracker and returns 0 with
// ErrWarmingUp. A counter that went backwards yields ErrInvalidMetric; the new
// reading still replaces the old one so the next call recovers. A failed
// read leaves the stored snapshot untouched.
func (t *CPUTracker) Sample(ctx context.Context) (float64, error) {
	cur, err := t.read(ctx)
	if err != nil {
		return 0, err
	}

	if t.mode == CPUModeSinceBoot {
		t.prev, t.hasPrev = cur, true
		return DeriveCPUSinceBoot(cur)
	}

	if !t.hasPrev {
		t.prev, t.hasPrev = cur, true
		return 0, fmt.Errorf("%w: cpu tracker seeded", ErrWarmingUp)
	}

	prev := t.prev
	t.prev = cur
	return DeriveCPUUsage(prev, cur)
}

// Previous returns the stored snapshot, if any.
func (t *CPUTracker) Previous() (CPUSnapshot, bool) {
	return t.prev, t.hasPrev
}
