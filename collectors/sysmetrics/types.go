// Package sysmetrics samples CPU, RAM and root-filesystem usage for hostpulse.
// It reads raw counters from /proc and statfs, turns them into percentages,
// and keeps the rolling CPU and RAM histories the charts are drawn from.
package sysmetrics

import (
	"fmt"
	"time"

	"gitlab.com/tinyland/lab/hostpulse/collectors/history"
)

// MemorySnapshot holds the /proc/meminfo fields used for RAM usage, in kB.
// Fields missing from the source are left at zero.
type MemorySnapshot struct {
	TotalKB   uint64 `json:"total_kb"`
	FreeKB    uint64 `json:"free_kb"`
	BuffersKB uint64 `json:"buffers_kb"`
	CachedKB  uint64 `json:"cached_kb"`
}

// CPUSnapshot holds the aggregate cpu line of /proc/stat. All values are
// cumulative ticks since boot.
type CPUSnapshot struct {
	User      uint64 `json:"user"`
	Nice      uint64 `json:"nice"`
	System    uint64 `json:"system"`
	Idle      uint64 `json:"idle"`
	IOWait    uint64 `json:"iowait"`
	IRQ       uint64 `json:"irq"`
	SoftIRQ   uint64 `json:"softirq"`
	Steal     uint64 `json:"steal"`
	Guest     uint64 `json:"guest"`
	GuestNice uint64 `json:"guest_nice"`
}

// fields returns the counters in /proc/stat order.
func (s CPUSnapshot) fields() [10]uint64 {
	return [10]uint64{
		s.User, s.Nice, s.System, s.Idle, s.IOWait,
		s.IRQ, s.SoftIRQ, s.Steal, s.Guest, s.GuestNice,
	}
}

// Total returns the sum of all ten counters.
func (s CPUSnapshot) Total() uint64 {
	var total uint64
	for _, v := range s.fields() {
		total += v
	}
	return total
}

// IdleTotal returns idle plus iowait ticks.
func (s CPUSnapshot) IdleTotal() uint64 {
	return s.Idle + s.IOWait
}

// DiskSnapshot is a single statfs reading of one mount path.
type DiskSnapshot struct {
	Path           string `json:"path"`
	TotalBytes     uint64 `json:"total_bytes"`
	AvailableBytes uint64 `json:"available_bytes"`
}

// DiskUsage is the derived view of a DiskSnapshot shown on the disk panel.
type DiskUsage struct {
	Mount   string `json:"mount"`
	Device  string `json:"device,omitempty"`
	Percent int    `json:"percent"`
	TotalMB uint64 `json:"total_mb"`
	UsedMB  uint64 `json:"used_mb"`
	FreeMB  uint64 `json:"free_mb"`
}

// CPUMode selects how CPU usage is computed.
type CPUMode string

const (
	// CPUModeDelta reports usage over the interval since the previous sample.
	CPUModeDelta CPUMode = "delta"

	// CPUModeSinceBoot reports the cumulative average since boot from a single
	// /proc/stat read. Kept for consumers that expect the old figures.
	CPUModeSinceBoot CPUMode = "since_boot"
)

// ParseCPUMode validates a mode name. The empty string selects CPUModeDelta.
func ParseCPUMode(s string) (CPUMode, error) {
	switch CPUMode(s) {
	case "", CPUModeDelta:
		return CPUModeDelta, nil
	case CPUModeSinceBoot:
		return CPUModeSinceBoot, nil
	default:
		return "", fmt.Errorf("sysmetrics: unknown cpu mode %q (want %q or %q)", s, CPUModeDelta, CPUModeSinceBoot)
	}
}

// Snapshot is everything the sampler publishes for one tick. It is never
// modified after publication, so consumers may hold on to it freely.
type Snapshot struct {
	// RunID identifies the sampler process that produced the snapshot.
	RunID string `json:"run_id"`

	// Seq counts ticks since the sampler started, starting at 1.
	Seq uint64 `json:"seq"`

	// Timestamp is the wall-clock time the tick started.
	Timestamp time.Time `json:"timestamp"`

	// Interval is the sampler's tick interval. Readers derive staleness
	// from it.
	Interval time.Duration `json:"interval,omitempty"`

	// CPU is the current CPU usage percentage (0-100).
	CPU float64 `json:"cpu"`

	// RAM is the current RAM usage percentage (0-100).
	RAM float64 `json:"ram"`

	// Disk is the current usage of the monitored mount.
	Disk DiskUsage `json:"disk"`

	// CPUStale, RAMStale and DiskStale are set when this tick's reading failed
	// and the value shown is the last good one (or the zero placeholder).
	CPUStale  bool `json:"cpu_stale,omitempty"`
	RAMStale  bool `json:"ram_stale,omitempty"`
	DiskStale bool `json:"disk_stale,omitempty"`

	// CPUHistory and RAMHistory are copies of the rolling histories.
	CPUHistory []history.Sample `json:"cpu_history,omitempty"`
	RAMHistory []history.Sample `json:"ram_history,omitempty"`

	// Warnings lists the non-fatal problems seen during this tick.
	Warnings []string `json:"warnings,omitempty"`
}

// CPUValues returns the CPU history values, oldest first.
func (s *Snapshot) CPUValues() []float64 {
	return sampleValues(s.CPUHistory)
}

// RAMValues returns the RAM history values, oldest first.
func (s *Snapshot) RAMValues() []float64 {
	return sampleValues(s.RAMHistory)
}

// WithoutHistory returns a shallow copy with the histories dropped, for
// publishing just the current values.
func (s *Snapshot) WithoutHistory() *Snapshot {
	cp := *s
	cp.CPUHistory = nil
	cp.RAMHistory = nil
	return &cp
}

func sampleValues(samples []history.Sample) []float64 {
	out := make([]float64, len(samples))
	for i, smp := range samples {
		out[i] = smp.Value
	}
	return out
}
