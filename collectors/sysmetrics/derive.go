package sysmetrics

import "fmt"

const bytesPerMB = 1024 * 1024

// DeriveRAMUsage returns the share of memory not free, in buffers or in the
// page cache: 100 * (total - free - buffers - cached) / total.
func DeriveRAMUsage(m MemorySnapshot) (float64, error) {
	if m.TotalKB == 0 {
		return 0, fmt.Errorf("%w: MemTotal is zero", ErrInvalidMetric)
	}

	reclaimable := m.FreeKB + m.BuffersKB + m.CachedKB
	if reclaimable > m.TotalKB {
		return 0, fmt.Errorf("%w: free+buffers+cached (%d kB) exceeds MemTotal (%d kB)",
			ErrInvalidMetric, reclaimable, m.TotalKB)
	}

	used := m.TotalKB - reclaimable
	return 100 * float64(used) / float64(m.TotalKB), nil
}

// DeriveCPUUsage returns busy time as a share of all time elapsed between two
// snapshots: 100 * (1 - Δ(idle+iowait) / Δtotal).
//
// A counter that decreased means a wraparound or a reboot between samples;
// that pair cannot yield a rate and ErrInvalidMetric is returned.
func DeriveCPUUsage(prev, cur CPUSnapshot) (float64, error) {
	p, c := prev.fields(), cur.fields()

	var deltas [10]uint64
	for i := range c {
		if c[i] < p[i] {
			return 0, fmt.Errorf("%w: cpu counter %d went backwards (%d -> %d)", ErrInvalidMetric, i+1, p[i], c[i])
		}
		deltas[i] = c[i] - p[i]
	}

	var total uint64
	for _, d := range deltas {
		total += d
	}
	if total == 0 {
		return 0, fmt.Errorf("%w: no cpu ticks elapsed", ErrInvalidMetric)
	}

	idle := deltas[3] + deltas[4]
	return clampPercent(100 * (1 - float64(idle)/float64(total))), nil
}

// DeriveCPUSinceBoot computes usage from a single snapshot. The result is the
// average load since boot, not current load.
func DeriveCPUSinceBoot(s CPUSnapshot) (float64, error) {
	total := s.Total()
	if total == 0 {
		return 0, fmt.Errorf("%w: cpu counters are all zero", ErrInvalidMetric)
	}
	return clampPercent(100 * (1 - float64(s.IdleTotal())/float64(total))), nil
}

// DeriveDiskUsage returns the used share of a filesystem as an integer
// percentage, truncating the available share: 100 - available*100/total.
func DeriveDiskUsage(d DiskSnapshot) (int, error) {
	if d.TotalBytes == 0 {
		return 0, fmt.Errorf("%w: %s reports zero size", ErrInvalidMetric, d.Path)
	}
	if d.AvailableBytes > d.TotalBytes {
		return 0, fmt.Errorf("%w: %s reports more available (%d) than total (%d)",
			ErrInvalidMetric, d.Path, d.AvailableBytes, d.TotalBytes)
	}

	// available*100 overflows past ~184 PB; divide first there.
	var availPct uint64
	if d.AvailableBytes <= ^uint64(0)/100 {
		availPct = d.AvailableBytes * 100 / d.TotalBytes
	} else {
		availPct = d.AvailableBytes / (d.TotalBytes / 100)
	}
	return 100 - int(availPct), nil
}

// DiskUsageOf derives the full disk panel view. Sizes are whole megabytes.
func DiskUsageOf(d DiskSnapshot) (DiskUsage, error) {
	pct, err := DeriveDiskUsage(d)
	if err != nil {
		return DiskUsage{Mount: d.Path}, err
	}
	used := d.TotalBytes - d.AvailableBytes
	return DiskUsage{
		Mount:   d.Path,
		Percent: pct,
		TotalMB: d.TotalBytes / bytesPerMB,
		UsedMB:  used / bytesPerMB,
		FreeMB:  d.AvailableBytes / bytesPerMB,
	}, nil
}

func clampPercent(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
