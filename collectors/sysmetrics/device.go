package sysmetrics

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
)

// PartitionLister lists mounted filesystems as mountpoint/device pairs.
type PartitionLister func(ctx context.Context) ([]disk.PartitionStat, error)

func listPartitions(ctx context.Context) ([]disk.PartitionStat, error) {
	return disk.PartitionsWithContext(ctx, false)
}

// DeviceFor returns the device backing path: the partition whose mountpoint
// is the longest prefix of path. It returns "" when nothing matches.
func DeviceFor(path string, parts []disk.PartitionStat) string {
	path = filepath.Clean(path)

	best, bestLen := "", -1
	for _, p := range parts {
		mp := filepath.Clean(p.Mountpoint)
		if !mountContains(mp, path) {
			continue
		}
		if len(mp) > bestLen {
			best, bestLen = p.Device, len(mp)
		}
	}
	return best
}

func mountContains(mountpoint, path string) bool {
	if mountpoint == path || mountpoint == "/" {
		return true
	}
	return strings.HasPrefix(path, mountpoint+string(filepath.Separator))
}

// HostInfo is shown in the TUI header.
type HostInfo struct {
	Hostname string        `json:"hostname"`
	Platform string        `json:"platform"`
	Kernel   string        `json:"kernel"`
	Uptime   time.Duration `json:"uptime"`
}

// ReadHostInfo queries host identity and uptime.
func ReadHostInfo(ctx context.Context) (HostInfo, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return HostInfo{}, err
	}
	platform := info.Platform
	if info.PlatformVersion != "" {
		platform += " " + info.PlatformVersion
	}
	return HostInfo{
		Hostname: info.Hostname,
		Platform: strings.TrimSpace(platform),
		Kernel:   info.KernelVersion,
		Uptime:   time.Duration(info.Uptime) * time.Second,
	}, nil
}
