package sysmetrics

import "github.com/shirou/gopsutil/v3/disk"

// statfsUsage queries path through gopsutil, for platforms without a native
// statfs here. Sizes come back in bytes, so BlockSize is 1.
func statfsUsage(path string) (FSStat, error) {
	u, err := disk.Usage(path)
	if err != nil {
		return FSStat{}, err
	}
	return FSStat{
		BlockSize: 1,
		Blocks:    u.Total,
		Available: u.Free,
	}, nil
}
