//go:build linux

package sysmetrics

import "golang.org/x/sys/unix"

// statfs queries the filesystem holding path. Sizes are counted in fragments
// (f_frsize) like statvfs; Bsize is only used when the kernel reports no
// fragment size.
func statfs(path string) (FSStat, error) {
	var buf unix.Statfs_t
	if err := unix.Statfs(path, &buf); err != nil {
		return FSStat{}, err
	}

	size := uint64(buf.Frsize)
	if size == 0 {
		size = uint64(buf.Bsize)
	}
	return FSStat{
		BlockSize: size,
		Blocks:    buf.Blocks,
		Available: buf.Bavail,
	}, nil
}
