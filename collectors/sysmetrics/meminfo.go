package sysmetrics

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseMeminfo reads /proc/meminfo content. Lines look like
//
//	MemTotal:       16384000 kB
//
// Only MemTotal, MemFree, Buffers and Cached are kept; any of them that is
// absent stays zero. An unparsable value on one of those lines is an error,
// other lines are ignored.
func ParseMeminfo(r io.Reader) (MemorySnapshot, error) {
	var snap MemorySnapshot

	targets := map[string]*uint64{
		"MemTotal:": &snap.TotalKB,
		"MemFree:":  &snap.FreeKB,
		"Buffers:":  &snap.BuffersKB,
		"Cached:":   &snap.CachedKB,
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		dst, ok := targets[fields[0]]
		if !ok {
			continue
		}
		if len(fields) < 2 {
			return MemorySnapshot{}, fmt.Errorf("%w: meminfo %s has no value", ErrSourceUnavailable, fields[0])
		}
		val, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return MemorySnapshot{}, fmt.Errorf("%w: meminfo %s: %w", ErrSourceUnavailable, fields[0], err)
		}
		*dst = val
	}
	if err := scanner.Err(); err != nil {
		return MemorySnapshot{}, fmt.Errorf("%w: scan meminfo: %w", ErrSourceUnavailable, err)
	}

	return snap, nil
}
