package sysmetrics

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// minCPUFields is the fewest counters accepted on the cpu line
// (user nice system idle). Kernels older than 2.6.33 stop before guest_nice;
// the missing trailing counters are read as zero.
const minCPUFields = 4

// ParseStat reads /proc/stat content and returns the aggregate cpu line:
//
//	cpu  user nice system idle iowait irq softirq steal guest guest_nice
func ParseStat(r io.Reader) (CPUSnapshot, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "cpu ") {
			continue
		}

		fields := strings.Fields(line)[1:]
		if len(fields) < minCPUFields {
			return CPUSnapshot{}, fmt.Errorf("%w: /proc/stat cpu line has %d counters, want at least %d",
				ErrSourceUnavailable, len(fields), minCPUFields)
		}

		var vals [10]uint64
		for i := 0; i < len(vals) && i < len(fields); i++ {
			v, err := strconv.ParseUint(fields[i], 10, 64)
			if err != nil {
				return CPUSnapshot{}, fmt.Errorf("%w: /proc/stat field %d: %w", ErrSourceUnavailable, i+1, err)
			}
			vals[i] = v
		}

		return CPUSnapshot{
			User:      vals[0],
			Nice:      vals[1],
			System:    vals[2],
			Idle:      vals[3],
			IOWait:    vals[4],
			IRQ:       vals[5],
			SoftIRQ:   vals[6],
			Steal:     vals[7],
			Guest:     vals[8],
			GuestNice: vals[9],
		}, nil
	}
	if err := scanner.Err(); err != nil {
		return CPUSnapshot{}, fmt.Errorf("%w: scan /proc/stat: %w", ErrSourceUnavailable, err)
	}

	return CPUSnapshot{}, fmt.Errorf("%w: cpu line not found in /proc/stat", ErrSourceUnavailable)
}
