package sysmetrics

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

const (
	// DefaultProcRoot is where the kernel counter files live.
	DefaultProcRoot = "/proc"

	// DefaultReadTimeout bounds a single counter read.
	DefaultReadTimeout = 500 * time.Millisecond
)

// Source performs single point-in-time reads of the kernel counters. The
// openers and stat function are fields so tests can substitute fixed content.
type Source struct {
	procRoot string
	timeout  time.Duration

	openMeminfo func() (io.ReadCloser, error)
	openStat    func() (io.ReadCloser, error)
	statfs      StatFunc
}

// NewSource returns a Source reading from procRoot (DefaultProcRoot when
// empty). Every read is abandoned after timeout; timeout <= 0 selects
// DefaultReadTimeout.
func NewSource(procRoot string, timeout time.Duration) *Source {
	if procRoot == "" {
		procRoot = DefaultProcRoot
	}
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}

	meminfo := filepath.Join(procRoot, "meminfo")
	stat := filepath.Join(procRoot, "stat")

	return &Source{
		procRoot: procRoot,
		timeout:  timeout,
		openMeminfo: func() (io.ReadCloser, error) {
			return os.Open(meminfo)
		},
		openStat: func() (io.ReadCloser, error) {
			return os.Open(stat)
		},
		statfs: statfs,
	}
}

// ProcRoot returns the directory counters are read from.
func (s *Source) ProcRoot() string { return s.procRoot }

// ReadMemory reads and parses meminfo.
func (s *Source) ReadMemory(ctx context.Context) (MemorySnapshot, error) {
	return withTimeout(ctx, s.timeout, "meminfo", func() (MemorySnapshot, error) {
		f, err := s.openMeminfo()
		if err != nil {
			return MemorySnapshot{}, fmt.Errorf("%w: open meminfo: %w", ErrSourceUnavailable, err)
		}
		defer f.Close()
		return ParseMeminfo(f)
	})
}

// ReadCPU reads and parses the aggregate cpu line of /proc/stat.
func (s *Source) ReadCPU(ctx context.Context) (CPUSnapshot, error) {
	return withTimeout(ctx, s.timeout, "stat", func() (CPUSnapshot, error) {
		f, err := s.openStat()
		if err != nil {
			return CPUSnapshot{}, fmt.Errorf("%w: open stat: %w", ErrSourceUnavailable, err)
		}
		defer f.Close()
		return ParseStat(f)
	})
}

// ReadDisk stats mountPath and returns its total and available bytes.
func (s *Source) ReadDisk(ctx context.Context, mountPath string) (DiskSnapshot, error) {
	return withTimeout(ctx, s.timeout, "statfs "+mountPath, func() (DiskSnapshot, error) {
		st, err := s.statfs(mountPath)
		if err != nil {
			return DiskSnapshot{}, fmt.Errorf("%w: statfs %s: %w", ErrSourceUnavailable, mountPath, err)
		}
		return DiskSnapshot{
			Path:           mountPath,
			TotalBytes:     st.BlockSize * st.Blocks,
			AvailableBytes: st.BlockSize * st.Available,
		}, nil
	})
}

type readResult[T any] struct {
	val T
	err error
}

// withTimeout runs read on its own goroutine and gives up after timeout or
// when ctx ends. An abandoned read still closes its file when it returns.
func withTimeout[T any](ctx context.Context, timeout time.Duration, what string, read func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, what, err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan readResult[T], 1)
	go func() {
		v, err := read()
		done <- readResult[T]{val: v, err: err}
	}()

	select {
	case res := <-done:
		return res.val, res.err
	case <-ctx.Done():
		return zero, fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, what, ctx.Err())
	}
}
