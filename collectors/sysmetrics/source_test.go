package sysmetrics

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func TestSourceReadsProcRoot(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "meminfo"), []byte(sampleMeminfo), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "stat"), []byte("cpu 1 2 3 4 5 6 7 8 9 10\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	src := NewSource(dir, 0)
	if src.ProcRoot() != dir {
		t.Errorf("ProcRoot() = %q, want %q", src.ProcRoot(), dir)
	}

	mem, err := src.ReadMemory(context.Background())
	if err != nil {
		t.Fatalf("ReadMemory() unexpected error: %v", err)
	}
	if mem.TotalKB != 16384000 {
		t.Errorf("TotalKB = %d, want 16384000", mem.TotalKB)
	}

	cpu, err := src.ReadCPU(context.Background())
	if err != nil {
		t.Fatalf("ReadCPU() unexpected error: %v", err)
	}
	if cpu.Total() != 55 {
		t.Errorf("cpu.Total() = %d, want 55", cpu.Total())
	}
}

func TestSourceMissingFiles(t *testing.T) {
	src := NewSource(t.TempDir(), 0)

	if _, err := src.ReadMemory(context.Background()); !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("ReadMemory() error = %v, want ErrSourceUnavailable", err)
	}
	if _, err := src.ReadCPU(context.Background()); !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("ReadCPU() error = %v, want ErrSourceUnavailable", err)
	}
}

func TestSourceReadTimeout(t *testing.T) {
	src := NewSource("", 20*time.Millisecond)

	release := make(chan struct{})
	defer close(release)
	src.openMeminfo = func() (io.ReadCloser, error) {
		<-release
		return newReadCloser(sampleMeminfo), nil
	}

	start := time.Now()
	_, err := src.ReadMemory(context.Background())
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("ReadMemory() error = %v, want ErrSourceUnavailable", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("ReadMemory() error = %v, want DeadlineExceeded in chain", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("ReadMemory() took %v, should give up near the timeout", elapsed)
	}
}

func TestSourceCancelledContext(t *testing.T) {
	src := NewSource("", 0)
	src.openStat = func() (io.ReadCloser, error) {
		t.Error("openStat called with cancelled context")
		return newReadCloser(""), nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := src.ReadCPU(ctx); !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("ReadCPU() error = %v, want ErrSourceUnavailable", err)
	}
}

func TestSourceReadDisk(t *testing.T) {
	src := NewSource("", 0)
	src.statfs = func(path string) (FSStat, error) {
		if path != "/srv" {
			t.Errorf("statfs path = %q, want /srv", path)
		}
		return FSStat{BlockSize: 4096, Blocks: 1000, Available: 250}, nil
	}

	got, err := src.ReadDisk(context.Background(), "/srv")
	if err != nil {
		t.Fatalf("ReadDisk() unexpected error: %v", err)
	}
	want := DiskSnapshot{Path: "/srv", TotalBytes: 4096000, AvailableBytes: 1024000}
	if got != want {
		t.Errorf("ReadDisk() = %+v, want %+v", got, want)
	}

	src.statfs = func(string) (FSStat, error) { return FSStat{}, errors.New("no such file") }
	if _, err := src.ReadDisk(context.Background(), "/missing"); !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("ReadDisk() error = %v, want ErrSourceUnavailable", err)
	}
}

func TestStatfsRealFilesystem(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("statfs is only implemented on linux")
	}

	st, err := statfs(t.TempDir())
	if err != nil {
		t.Fatalf("statfs() unexpected error: %v", err)
	}
	if st.BlockSize == 0 || st.Blocks == 0 {
		t.Errorf("statfs() = %+v, want non-zero size", st)
	}
	if st.Available > st.Blocks {
		t.Errorf("statfs() available %d > blocks %d", st.Available, st.Blocks)
	}
}
