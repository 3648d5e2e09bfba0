package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// pidFileName is the PID file inside the cache directory. Whichever process
// publishes snapshots there holds it.
const pidFileName = "hostpulse.pid"

// pidFile guards the cache directory against two publishers. A second
// publisher would interleave its run ID with the first one's.
type pidFile struct {
	path   string
	logger *slog.Logger
}

func newPIDFile(cacheDir string, logger *slog.Logger) *pidFile {
	return &pidFile{path: filepath.Join(cacheDir, pidFileName), logger: logger}
}

// write records the current process PID.
func (f *pidFile) write() error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create PID file directory: %w", err)
	}
	pid := os.Getpid()
	if err := os.WriteFile(f.path, []byte(strconv.Itoa(pid)), 0o600); err != nil {
		return fmt.Errorf("write PID file: %w", err)
	}
	f.logger.Debug("wrote PID file", "path", f.path, "pid", pid)
	return nil
}

// remove deletes the PID file on shutdown.
func (f *pidFile) remove() {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		f.logger.Error("failed to remove PID file", "path", f.path, "error", err)
	}
}

// running reports whether another live process holds the PID file. A PID
// file that is corrupt or names a dead process is removed.
func (f *pidFile) running() (bool, int) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return false, 0
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		f.logger.Warn("corrupt PID file, removing", "path", f.path, "content", string(data))
		os.Remove(f.path)
		return false, 0
	}
	if pid == os.Getpid() {
		return false, 0
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		os.Remove(f.path)
		return false, 0
	}
	if err := process.Signal(syscall.Signal(0)); err != nil {
		f.logger.Warn("stale PID file, removing", "path", f.path, "pid", pid)
		os.Remove(f.path)
		return false, 0
	}
	return true, pid
}
