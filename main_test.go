package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"gitlab.com/tinyland/lab/hostpulse/collectors/sysmetrics"
	"gitlab.com/tinyland/lab/hostpulse/display/tui"
	"gitlab.com/tinyland/lab/hostpulse/pkg/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeConfig writes a config file pointing the cache at a temp dir and
// returns its path and the cache dir.
func writeConfig(t *testing.T, extra string) (path, cacheDir string) {
	t.Helper()
	dir := t.TempDir()
	cacheDir = filepath.Join(dir, "cache")
	path = filepath.Join(dir, "config.toml")
	body := fmt.Sprintf("[general]\ncache_dir = %q\n%s", cacheDir, extra)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path, cacheDir
}

// writeProcRoot writes meminfo and stat fixtures giving 40% RAM and 20% CPU
// since boot.
func writeProcRoot(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"meminfo": "MemTotal: 1000 kB\nMemFree: 400 kB\nBuffers: 100 kB\nCached: 100 kB\n",
		"stat":    "cpu 100 0 100 800 0 0 0 0 0 0\ncpu0 100 0 100 800 0 0 0 0 0 0\n",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	return dir
}

func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"loud", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSamplerConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Sampler.CPUMode = "since_boot"
	cfg.Sampler.MountPath = "/data"

	got := samplerConfig(cfg)
	want := sysmetrics.Config{
		Interval:    time.Second,
		HistorySize: 1000,
		MountPath:   "/data",
		ProcRoot:    "/proc",
		ReadTimeout: 500 * time.Millisecond,
		CPUMode:     sysmetrics.CPUModeSinceBoot,
	}
	if got != want {
		t.Errorf("samplerConfig() = %+v, want %+v", got, want)
	}
}

func TestTUIOptions(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Display.StartTab = "Disk"
	cfg.Display.Theme = "minimal"
	cfg.Display.ChartHeight = 8

	opts := tuiOptions(cfg)
	if opts.StartTab != tui.TabDisk {
		t.Errorf("StartTab = %v, want Disk", opts.StartTab)
	}
	if opts.Theme.Name != "minimal" || opts.ChartHeight != 8 {
		t.Errorf("opts = %+v", opts)
	}
	if opts.AttachEvery != time.Second || opts.HistorySize != 1000 {
		t.Errorf("AttachEvery = %v, HistorySize = %d", opts.AttachEvery, opts.HistorySize)
	}
	if opts.LoadHost == nil {
		t.Error("LoadHost should be wired")
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		interval time.Duration
		mount    string
		level    string
	}{
		{"none", nil, time.Second, "/", "info"},
		{"interval", []string{"--interval", "250ms"}, 250 * time.Millisecond, "/", "info"},
		{"mount and verbose", []string{"--mount", "/srv", "-v"}, time.Second, "/srv", "debug"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f globalFlags
			fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
			addGlobalFlags(fs, &f)
			if err := fs.Parse(tt.args); err != nil {
				t.Fatalf("Parse: %v", err)
			}

			cfg := config.DefaultConfig()
			applyFlagOverrides(cfg, fs, f)

			if cfg.Sampler.Interval.Duration != tt.interval {
				t.Errorf("Interval = %v, want %v", cfg.Sampler.Interval, tt.interval)
			}
			if cfg.Sampler.MountPath != tt.mount {
				t.Errorf("MountPath = %q, want %q", cfg.Sampler.MountPath, tt.mount)
			}
			if cfg.General.LogLevel != tt.level {
				t.Errorf("LogLevel = %q, want %q", cfg.General.LogLevel, tt.level)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		extra   string
		args    []string
		wantErr string
	}{
		{"valid", "[display]\ntheme = \"high-contrast\"\n", nil, ""},
		{"unknown theme", "[display]\ntheme = \"neon\"\n", nil, "display.theme"},
		{"invalid file value", "[sampler]\ncpu_mode = \"average\"\n", nil, "cpu_mode"},
		{"invalid flag value", "", []string{"--interval", "10ms"}, "sampler.interval"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, _ := writeConfig(t, tt.extra)

			a := &app{}
			cmd := &cobra.Command{Use: "test"}
			addGlobalFlags(cmd.Flags(), &a.flags)
			if err := cmd.Flags().Parse(append([]string{"--config", path}, tt.args...)); err != nil {
				t.Fatalf("Parse: %v", err)
			}

			err := a.loadConfig(cmd, nil)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("loadConfig() = %v", err)
				}
				if a.cfg == nil || a.cfg.Display.Theme != "high-contrast" {
					t.Errorf("cfg = %+v", a.cfg)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("loadConfig() = %v, want error mentioning %q", err, tt.wantErr)
			}
		})
	}
}

func TestClaimPublishing(t *testing.T) {
	tests := []struct {
		name     string
		existing string
		want     bool
		wantPID  string
	}{
		{"free cache directory", "", true, strconv.Itoa(os.Getpid())},
		{"run sampler owns cache directory", strconv.Itoa(os.Getppid()), false, strconv.Itoa(os.Getppid())},
		{"dead owner", "999999999", true, strconv.Itoa(os.Getpid())},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&logs, nil))
			pf := newPIDFile(t.TempDir(), logger)
			if tt.existing != "" {
				if err := os.WriteFile(pf.path, []byte(tt.existing), 0o600); err != nil {
					t.Fatalf("WriteFile: %v", err)
				}
			}

			if got := claimPublishing(pf, logger); got != tt.want {
				t.Fatalf("claimPublishing() = %v, want %v", got, tt.want)
			}
			data, err := os.ReadFile(pf.path)
			if err != nil {
				t.Fatalf("ReadFile: %v", err)
			}
			if string(data) != tt.wantPID {
				t.Errorf("PID file = %q, want %q", data, tt.wantPID)
			}
			if !tt.want && !strings.Contains(logs.String(), "not publishing") {
				t.Errorf("expected a warning, logs:\n%s", logs.String())
			}

			if tt.want {
				pf.remove()
				if _, err := os.Stat(pf.path); !os.IsNotExist(err) {
					t.Error("remove should delete the claimed PID file")
				}
			}
		})
	}
}

func TestVersionCommand(t *testing.T) {
	// version must work even with an unusable config.
	out, err := executeRoot(t, "--config", "/nonexistent/dir/config.toml", "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "hostpulse "+version) {
		t.Errorf("version output = %q", out)
	}
}

func TestManCommand(t *testing.T) {
	out, err := executeRoot(t, "man")
	if err != nil {
		t.Fatalf("man: %v", err)
	}
	for _, want := range []string{".TH HOSTPULSE 1", ".B diagnose", `\-\-attach`, `\-o, \-\-output`} {
		if !strings.Contains(out, want) {
			t.Errorf("man page missing %q", want)
		}
	}
}
