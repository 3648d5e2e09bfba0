package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration for hostpulse.
type Config struct {
	// General settings
	General GeneralConfig `toml:"general"`

	// Sampler settings
	Sampler SamplerConfig `toml:"sampler"`

	// Snapshot publication to the cache directory
	Publish PublishConfig `toml:"publish"`

	// TUI settings
	Display DisplayConfig `toml:"display"`
}

// GeneralConfig holds process-wide settings.
type GeneralConfig struct {
	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `toml:"log_level"`

	// CacheDir is where the published snapshot and the TUI log live.
	CacheDir string `toml:"cache_dir"`
}

// SamplerConfig controls the metrics sampler.
type SamplerConfig struct {
	// Interval between ticks.
	Interval Duration `toml:"interval"`

	// HistorySize is the number of samples kept per rolling history.
	HistorySize int `toml:"history_size"`

	// MountPath is the filesystem shown on the disk panel.
	MountPath string `toml:"mount_path"`

	// ProcRoot is the directory holding meminfo and stat.
	ProcRoot string `toml:"proc_root"`

	// ReadTimeout bounds a single counter read.
	ReadTimeout Duration `toml:"read_timeout"`

	// CPUMode is "delta" (usage since the previous tick) or "since_boot".
	CPUMode string `toml:"cpu_mode"`
}

// PublishConfig controls the snapshot written for the status command.
type PublishConfig struct {
	// Enabled writes every snapshot to <cache_dir>/sysmetrics.json.
	Enabled bool `toml:"enabled"`

	// IncludeHistory also writes the rolling histories.
	IncludeHistory bool `toml:"include_history"`
}

// DisplayConfig holds TUI settings.
type DisplayConfig struct {
	// ChartHeight is the number of rows used by the history chart.
	ChartHeight int `toml:"chart_height"`

	// StartTab is the tab shown at startup: "ram", "cpu" or "disk".
	StartTab string `toml:"start_tab"`

	// Theme names a built-in color theme: monitoring, minimal or
	// high-contrast.
	Theme string `toml:"theme"`
}

// Tabs lists the TUI tabs in display order.
var Tabs = []string{"ram", "cpu", "disk"}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if !validLogLevels[strings.ToLower(c.General.LogLevel)] {
		errs = append(errs, fmt.Errorf("general.log_level %q: want debug, info, warn or error", c.General.LogLevel))
	}
	if c.Sampler.Interval.Duration < 100*time.Millisecond {
		errs = append(errs, fmt.Errorf("sampler.interval %s: must be at least 100ms", c.Sampler.Interval))
	}
	if c.Sampler.HistorySize < 1 {
		errs = append(errs, fmt.Errorf("sampler.history_size %d: must be positive", c.Sampler.HistorySize))
	}
	if c.Sampler.MountPath == "" {
		errs = append(errs, errors.New("sampler.mount_path: must not be empty"))
	}
	if c.Sampler.ReadTimeout.Duration <= 0 {
		errs = append(errs, fmt.Errorf("sampler.read_timeout %s: must be positive", c.Sampler.ReadTimeout))
	}
	switch c.Sampler.CPUMode {
	case "delta", "since_boot":
	default:
		errs = append(errs, fmt.Errorf("sampler.cpu_mode %q: want delta or since_boot", c.Sampler.CPUMode))
	}
	if c.Display.ChartHeight < 3 {
		errs = append(errs, fmt.Errorf("display.chart_height %d: must be at least 3", c.Display.ChartHeight))
	}
	if TabIndex(c.Display.StartTab) < 0 {
		errs = append(errs, fmt.Errorf("display.start_tab %q: want ram, cpu or disk", c.Display.StartTab))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// TabIndex returns the position of name in Tabs, or -1.
func TabIndex(name string) int {
	for i, t := range Tabs {
		if strings.EqualFold(t, name) {
			return i
		}
	}
	return -1
}
