package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// AppName names the config and cache directories.
const AppName = "hostpulse"

// Load reads configuration from the standard config path.
// Search order:
//  1. $XDG_CONFIG_HOME/hostpulse/config.toml
//  2. ~/.config/hostpulse/config.toml
//
// If no file exists, returns DefaultConfig() with env overrides applied.
func Load() (*Config, error) {
	for _, p := range configSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return LoadFromFile(p)
		}
	}
	cfg := DefaultConfig()
	applyEnvOverrides(cfg)
	return cfg, nil
}

// LoadFromFile reads configuration from a specific file path. A missing file
// yields the defaults.
func LoadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	return LoadFromReader(f)
}

// LoadFromReader reads configuration from an io.Reader. Keys absent from the
// input keep their defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()
	md, err := toml.NewDecoder(r).Decode(cfg)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config: unknown keys: %s", strings.Join(keys, ", "))
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		General: GeneralConfig{
			LogLevel: "info",
			CacheDir: filepath.Join(xdgCacheHome(home), AppName),
		},
		Sampler: SamplerConfig{
			Interval:    Duration{1 * time.Second},
			HistorySize: 1000,
			MountPath:   "/",
			ProcRoot:    "/proc",
			ReadTimeout: Duration{500 * time.Millisecond},
			CPUMode:     "delta",
		},
		Publish: PublishConfig{
			Enabled:        true,
			IncludeHistory: false,
		},
		Display: DisplayConfig{
			ChartHeight: 12,
			StartTab:    "ram",
			Theme:       "monitoring",
		},
	}
}

// applyEnvOverrides checks HOSTPULSE_* environment variables and overrides
// config values. Unparsable values are ignored.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HOSTPULSE_INTERVAL"); v != "" {
		var d Duration
		if err := d.UnmarshalText([]byte(v)); err == nil {
			cfg.Sampler.Interval = d
		}
	}
	if v := os.Getenv("HOSTPULSE_HISTORY_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Sampler.HistorySize = n
		}
	}
	if v := os.Getenv("HOSTPULSE_MOUNT"); v != "" {
		cfg.Sampler.MountPath = v
	}
	if v := os.Getenv("HOSTPULSE_PROC_ROOT"); v != "" {
		cfg.Sampler.ProcRoot = v
	}
	if v := os.Getenv("HOSTPULSE_CPU_MODE"); v != "" {
		cfg.Sampler.CPUMode = v
	}
	if v := os.Getenv("HOSTPULSE_LOG_LEVEL"); v != "" {
		cfg.General.LogLevel = v
	}
	if v := os.Getenv("HOSTPULSE_CACHE_DIR"); v != "" {
		cfg.General.CacheDir = v
	}
}

// configSearchPaths returns the ordered list of config file paths to try.
func configSearchPaths() []string {
	home, _ := os.UserHomeDir()
	var paths []string

	xdg := xdgConfigHome(home)
	paths = append(paths, filepath.Join(xdg, AppName, "config.toml"))

	// If XDG_CONFIG_HOME was explicitly set, also try the fallback default.
	defaultXDG := filepath.Join(home, ".config")
	if xdg != defaultXDG {
		paths = append(paths, filepath.Join(defaultXDG, AppName, "config.toml"))
	}

	return paths
}

// xdgConfigHome returns XDG_CONFIG_HOME or ~/.config as fallback.
func xdgConfigHome(home string) string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	return filepath.Join(home, ".config")
}

// xdgCacheHome returns XDG_CACHE_HOME or ~/.cache as fallback.
func xdgCacheHome(home string) string {
	if v := os.Getenv("XDG_CACHE_HOME"); v != "" {
		return v
	}
	return filepath.Join(home, ".cache")
}
