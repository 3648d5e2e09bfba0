package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"gitlab.com/tinyland/lab/hostpulse/cache"
	"gitlab.com/tinyland/lab/hostpulse/collectors"
	"gitlab.com/tinyland/lab/hostpulse/collectors/sysmetrics"
	"gitlab.com/tinyland/lab/hostpulse/display/tui"
	"gitlab.com/tinyland/lab/hostpulse/pkg/config"
)

// logFileName is the TUI log inside the cache directory. The TUI owns the
// terminal, so nothing may be logged to stderr while it runs.
const logFileName = "hostpulse.log"

// parseLogLevel maps a config level name to a slog level. Unknown names map
// to info.
func parseLogLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newLogger(level string, w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLogLevel(level)}))
}

// openLogFile opens <dir>/hostpulse.log for appending.
func openLogFile(dir string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, logFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// samplerConfig converts the [sampler] section. Validate has already
// accepted the CPU mode.
func samplerConfig(cfg *config.Config) sysmetrics.Config {
	mode, _ := sysmetrics.ParseCPUMode(cfg.Sampler.CPUMode)
	return sysmetrics.Config{
		Interval:    cfg.Sampler.Interval.Duration,
		HistorySize: cfg.Sampler.HistorySize,
		MountPath:   cfg.Sampler.MountPath,
		ProcRoot:    cfg.Sampler.ProcRoot,
		ReadTimeout: cfg.Sampler.ReadTimeout.Duration,
		CPUMode:     mode,
	}
}

// newSamplerRegistry creates the sampler and a registry holding it.
func newSamplerRegistry(cfg *config.Config, logger *slog.Logger) (*sysmetrics.Sampler, *collectors.Registry) {
	sampler := sysmetrics.New(samplerConfig(cfg), logger)
	registry := collectors.NewRegistry()
	registry.Register(sampler)
	return sampler, registry
}

// tuiOptions converts the [display] section.
func tuiOptions(cfg *config.Config) tui.Options {
	return tui.Options{
		StartTab:    tui.Tab(config.TabIndex(cfg.Display.StartTab)),
		ChartHeight: cfg.Display.ChartHeight,
		Theme:       tui.GetThemePreset(cfg.Display.Theme),
		AttachEvery: cfg.Sampler.Interval.Duration,
		HistorySize: cfg.Sampler.HistorySize,
		LoadHost:    sysmetrics.ReadHostInfo,
	}
}

// claimPublishing takes the PID file for a TUI that publishes. It returns
// false when another process, usually "hostpulse run", already publishes
// into the cache directory.
func claimPublishing(pf *pidFile, logger *slog.Logger) bool {
	if running, pid := pf.running(); running {
		logger.Warn("cache directory has a running publisher; not publishing", "pid", pid, "path", pf.path)
		return false
	}
	if err := pf.write(); err != nil {
		logger.Warn("not publishing", "error", err)
		return false
	}
	return true
}

// runTUI starts the TUI. In attach mode it polls the published snapshot;
// otherwise it runs its own sampler and, when publishing is enabled and no
// other process publishes, also publishes for "hostpulse status".
func (a *app) runTUI(ctx context.Context, attach bool) error {
	cfg := a.cfg

	logFile, err := openLogFile(cfg.General.CacheDir)
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger := newLogger(cfg.General.LogLevel, logFile)

	opts := tuiOptions(cfg)

	if attach {
		store, err := cache.NewStore(cfg.General.CacheDir, logger)
		if err != nil {
			return err
		}
		opts.Attach = store
		logger.Info("tui attached to published snapshot", "path", store.Path(cache.SnapshotKey))
		return runProgram(ctx, tui.NewModel(opts), nil)
	}

	sampler, registry := newSamplerRegistry(cfg, logger)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	uiUpdates := make(chan collectors.Update, collectors.DefaultUpdateBufferSize)
	sinks := []chan<- collectors.Update{uiUpdates}

	pf := newPIDFile(cfg.General.CacheDir, logger)
	if cfg.Publish.Enabled && claimPublishing(pf, logger) {
		defer pf.remove()
		store, err := cache.NewStore(cfg.General.CacheDir, logger)
		if err != nil {
			return err
		}
		pubUpdates := make(chan collectors.Update, collectors.DefaultUpdateBufferSize)
		sinks = append(sinks, pubUpdates)
		go cache.NewPublisher(store, logger, cfg.Publish.IncludeHistory).Run(runCtx, pubUpdates)
	}

	runner := collectors.NewRunner(registry, logger, sinks...)
	logger.Info("tui sampler starting",
		"run_id", sampler.RunID(),
		"interval", sampler.Interval(),
		"mount", cfg.Sampler.MountPath,
		"cpu_mode", cfg.Sampler.CPUMode,
	)

	err = runProgram(ctx, tui.NewModel(opts), func(p *tea.Program) error {
		if err := runner.Start(runCtx); err != nil {
			return err
		}
		// Bridge goroutine: runner updates become Bubbletea messages.
		go tui.Feed(runCtx, uiUpdates, p.Send)
		return nil
	})

	cancel()
	runner.Stop()
	return err
}

// runProgram runs model full-screen until the user quits or ctx ends. start,
// when set, is called before the program takes over the terminal.
func runProgram(ctx context.Context, model tui.Model, start func(*tea.Program) error) error {
	defer model.Close()

	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	if start != nil {
		if err := start(p); err != nil {
			return err
		}
	}

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
