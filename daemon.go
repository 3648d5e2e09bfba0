package main

import (
	"context"
	"fmt"
	"log/slog"

	"gitlab.com/tinyland/lab/hostpulse/cache"
	"gitlab.com/tinyland/lab/hostpulse/collectors"
	"gitlab.com/tinyland/lab/hostpulse/collectors/sysmetrics"
	"gitlab.com/tinyland/lab/hostpulse/internal/format"
	"gitlab.com/tinyland/lab/hostpulse/pkg/config"
)

// daemon is the headless sampler behind "hostpulse run". It drives the
// sampler through the runner and publishes every snapshot to the cache.
type daemon struct {
	config    *config.Config
	logger    *slog.Logger
	store     *cache.Store
	sampler   *sysmetrics.Sampler
	registry  *collectors.Registry
	publisher *cache.Publisher
	pid       *pidFile
}

// newDaemon wires the sampler, registry and cache store from cfg.
func newDaemon(cfg *config.Config, logger *slog.Logger) (*daemon, error) {
	store, err := cache.NewStore(cfg.General.CacheDir, logger)
	if err != nil {
		return nil, fmt.Errorf("daemon: create cache store: %w", err)
	}

	sampler, registry := newSamplerRegistry(cfg, logger)

	d := &daemon{
		config:   cfg,
		logger:   logger,
		store:    store,
		sampler:  sampler,
		registry: registry,
		pid:      newPIDFile(cfg.General.CacheDir, logger),
	}
	if cfg.Publish.Enabled {
		d.publisher = cache.NewPublisher(store, logger, cfg.Publish.IncludeHistory)
	}
	return d, nil
}

// run samples until ctx is cancelled. Two samplers publishing into the same
// cache directory would interleave their snapshots, so a second instance
// refuses to start.
func (d *daemon) run(ctx context.Context) error {
	if running, pid := d.pid.running(); running {
		return fmt.Errorf("sampler already running (PID %d)", pid)
	}
	if err := d.pid.write(); err != nil {
		return err
	}
	defer d.pid.remove()

	updates := make(chan collectors.Update, collectors.DefaultUpdateBufferSize)
	runner := collectors.NewRunner(d.registry, d.logger, updates)
	if err := runner.Start(ctx); err != nil {
		return fmt.Errorf("start runner: %w", err)
	}

	d.logger.Info("hostpulse sampler started",
		"version", version,
		"run_id", d.sampler.RunID(),
		"interval", d.sampler.Interval(),
		"mount", d.config.Sampler.MountPath,
		"cpu_mode", d.config.Sampler.CPUMode,
		"publish", d.publisher != nil,
		"snapshot", d.store.Path(cache.SnapshotKey),
	)

	if d.publisher != nil {
		d.publisher.Run(ctx, updates)
	} else {
		drain(ctx, updates)
	}

	runner.Stop()
	d.shutdown()
	return nil
}

// drain discards updates until the channel closes or ctx ends.
func drain(ctx context.Context, updates <-chan collectors.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-updates:
			if !ok {
				return
			}
		}
	}
}

// shutdown logs the final state of the sampler.
func (d *daemon) shutdown() {
	attrs := []any{"run_id", d.sampler.RunID()}
	if snap := d.sampler.Latest(); snap != nil {
		attrs = append(attrs,
			"ticks", snap.Seq,
			"cpu", format.Percent(snap.CPU),
			"ram", format.Percent(snap.RAM),
			"disk", fmt.Sprintf("%d%%", snap.Disk.Percent),
		)
	}
	if st, ok := d.registry.Status(d.sampler.Name()); ok {
		attrs = append(attrs, "runs", st.RunCount, "errors", st.ErrorCount)
	}
	d.logger.Info("hostpulse sampler stopped", attrs...)
}
