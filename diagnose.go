package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"gitlab.com/tinyland/lab/hostpulse/cache"
	"gitlab.com/tinyland/lab/hostpulse/collectors/sysmetrics"
	"gitlab.com/tinyland/lab/hostpulse/internal/format"
	"gitlab.com/tinyland/lab/hostpulse/pkg/config"
)

const (
	diagRule     = "------------------------------------------------------------"
	diagProbeKey = "diagnose-probe"
)

// diagnostics runs the checks behind "hostpulse diagnose" and counts the
// ones that failed. Warnings do not count.
type diagnostics struct {
	cfg    *config.Config
	w      io.Writer
	logger *slog.Logger
	failed int
}

func (d *diagnostics) section(title string) {
	fmt.Fprintf(d.w, "\n%s\n%s\n", title, diagRule)
}

func (d *diagnostics) pass(label, msg string, args ...any) {
	fmt.Fprintf(d.w, "   %-10s ✅ %s\n", label+":", fmt.Sprintf(msg, args...))
}

func (d *diagnostics) warn(label, msg string, args ...any) {
	fmt.Fprintf(d.w, "   %-10s ⚠️  %s\n", label+":", fmt.Sprintf(msg, args...))
}

func (d *diagnostics) fail(label string, err error) {
	d.failed++
	fmt.Fprintf(d.w, "   %-10s ❌ %v\n", label+":", err)
}

// run prints every check to w.
func (d *diagnostics) run(ctx context.Context) {
	cfg := d.cfg
	fmt.Fprintln(d.w, "🔍 hostpulse diagnostics")
	fmt.Fprintln(d.w, "============================================================")

	d.section("⚙️  Configuration")
	fmt.Fprintf(d.w, "   interval:  %s\n", cfg.Sampler.Interval)
	fmt.Fprintf(d.w, "   cpu mode:  %s\n", cfg.Sampler.CPUMode)
	fmt.Fprintf(d.w, "   proc root: %s\n", cfg.Sampler.ProcRoot)
	fmt.Fprintf(d.w, "   mount:     %s\n", cfg.Sampler.MountPath)
	fmt.Fprintf(d.w, "   cache dir: %s\n", cfg.General.CacheDir)

	d.section("📊 Data sources")
	d.checkSources(ctx)

	d.section("💾 Cache")
	store := d.checkCache()

	d.section("🫀 Sampler")
	d.checkSampler(store)

	fmt.Fprintln(d.w)
	if d.failed > 0 {
		fmt.Fprintf(d.w, "❌ %d check(s) failed\n", d.failed)
		return
	}
	fmt.Fprintln(d.w, "✨ All checks passed")
}

func (d *diagnostics) checkSources(ctx context.Context) {
	cfg := d.cfg
	src := sysmetrics.NewSource(cfg.Sampler.ProcRoot, cfg.Sampler.ReadTimeout.Duration)

	if mem, err := src.ReadMemory(ctx); err != nil {
		d.fail("meminfo", err)
	} else if ram, err := sysmetrics.DeriveRAMUsage(mem); err != nil {
		d.fail("meminfo", err)
	} else {
		d.pass("meminfo", "RAM %s used of %s", format.Percent(ram), format.MB(mem.TotalKB/1024))
	}

	if snap, err := src.ReadCPU(ctx); err != nil {
		d.fail("stat", err)
	} else if cpu, err := sysmetrics.DeriveCPUSinceBoot(snap); err != nil {
		d.fail("stat", err)
	} else {
		d.pass("stat", "CPU %s average since boot", format.Percent(cpu))
	}

	if ds, err := src.ReadDisk(ctx, cfg.Sampler.MountPath); err != nil {
		d.fail("disk", err)
	} else if usage, err := sysmetrics.DiskUsageOf(ds); err != nil {
		d.fail("disk", err)
	} else {
		d.pass("disk", "%s %d%% used, %s free", cfg.Sampler.MountPath, usage.Percent, format.MB(usage.FreeMB))
	}
}

// checkCache verifies the cache directory accepts a write. It returns nil
// when the store cannot be created.
func (d *diagnostics) checkCache() *cache.Store {
	store, err := cache.NewStore(d.cfg.General.CacheDir, d.logger)
	if err != nil {
		d.fail("directory", err)
		return nil
	}
	d.pass("directory", "%s", store.Dir())

	probe := map[string]string{"written": time.Now().Format(time.RFC3339)}
	if err := store.Set(diagProbeKey, probe); err != nil {
		d.fail("write", err)
		return store
	}
	if err := store.Remove(diagProbeKey); err != nil {
		d.fail("write", err)
		return store
	}
	d.pass("write", "ok")
	return store
}

// checkSampler reports the process publishing snapshots and what it last
// published. A missing sampler is a warning: the TUI samples on its own.
func (d *diagnostics) checkSampler(store *cache.Store) {
	if running, pid := newPIDFile(d.cfg.General.CacheDir, d.logger).running(); running {
		d.pass("pid file", "publisher running as PID %d", pid)
	} else {
		d.warn("pid file", `no headless sampler; start one with "hostpulse run"`)
	}

	if store == nil {
		return
	}
	maxAge := cache.StaleAfterTicks * d.cfg.Sampler.Interval.Duration
	snap, entry, err := cache.ReadSnapshot(store, maxAge)
	if err != nil {
		d.fail("snapshot", err)
		return
	}
	report := buildStatusReport(snap, entry, store.Path(cache.SnapshotKey), maxAge)
	switch {
	case snap == nil:
		d.warn("snapshot", "nothing published at %s", report.Snapshot)
	case report.State == "live":
		d.pass("snapshot", "%s, updated %s", report.State, format.FormatAge(report.age))
	default:
		d.warn("snapshot", "%s, updated %s", report.State, format.FormatAge(report.age))
	}
}

var errDiagnosticsFailed = errors.New("diagnostics failed")

func newDiagnoseCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "diagnose",
		Short: "Check data sources, cache directory and sampler",
		Long: `Read every data source once, probe the cache directory and report the
headless sampler. Exits non-zero when a source or the cache is unusable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := &diagnostics{
				cfg:    a.cfg,
				w:      cmd.OutOrStdout(),
				logger: newLogger("error", cmd.ErrOrStderr()),
			}
			d.run(cmd.Context())
			if d.failed > 0 {
				return fmt.Errorf("%w: %d check(s)", errDiagnosticsFailed, d.failed)
			}
			return nil
		},
	}
}
