package sysmetrics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"gitlab.com/tinyland/lab/hostpulse/collectors"
	"gitlab.com/tinyland/lab/hostpulse/collectors/history"
)

const (
	// collectorName is the unique identifier for this collector.
	collectorName = "sysmetrics"

	// collectorDescription describes what this collector gathers.
	collectorDescription = "Local system metrics (CPU, RAM, Disk)"

	// DefaultInterval is the sampling period.
	DefaultInterval = 1 * time.Second

	// DefaultMountPath is the filesystem shown on the disk panel.
	DefaultMountPath = "/"

	// deviceLookupTimeout bounds the one-off partition listing.
	deviceLookupTimeout = 2 * time.Second
)

// Config controls a Sampler. Zero values select the defaults.
type Config struct {
	Interval    time.Duration
	HistorySize int
	MountPath   string
	ProcRoot    string
	ReadTimeout time.Duration
	CPUMode     CPUMode
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.HistorySize <= 0 {
		c.HistorySize = history.DefaultCapacity
	}
	if c.MountPath == "" {
		c.MountPath = DefaultMountPath
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.CPUMode == "" {
		c.CPUMode = CPUModeDelta
	}
	return c
}

// Sampler owns all metric state: the CPU tracker, both rolling histories and
// the last good value of every metric. Tick runs one full
// read, derive, append, publish cycle. Tick must not be called concurrently;
// Latest may be called from any goroutine.
type Sampler struct {
	cfg    Config
	logger *slog.Logger
	runID  string
	now    func() time.Time

	src            *Source
	cpu            *CPUTracker
	listPartitions PartitionLister

	cpuHistory *history.Series
	ramHistory *history.Series

	// Last good values, republished while a source is failing.
	cpuPct float64
	ramPct float64
	disk   DiskUsage

	device         string
	deviceResolved bool

	seq    uint64
	warns  *warnLog
	latest atomic.Pointer[Snapshot]
}

// New creates a Sampler. If logger is nil, a no-op logger is used.
func New(cfg Config, logger *slog.Logger) *Sampler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	cfg = cfg.withDefaults()

	src := NewSource(cfg.ProcRoot, cfg.ReadTimeout)
	return &Sampler{
		cfg:            cfg,
		logger:         logger,
		runID:          uuid.NewString(),
		now:            time.Now,
		src:            src,
		cpu:            NewCPUTracker(src.ReadCPU, cfg.CPUMode),
		listPartitions: listPartitions,
		cpuHistory:     history.NewSeries("cpu", cfg.HistorySize),
		ramHistory:     history.NewSeries("ram", cfg.HistorySize),
		disk:           DiskUsage{Mount: cfg.MountPath},
		warns:          newWarnLog(logger),
	}
}

// Name returns the collector's unique identifier.
func (s *Sampler) Name() string {
	return collectorName
}

// Description returns a human-readable description of what this collector gathers.
func (s *Sampler) Description() string {
	return collectorDescription
}

// Interval returns the sampling period.
func (s *Sampler) Interval() time.Duration {
	return s.cfg.Interval
}

// RunID returns the identifier stamped on every Snapshot from this sampler.
func (s *Sampler) RunID() string {
	return s.runID
}

// Config returns the effective configuration.
func (s *Sampler) Config() Config {
	return s.cfg
}

// Latest returns the most recently published snapshot, or nil before the
// first tick.
func (s *Sampler) Latest() *Snapshot {
	return s.latest.Load()
}

// Collect runs one tick and wraps the snapshot for the runner.
func (s *Sampler) Collect(ctx context.Context) (*collectors.CollectResult, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	snap := s.Tick(ctx)
	return &collectors.CollectResult{
		Collector: collectorName,
		Timestamp: snap.Timestamp,
		Data:      snap,
		Warnings:  snap.Warnings,
	}, nil
}

// Tick samples every metric once. A metric whose read or derivation fails is
// not appended to its history; the previous good value is republished with
// its Stale flag set. Tick never fails as a whole.
func (s *Sampler) Tick(ctx context.Context) *Snapshot {
	now := s.now()
	s.seq++

	snap := &Snapshot{
		RunID:     s.runID,
		Seq:       s.seq,
		Timestamp: now,
		Interval:  s.cfg.Interval,
	}

	if err := s.sampleCPU(ctx, now); err != nil {
		snap.CPUStale = true
		snap.Warnings = append(snap.Warnings, "cpu: "+err.Error())
	}
	if err := s.sampleRAM(ctx, now); err != nil {
		snap.RAMStale = true
		snap.Warnings = append(snap.Warnings, "ram: "+err.Error())
	}
	if err := s.sampleDisk(ctx); err != nil {
		snap.DiskStale = true
		snap.Warnings = append(snap.Warnings, "disk: "+err.Error())
	}

	snap.CPU = s.cpuPct
	snap.RAM = s.ramPct
	snap.Disk = s.disk
	snap.CPUHistory = s.cpuHistory.Samples()
	snap.RAMHistory = s.ramHistory.Samples()

	s.logger.Debug("sysmetrics sampled",
		"seq", snap.Seq,
		"cpu", fmt.Sprintf("%.2f%%", snap.CPU),
		"ram", fmt.Sprintf("%.2f%%", snap.RAM),
		"disk", fmt.Sprintf("%d%%", snap.Disk.Percent),
		"history_len", len(snap.CPUHistory),
		"warnings", len(snap.Warnings),
	)

	s.latest.Store(snap)
	return snap
}

func (s *Sampler) sampleCPU(ctx context.Context, now time.Time) error {
	pct, err := s.cpu.Sample(ctx)
	if errors.Is(err, ErrWarmingUp) {
		// Nothing to chart yet; the zero placeholder is published.
		return nil
	}
	if err != nil {
		s.warns.observe("cpu", err)
		return err
	}
	s.warns.clear("cpu")
	s.cpuPct = pct
	s.cpuHistory.Append(now, pct)
	return nil
}

func (s *Sampler) sampleRAM(ctx context.Context, now time.Time) error {
	mem, err := s.src.ReadMemory(ctx)
	if err == nil {
		var pct float64
		if pct, err = DeriveRAMUsage(mem); err == nil {
			s.warns.clear("ram")
			s.ramPct = pct
			s.ramHistory.Append(now, pct)
			return nil
		}
	}
	s.warns.observe("ram", err)
	return err
}

func (s *Sampler) sampleDisk(ctx context.Context) error {
	s.resolveDevice(ctx)

	snap, err := s.src.ReadDisk(ctx, s.cfg.MountPath)
	if err == nil {
		var usage DiskUsage
		if usage, err = DiskUsageOf(snap); err == nil {
			s.warns.clear("disk")
			usage.Device = s.device
			s.disk = usage
			return nil
		}
	}
	s.warns.observe("disk", err)
	return err
}

// resolveDevice looks up the device behind the mount path once.
func (s *Sampler) resolveDevice(ctx context.Context) {
	if s.deviceResolved || s.listPartitions == nil {
		return
	}
	s.deviceResolved = true

	ctx, cancel := context.WithTimeout(ctx, deviceLookupTimeout)
	defer cancel()

	parts, err := s.listPartitions(ctx)
	if err != nil {
		s.logger.Warn("sysmetrics: list partitions", "error", err)
		return
	}
	s.device = DeviceFor(s.cfg.MountPath, parts)
	s.disk.Device = s.device
	s.logger.Debug("sysmetrics: resolved mount device", "mount", s.cfg.MountPath, "device", s.device)
}

// warnLog logs a metric's failure when it first appears or changes, and logs
// once more when the metric recovers. A failing source at one sample per
// second would otherwise flood the log.
type warnLog struct {
	logger *slog.Logger
	last   map[string]string
}

func newWarnLog(logger *slog.Logger) *warnLog {
	return &warnLog{logger: logger, last: make(map[string]string)}
}

func (w *warnLog) observe(metric string, err error) {
	msg := err.Error()
	if w.last[metric] == msg {
		return
	}
	w.last[metric] = msg
	w.logger.Warn("sysmetrics: metric unavailable, holding last value",
		"metric", metric,
		"kind", errorKind(err),
		"error", msg,
	)
}

func (w *warnLog) clear(metric string) {
	if _, failing := w.last[metric]; !failing {
		return
	}
	delete(w.last, metric)
	w.logger.Info("sysmetrics: metric recovered", "metric", metric)
}

// Compile-time interface compliance check.
var _ collectors.Collector = (*Sampler)(nil)
