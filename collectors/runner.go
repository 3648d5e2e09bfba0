package collectors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultUpdateBufferSize is the default capacity of an updates channel.
	// A buffered channel keeps a slow consumer from stalling the ticker.
	DefaultUpdateBufferSize = 64

	// DefaultStopTimeout is the maximum time Stop() will wait for goroutines
	// to finish before returning.
	DefaultStopTimeout = 5 * time.Second
)

// errTracker deduplicates repeated identical errors per collector.
type errTracker struct {
	lastMsg    string
	lastTime   time.Time
	suppressed int64
}

// Runner starts and stops collector goroutines. Each registered collector
// runs in its own goroutine with an independent ticker. Collections of one
// collector never overlap, including those started by RunOnce. Every result
// is published to all update channels.
type Runner struct {
	registry    *Registry
	logger      *slog.Logger
	sinks       []chan<- Update
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	stopped     chan struct{}
	once        sync.Once
	errMu       sync.Mutex
	errTrackers map[string]*errTracker
	locksMu     sync.Mutex
	locks       map[string]*sync.Mutex
}

// NewRunner creates a runner that publishes collection results to every
// channel in updates. The runner closes those channels once all collector
// goroutines have exited, so consumers may range over them. If logger is nil,
// a no-op logger is used.
func NewRunner(registry *Registry, logger *slog.Logger, updates ...chan<- Update) *Runner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{
		registry:    registry,
		logger:      logger,
		sinks:       updates,
		stopped:     make(chan struct{}),
		errTrackers: make(map[string]*errTracker),
		locks:       make(map[string]*sync.Mutex),
	}
}

// Start launches a goroutine for each registered collector. Each goroutine
// runs Collect() immediately and then at the collector's Interval(). An empty
// registry is not an error; the runner simply does nothing.
//
// The provided context controls the lifetime of all collector goroutines.
// Cancelling it (or calling Stop) shuts them down.
func (r *Runner) Start(ctx context.Context) error {
	ctx, r.cancel = context.WithCancel(ctx)

	names := r.registry.List()
	if len(names) == 0 {
		r.finish()
		return nil
	}

	for _, name := range names {
		c, ok := r.registry.Get(name)
		if !ok {
			continue
		}
		r.wg.Add(1)
		go r.runCollector(ctx, c)
	}

	go func() {
		r.wg.Wait()
		r.finish()
	}()

	return nil
}

// finish closes the update channels and signals stopped.
func (r *Runner) finish() {
	for _, ch := range r.sinks {
		close(ch)
	}
	close(r.stopped)
}

// Done is closed once every collector goroutine has exited.
func (r *Runner) Done() <-chan struct{} {
	return r.stopped
}

// Stop cancels the runner context and waits for all collector goroutines to
// finish, with a timeout to prevent indefinite blocking.
func (r *Runner) Stop() {
	r.once.Do(func() {
		if r.cancel != nil {
			r.cancel()
		}
	})

	select {
	case <-r.stopped:
	case <-time.After(DefaultStopTimeout):
		r.logger.Warn("collectors: runner stop timed out", "timeout", DefaultStopTimeout)
	}
}

// RunOnce manually triggers a single collection for the named collector.
// It waits for a tick already in progress, then blocks until the collection
// completes or the context is cancelled.
func (r *Runner) RunOnce(ctx context.Context, name string) (*CollectResult, error) {
	c, ok := r.registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("collector %q not found", name)
	}

	start := time.Now()
	res, err := r.safeCollect(ctx, c)
	r.recordRun(name, start, time.Since(start), err)
	return res, err
}

// Health returns a map of collector name to healthy status for all registered
// collectors.
func (r *Runner) Health() map[string]bool {
	statuses := r.registry.AllStatus()
	result := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		result[s.Name] = s.Healthy
	}
	return result
}

// runCollector is the per-collector goroutine. It ticks at c.Interval(),
// performs a collection, updates status, and publishes the result. Errors
// are logged but do not stop the goroutine.
func (r *Runner) runCollector(ctx context.Context, c Collector) {
	defer r.wg.Done()

	interval := c.Interval()
	if interval <= 0 {
		interval = time.Second
	}

	// Run immediately on start, then tick.
	r.collectAndSend(ctx, c)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.collectAndSend(ctx, c)
		}
	}
}

// collectAndSend performs one collection cycle and publishes the result. It
// catches panics so a misbehaving collector cannot take down the process.
func (r *Runner) collectAndSend(ctx context.Context, c Collector) {
	name := c.Name()
	start := time.Now()

	res, err := r.safeCollect(ctx, c)
	r.recordRun(name, start, time.Since(start), err)

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		r.logCollectorError(name, err)
	}

	update := Update{
		Source:    name,
		Timestamp: start,
		Error:     err,
	}
	if res != nil {
		update.Data = res.Data
		update.Warnings = res.Warnings
		update.Timestamp = res.Timestamp
	}

	// Non-blocking send: a full channel drops this update for that consumer
	// only.
	for _, ch := range r.sinks {
		select {
		case ch <- update:
		default:
			r.logger.Debug("collectors: update channel full, dropping update", "source", name)
		}
	}
}

// lockFor returns the mutex serializing collections of the named collector.
func (r *Runner) lockFor(name string) *sync.Mutex {
	r.locksMu.Lock()
	defer r.locksMu.Unlock()
	mu := r.locks[name]
	if mu == nil {
		mu = &sync.Mutex{}
		r.locks[name] = mu
	}
	return mu
}

func (r *Runner) safeCollect(ctx context.Context, c Collector) (res *CollectResult, err error) {
	mu := r.lockFor(c.Name())
	mu.Lock()
	defer mu.Unlock()
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("collector %s panicked: %v", c.Name(), p)
		}
	}()
	return c.Collect(ctx)
}

func (r *Runner) recordRun(name string, start time.Time, latency time.Duration, err error) {
	r.registry.updateStatus(name, func(s *CollectorStatus) {
		s.LastRun = start
		s.RunCount++
		s.LastLatency = latency
		if err != nil {
			s.ErrorCount++
			s.LastError = err
			s.Healthy = false
		} else {
			s.LastError = nil
			s.Healthy = true
		}
	})
}

// logCollectorError deduplicates repeated identical errors from the same
// collector. If the same error message recurs within 1 hour, it is suppressed
// with a summary logged every 100 suppressions.
func (r *Runner) logCollectorError(name string, err error) {
	r.errMu.Lock()
	defer r.errMu.Unlock()

	msg := err.Error()
	tracker := r.errTrackers[name]
	if tracker == nil {
		tracker = &errTracker{}
		r.errTrackers[name] = tracker
	}
	now := time.Now()
	if msg == tracker.lastMsg && now.Sub(tracker.lastTime) < time.Hour {
		tracker.suppressed++
		if tracker.suppressed%100 == 0 {
			r.logger.Error("collectors: collector error", "collector", name, "repeated", tracker.suppressed, "error", err)
		}
		return
	}
	if tracker.suppressed > 0 {
		r.logger.Info("collectors: previous error repeated", "collector", name, "count", tracker.suppressed)
	}
	r.logger.Error("collectors: collector error", "collector", name, "error", err)
	tracker.lastMsg = msg
	tracker.lastTime = now
	tracker.suppressed = 0
}
