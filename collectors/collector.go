// Package collectors provides the collection interface, the registry, and the
// runner that drives registered collectors on their interval and fans their
// results out to consumers.
package collectors

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Collector is the interface that all data collectors must implement.
type Collector interface {
	// Name returns the collector's unique identifier (e.g. "sysmetrics").
	// Names must be unique within a Registry.
	Name() string

	// Description returns a human-readable description of what this collector gathers.
	Description() string

	// Interval returns the polling interval for this collector.
	Interval() time.Duration

	// Collect gathers metrics and returns structured data.
	// The Data field in CollectResult must be JSON-serializable for caching.
	// Non-fatal issues should be reported as Warnings rather than errors.
	// The context should be respected for cancellation of long-running operations.
	Collect(ctx context.Context) (*CollectResult, error)
}

// CollectResult holds the output of a collection run.
type CollectResult struct {
	// Collector is the name of the collector that produced this result.
	Collector string `json:"collector"`

	// Timestamp records when the collection started.
	Timestamp time.Time `json:"timestamp"`

	// Data is the collector-specific structured data.
	Data interface{} `json:"data"`

	// Warnings contains non-fatal issues encountered during collection.
	Warnings []string `json:"warnings,omitempty"`
}

// Update is what the runner publishes after every collection.
type Update struct {
	Source    string
	Data      interface{}
	Warnings  []string
	Timestamp time.Time
	Error     error
}

// CollectorStatus tracks run statistics for one registered collector.
type CollectorStatus struct {
	Name        string
	Healthy     bool
	LastRun     time.Time
	LastLatency time.Duration
	LastError   error
	RunCount    int64
	ErrorCount  int64
}

// Registry holds registered collectors and their run status.
type Registry struct {
	mu         sync.RWMutex
	collectors []Collector
	status     map[string]*CollectorStatus
}

// NewRegistry creates a new empty collector registry.
func NewRegistry() *Registry {
	return &Registry{
		collectors: make([]Collector, 0),
		status:     make(map[string]*CollectorStatus),
	}
}

// Register adds a collector to the registry.
// If a collector with the same name already exists, it is replaced.
func (r *Registry) Register(c Collector) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.status[c.Name()] = &CollectorStatus{Name: c.Name(), Healthy: true}

	// Replace existing collector with same name
	for i, existing := range r.collectors {
		if existing.Name() == c.Name() {
			r.collectors[i] = c
			return
		}
	}
	r.collectors = append(r.collectors, c)
}

// Get returns a collector by name. The second return value indicates
// whether the collector was found.
func (r *Registry) Get(name string) (Collector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.collectors {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

// All returns all registered collectors.
func (r *Registry) All() []Collector {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Collector, len(r.collectors))
	copy(result, r.collectors)
	return result
}

// List returns the registered collector names in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.collectors))
	for i, c := range r.collectors {
		names[i] = c.Name()
	}
	return names
}

// Status returns a copy of the named collector's status.
func (r *Registry) Status(name string) (CollectorStatus, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.status[name]
	if !ok {
		return CollectorStatus{}, false
	}
	return *s, true
}

// AllStatus returns copies of every collector's status, sorted by name.
func (r *Registry) AllStatus() []CollectorStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]CollectorStatus, 0, len(r.status))
	for _, s := range r.status {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *Registry) updateStatus(name string, fn func(*CollectorStatus)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.status[name]
	if !ok {
		s = &CollectorStatus{Name: name}
		r.status[name] = s
	}
	fn(s)
}
