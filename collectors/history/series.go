package history

import (
	"sync"
	"time"
)

// DefaultCapacity is the number of samples a chart keeps. At the default
// one-second interval this is a little under 17 minutes.
const DefaultCapacity = 1000

// Sample is one charted point. Index is the position in the series at the
// time the copy was taken, so a snapshot always reads as a contiguous run
// 0..len-1 matching the chart's x axis.
type Sample struct {
	Index int       `json:"index"`
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

type point struct {
	t time.Time
	v float64
}

// Series is a named rolling history for one metric. Appends and reads may
// happen from different goroutines; readers always get a complete copy.
type Series struct {
	name string

	mu   sync.RWMutex
	ring *Ring[point]
}

// NewSeries creates an empty series. capacity <= 0 selects DefaultCapacity.
func NewSeries(name string, capacity int) *Series {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Series{
		name: name,
		ring: NewRing[point](capacity),
	}
}

// Name returns the metric name the series was created with.
func (s *Series) Name() string { return s.name }

// Append stores a sample taken at t. The returned Sample carries the index it
// landed on, which is Len()-1 after the append.
func (s *Series) Append(t time.Time, v float64) Sample {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ring.Push(point{t: t, v: v})
	return Sample{Index: s.ring.Len() - 1, Time: t, Value: v}
}

// Samples returns an ordered copy of the series, oldest first.
func (s *Series) Samples() []Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pts := s.ring.Slice()
	out := make([]Sample, len(pts))
	for i, p := range pts {
		out[i] = Sample{Index: i, Time: p.t, Value: p.v}
	}
	return out
}

// Values returns only the sample values, oldest first. This is the shape the
// sparkline and chart widgets consume.
func (s *Series) Values() []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]float64, s.ring.Len())
	for i := range out {
		out[i] = s.ring.At(i).v
	}
	return out
}

// Last returns the newest sample.
func (s *Series) Last() (Sample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.ring.Last()
	if !ok {
		return Sample{}, false
	}
	return Sample{Index: s.ring.Len() - 1, Time: p.t, Value: p.v}, true
}

// Len returns the number of retained samples.
func (s *Series) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ring.Len()
}

// Cap returns the capacity bound.
func (s *Series) Cap() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ring.Cap()
}

// Stats summarises the retained window.
type Stats struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Avg   float64 `json:"avg"`
	Count int     `json:"count"`
}

// Stats computes min/max/avg over the retained samples. The zero Stats is
// returned for an empty series.
func (s *Series) Stats() Stats {
	return Summarize(s.Values())
}

// Summarize computes Stats over an arbitrary value slice.
func Summarize(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}
	st := Stats{Min: values[0], Max: values[0], Count: len(values)}
	var sum float64
	for _, v := range values {
		if v < st.Min {
			st.Min = v
		}
		if v > st.Max {
			st.Max = v
		}
		sum += v
	}
	st.Avg = sum / float64(len(values))
	return st
}
