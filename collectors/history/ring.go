// Package history provides the bounded, insertion-ordered sample buffers that
// back the CPU and RAM charts. A full buffer evicts its oldest entry on every
// append, so the retained window always ends at the most recent sample.
package history

// Ring is a fixed-capacity circular buffer. Eviction is index arithmetic over
// a preallocated backing slice; nothing is shifted on append.
//
// Ring is not safe for concurrent use. Series wraps it with a lock.
type Ring[T any] struct {
	buf   []T
	start int // position of the oldest element in buf
	n     int // number of stored elements
}

// NewRing returns an empty ring holding at most capacity elements.
// A capacity below 1 is raised to 1.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

// Push appends v. When the ring is full the oldest element is dropped first.
// It reports whether an element was evicted.
func (r *Ring[T]) Push(v T) bool {
	if r.n == len(r.buf) {
		r.buf[r.start] = v
		r.start = (r.start + 1) % len(r.buf)
		return true
	}
	r.buf[(r.start+r.n)%len(r.buf)] = v
	r.n++
	return false
}

// At returns the i-th element counting from the oldest. It panics when i is
// out of range, like a slice index.
func (r *Ring[T]) At(i int) T {
	if i < 0 || i >= r.n {
		panic("history: ring index out of range")
	}
	return r.buf[(r.start+i)%len(r.buf)]
}

// Last returns the newest element.
func (r *Ring[T]) Last() (T, bool) {
	if r.n == 0 {
		var zero T
		return zero, false
	}
	return r.At(r.n - 1), true
}

// Len returns the number of stored elements.
func (r *Ring[T]) Len() int { return r.n }

// Cap returns the maximum number of elements.
func (r *Ring[T]) Cap() int { return len(r.buf) }

// Slice copies the stored elements into a new slice, oldest first.
func (r *Ring[T]) Slice() []T {
	out := make([]T, r.n)
	first := copy(out, r.buf[r.start:min(r.start+r.n, len(r.buf))])
	copy(out[first:], r.buf[:r.n-first])
	return out
}

// Reset drops every element without releasing the backing array.
func (r *Ring[T]) Reset() {
	clear(r.buf)
	r.start = 0
	r.n = 0
}
