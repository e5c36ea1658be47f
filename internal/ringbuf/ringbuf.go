// Package ringbuf provides a lock-free, single-producer single-consumer
// (SPSC) ring buffer used on the hot tick path, plus a fixed-capacity
// rolling window used by indicators that need the last N values.
package ringbuf

import "sync/atomic"

// cacheLine is the typical x86-64 cache line size used for padding.
const cacheLine = 64

// Ring is a lock-free SPSC ring buffer.
// Size must be a power of two for fast bitwise modulo.
type Ring[T any] struct {
	buf  []T
	mask uint64

	// Separate cache lines to prevent false sharing between producer
	// and consumer.
	_pad0 [cacheLine]byte
	head  atomic.Uint64 // written by producer
	_pad1 [cacheLine]byte
	tail  atomic.Uint64 // written by consumer
	_pad2 [cacheLine]byte

	overflow atomic.Uint64
}

// New creates a ring buffer. capacity is rounded up to the next power of
// two. Minimum capacity is 2.
func New[T any](capacity int) *Ring[T] {
	n := nextPow2(capacity)
	if n < 2 {
		n = 2
	}
	return &Ring[T]{
		buf:  make([]T, n),
		mask: uint64(n - 1),
	}
}

// Push appends a value. Returns false if the buffer is full (the value
// is NOT written in that case). Non-blocking.
func (r *Ring[T]) Push(v T) bool {
	head := r.head.Load()
	tail := r.tail.Load()

	if head-tail >= uint64(len(r.buf)) {
		r.overflow.Add(1)
		return false
	}

	r.buf[head&r.mask] = v
	r.head.Store(head + 1)
	return true
}

// Pop retrieves the next value. Returns false if the buffer is empty.
// Non-blocking.
func (r *Ring[T]) Pop() (T, bool) {
	tail := r.tail.Load()
	head := r.head.Load()

	if tail >= head {
		var zero T
		return zero, false
	}

	v := r.buf[tail&r.mask]
	r.tail.Store(tail + 1)
	return v, true
}

// Len returns the current number of items in the buffer.
func (r *Ring[T]) Len() int {
	return int(r.head.Load() - r.tail.Load())
}

// Cap returns the buffer capacity.
func (r *Ring[T]) Cap() int {
	return len(r.buf)
}

// Overflow returns the total number of dropped pushes due to full buffer.
func (r *Ring[T]) Overflow() uint64 {
	return r.overflow.Load()
}

// nextPow2 returns the smallest power of 2 >= n.
func nextPow2(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

// Window is a fixed-capacity rolling window. Appending past capacity
// evicts the oldest value. Not safe for concurrent use; indicator state
// is single-goroutine by construction.
type Window[T any] struct {
	buf   []T
	start int
	n     int
}

// NewWindow creates a rolling window holding at most capacity values.
func NewWindow[T any](capacity int) *Window[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Window[T]{buf: make([]T, capacity)}
}

// Append adds a value, evicting and returning the oldest when full.
func (w *Window[T]) Append(v T) (evicted T, full bool) {
	if w.n < len(w.buf) {
		w.buf[(w.start+w.n)%len(w.buf)] = v
		w.n++
		return evicted, false
	}
	evicted = w.buf[w.start]
	w.buf[w.start] = v
	w.start = (w.start + 1) % len(w.buf)
	return evicted, true
}

// Len returns the number of values currently held.
func (w *Window[T]) Len() int { return w.n }

// Full reports whether the window has reached capacity.
func (w *Window[T]) Full() bool { return w.n == len(w.buf) }

// At returns the i-th value, 0 being the oldest.
func (w *Window[T]) At(i int) T {
	return w.buf[(w.start+i)%len(w.buf)]
}

// Last returns the most recent value. Panics if empty.
func (w *Window[T]) Last() T {
	return w.At(w.n - 1)
}

// Do calls fn for each value from oldest to newest.
func (w *Window[T]) Do(fn func(T)) {
	for i := 0; i < w.n; i++ {
		fn(w.At(i))
	}
}
