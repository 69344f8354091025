// Package cell provides a mutex-guarded value with a single writer handle and
// any number of reader handles.
//
// The writer/reader split is structural: only code that was handed the
// *Writer can change the value.
package cell

import "sync"

type shared[T any] struct {
	mu  sync.RWMutex
	v   T
	ver uint32
}

// Writer is the only handle that can modify the cell.
type Writer[T any] struct{ s *shared[T] }

// Reader can only observe the cell.
type Reader[T any] struct{ s *shared[T] }

// New creates a cell holding initial.
func New[T any](initial T) (*Writer[T], *Reader[T]) {
	s := &shared[T]{v: initial}
	return &Writer[T]{s: s}, &Reader[T]{s: s}
}

// Set replaces the value.
func (w *Writer[T]) Set(v T) {
	w.s.mu.Lock()
	w.s.v = v
	w.s.ver++
	w.s.mu.Unlock()
}

// Update mutates the value in place under the lock.
func (w *Writer[T]) Update(f func(v *T)) {
	w.s.mu.Lock()
	f(&w.s.v)
	w.s.ver++
	w.s.mu.Unlock()
}

// Reader returns a read handle on the same cell.
func (w *Writer[T]) Reader() *Reader[T] { return &Reader[T]{s: w.s} }

// Get returns a copy of the current value.
func (r *Reader[T]) Get() T {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.v
}

// Version counts writes since creation (wrapping).
func (r *Reader[T]) Version() uint32 {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.ver
}
