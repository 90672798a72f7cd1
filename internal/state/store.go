package state

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Store guards a snapshot value shared between request goroutines and the UI.
// Every read returns an independent copy made by the clone function.
type Store[T any] struct {
	mu    sync.RWMutex
	value T
	clone func(T) T
}

// NewStore returns a Store holding initial. A nil clone copies by value.
func NewStore[T any](initial T, clone func(T) T) *Store[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &Store[T]{value: initial, clone: clone}
}

// Update mutates the stored value under the write lock.
func (s *Store[T]) Update(fn func(*T)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.value)
}

// Apply is Update for mutations that can fail. The mutation runs under the
// write lock, so partial state written before an error is visible to readers
// only if fn leaves it behind.
func (s *Store[T]) Apply(fn func(*T) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.value)
}

// Snapshot returns a copy of the current value.
func (s *Store[T]) Snapshot() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clone(s.value)
}

// Sequence issues increasing tickets for requests whose responses may arrive
// out of order. Only the holder of the latest ticket may publish.
type Sequence struct {
	n atomic.Uint64
}

// Next returns a fresh ticket, invalidating all earlier ones.
func (s *Sequence) Next() uint64 {
	return s.n.Add(1)
}

// IsCurrent reports whether ticket is the most recently issued one.
func (s *Sequence) IsCurrent(ticket uint64) bool {
	return s.n.Load() == ticket
}

// Health records reachability of the remote API across calls.
type Health struct {
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive remote failures
	ProbeFailed         bool
}

// IsOffline returns true when the API has been unreachable for multiple calls
// or the last reachability probe failed.
func (h Health) IsOffline() bool {
	return h.ConsecutiveFailures >= 2 || h.ProbeFailed
}

// Record folds the outcome of one remote call into h. Only errors that say
// nothing about reachability should be passed as nil.
func (h *Health) Record(err error) {
	h.LastUpdated = time.Now()
	if err != nil {
		h.LastError = err
		h.ConsecutiveFailures++
		return
	}
	h.LastError = nil
	h.ConsecutiveFailures = 0
	h.ProbeFailed = false
}

// Clone returns a copy of h that shares no error instance with it.
func (h Health) Clone() Health {
	dup := h
	dup.LastError = CloneError(h.LastError)
	return dup
}

// CloneError wraps err so the snapshot does not hand out the stored instance.
// errors.Is and errors.As still see through it.
func CloneError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w", err)
}

// CloneSlice copies items, returning nil for empty input.
func CloneSlice[T any](items []T) []T {
	if len(items) == 0 {
		return nil
	}
	dup := make([]T, len(items))
	copy(dup, items)
	return dup
}

// CloneEach deep-copies items with clone.
func CloneEach[T any](items []T, clone func(T) T) []T {
	if len(items) == 0 {
		return nil
	}
	dup := make([]T, len(items))
	for i, item := range items {
		dup[i] = clone(item)
	}
	return dup
}
