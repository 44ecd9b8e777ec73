// Package syncx provides extended synchronization primitives
package syncx

import "sync"

// RWGuard wraps RWMutex around a value.
type RWGuard[T any] struct {
	mu    sync.RWMutex
	value T
}

// NewGuard creates a guarded value.
func NewGuard[T any](initial T) *RWGuard[T] {
	return &RWGuard[T]{value: initial}
}

// Read returns fn applied to the value under the read lock.
func Read[T, R any](g *RWGuard[T], fn func(T) R) R {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return fn(g.value)
}

// Write executes fn while holding write lock, fn receives pointer for mutation.
func (g *RWGuard[T]) Write(fn func(*T)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(&g.value)
}

// Get returns a copy of the value (T should be value type or immutable).
func (g *RWGuard[T]) Get() T {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.value
}

// Set replaces the value.
func (g *RWGuard[T]) Set(v T) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.value = v
}

// Versioned is a guarded value whose every Set bumps a version, so
// readers can tell whether they have seen the current value.
type Versioned[T any] struct {
	mu      sync.RWMutex
	value   T
	version uint64
}

// Set stores v and returns its version, starting at 1.
func (v *Versioned[T]) Set(val T) uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.value = val
	v.version++
	return v.version
}

// Get returns the value and its version; version 0 means never set.
func (v *Versioned[T]) Get() (T, uint64) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.value, v.version
}

// Clear resets the value to zero and bumps the version.
func (v *Versioned[T]) Clear() uint64 {
	var zero T
	return v.Set(zero)
}
