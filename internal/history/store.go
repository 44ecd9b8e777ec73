// Package history keeps a bounded log of recognised cards.
package history

import (
	"sync"
	"time"
)

// Entry is one recognised card.
type Entry struct {
	Time     time.Time `json:"time"`
	EventID  string    `json:"event_id"`
	TraceID  string    `json:"trace_id,omitempty"`
	BestID   string    `json:"best_id,omitempty"`
	Distance int       `json:"distance"`
	Matched  bool      `json:"matched"`
}

// Store holds the most recent entries in arrival order.
type Store struct {
	mu      sync.RWMutex
	entries []Entry
	maxSize int
}

// NewStore creates a store keeping at most maxEntries.
func NewStore(maxEntries int) *Store {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &Store{
		entries: make([]Entry, 0, maxEntries),
		maxSize: maxEntries,
	}
}

// Add appends e, dropping the oldest entry when full.
func (s *Store) Add(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	s.entries = append(s.entries, e)
	if len(s.entries) > s.maxSize {
		s.entries = s.entries[len(s.entries)-s.maxSize:]
	}
}

// Recent returns the entries newer than window, oldest first. A window of
// zero or less returns everything.
func (s *Store) Recent(window time.Duration) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if window <= 0 {
		return s.copyFrom(0)
	}
	cutoff := time.Now().Add(-window)
	for i, e := range s.entries {
		if !e.Time.Before(cutoff) {
			return s.copyFrom(i)
		}
	}
	return []Entry{}
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Clear drops every entry.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = s.entries[:0]
}

func (s *Store) copyFrom(i int) []Entry {
	out := make([]Entry, len(s.entries)-i)
	copy(out, s.entries[i:])
	return out
}
