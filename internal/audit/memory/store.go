// Package memory keeps the most recent audit records in a bounded ring.
package memory

import (
	"context"
	"sync"

	"github.com/JakeFAU/index-submitter/internal/audit"
)

const defaultCapacity = 100

// Store retains the newest records up to its capacity.
type Store struct {
	mu      sync.RWMutex
	records []audit.Record
	next    int
	full    bool
}

// NewStore creates a Store holding at most capacity records.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Store{records: make([]audit.Record, capacity)}
}

// Record stores rec, evicting the oldest record when full.
func (s *Store) Record(_ context.Context, rec audit.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[s.next] = rec
	s.next = (s.next + 1) % len(s.records)
	if s.next == 0 {
		s.full = true
	}
	return nil
}

// Recent returns up to limit records, newest first. A non-positive limit returns all.
func (s *Store) Recent(limit int) []audit.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	size := s.next
	if s.full {
		size = len(s.records)
	}
	if limit <= 0 || limit > size {
		limit = size
	}
	out := make([]audit.Record, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (s.next - i + len(s.records)) % len(s.records)
		out = append(out, s.records[idx])
	}
	return out
}
