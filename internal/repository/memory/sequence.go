package memory

import (
	"context"
	"sync"
)

// SequenceStore serializes counter increments per scope key. One mutex
// guards all counters; every allocation is an atomic read-increment-
// return, so values are strictly monotonic with no gaps or duplicates
// under concurrent finalization.
type SequenceStore struct {
	mu       sync.Mutex
	counters map[string]int64

	// monthly counters are keyed scopeKey+yearMonth and reset by key
	monthly map[string]int64
}

func NewSequenceStore() *SequenceStore {
	return &SequenceStore{
		counters: make(map[string]int64),
		monthly:  make(map[string]int64),
	}
}

func (s *SequenceStore) Next(ctx context.Context, scopeKey string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters[scopeKey]++
	return s.counters[scopeKey], nil
}

func (s *SequenceStore) NextInMonth(ctx context.Context, scopeKey, yearMonth string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := scopeKey + ":" + yearMonth
	s.monthly[key]++
	return s.monthly[key], nil
}

func (s *SequenceStore) EnsureAtLeast(ctx context.Context, scopeKey string, floor int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.counters[scopeKey] < floor {
		s.counters[scopeKey] = floor
	}
	return nil
}
