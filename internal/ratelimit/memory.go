package ratelimit

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	count   int64
	resetAt time.Time
}

// MemoryStore is the in-process Store used when Redis is unavailable. Limits
// are per replica. Expired windows are evicted by Sweep, which the owner
// runs periodically through Run.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memEntry
	nowFunc func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*memEntry), nowFunc: time.Now}
}

// Increment implements Store.
func (s *MemoryStore) Increment(_ context.Context, key string, window time.Duration) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, resetAt := bucket(s.nowFunc(), window)
	k := bucketKey(key, idx)
	e, ok := s.entries[k]
	if !ok {
		e = &memEntry{resetAt: resetAt}
		s.entries[k] = e
	}
	e.count++
	return Result{Count: e.count, ResetAt: e.resetAt}, nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key string, window time.Duration) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, resetAt := bucket(s.nowFunc(), window)
	if e, ok := s.entries[bucketKey(key, idx)]; ok {
		return Result{Count: e.count, ResetAt: e.resetAt}, nil
	}
	return Result{ResetAt: resetAt}, nil
}

// Reset implements Store.
func (s *MemoryStore) Reset(_ context.Context, key string, window time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, _ := bucket(s.nowFunc(), window)
	delete(s.entries, bucketKey(key, idx))
	return nil
}

// Sweep evicts every window that has ended and returns how many it removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc()
	removed := 0
	for k, e := range s.entries {
		if !now.Before(e.resetAt) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked windows.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Run sweeps every interval until ctx is done.
func (s *MemoryStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
