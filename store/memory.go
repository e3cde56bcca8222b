// Package store provides the reference reservation backends: a
// process-local in-memory map and a Redis adapter.
package store

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a single-process, volatile reservation store. Entries are
// evicted lazily on read once expired, with a background sweep keeping the
// map from growing under high key cardinality. It offers no cross-process
// guarantee; use the Redis store for multi-instance deployments.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]entry
}

type entry struct {
	marker    string
	expiresAt time.Time
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		data: make(map[string]entry),
	}

	// Start cleanup goroutine
	go s.cleanup()

	return s
}

// Get returns the live marker for key, lazily evicting an expired entry.
func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.data[key]
	if !exists {
		return "", false, nil
	}

	if time.Now().After(e.expiresAt) {
		delete(s.data, key)
		return "", false, nil
	}

	return e.marker, true, nil
}

// Set stores a marker with TTL, overwriting any existing entry
func (s *MemoryStore) Set(_ context.Context, key, marker string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = entry{
		marker:    marker,
		expiresAt: time.Now().Add(ttl),
	}

	return nil
}

// SetIfAbsent reserves key only when no live entry exists. The whole
// check-and-write runs under the store mutex, so of two concurrent calls
// for the same key exactly one acquires.
func (s *MemoryStore) SetIfAbsent(_ context.Context, key, marker string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if e, exists := s.data[key]; exists && now.Before(e.expiresAt) {
		return false, nil
	}

	s.data[key] = entry{
		marker:    marker,
		expiresAt: now.Add(ttl),
	}

	return true, nil
}

// Delete removes the entry for key; a missing key is a no-op
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)

	return nil
}

// cleanup periodically removes expired entries
func (s *MemoryStore) cleanup() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.Lock()
		now := time.Now()
		for key, e := range s.data {
			if now.After(e.expiresAt) {
				delete(s.data, key)
			}
		}
		s.mu.Unlock()
	}
}
