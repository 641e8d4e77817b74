// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package cache holds the resolved-URL cache: requested URL to final URL
// after redirects. Entries never expire and are never evicted.
package cache

import (
	"sync"
	"sync/atomic"
)

// Store maps a requested media URL to its resolved URL.
// Implementations must be safe for concurrent use; last writer wins.
type Store interface {
	// Get returns the resolved URL for key.
	Get(key string) (string, bool)
	// Set records the resolved URL for key.
	Set(key, value string)
	// Len returns the number of entries.
	Len() int
	// Stats returns cache statistics.
	Stats() Stats
}

// Stats holds cache performance counters.
type Stats struct {
	Hits        int64 // Number of successful Get operations
	Misses      int64 // Number of failed Get operations
	Sets        int64 // Number of Set operations
	CurrentSize int   // Current number of cached entries
}

// MemoryStore is the in-process Store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]string
	stats   struct {
		hits   atomic.Int64
		misses atomic.Int64
		sets   atomic.Int64
	}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]string)}
}

// Get retrieves the resolved URL for key.
func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.RLock()
	v, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		s.stats.misses.Add(1)
		return "", false
	}
	s.stats.hits.Add(1)
	return v, true
}

// Set stores the resolved URL for key, replacing any previous value.
func (s *MemoryStore) Set(key, value string) {
	s.mu.Lock()
	s.entries[key] = value
	s.mu.Unlock()
	s.stats.sets.Add(1)
}

// Len returns the number of cached entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Stats returns cache statistics.
func (s *MemoryStore) Stats() Stats {
	return Stats{
		Hits:        s.stats.hits.Load(),
		Misses:      s.stats.misses.Load(),
		Sets:        s.stats.sets.Load(),
		CurrentSize: s.Len(),
	}
}

var (
	sharedOnce  sync.Once
	sharedStore *MemoryStore
)

// Shared returns the process-wide store used by every player that is not
// given its own.
func Shared() *MemoryStore {
	sharedOnce.Do(func() {
		sharedStore = NewMemoryStore()
	})
	return sharedStore
}
