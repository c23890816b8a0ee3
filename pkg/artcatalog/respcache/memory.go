package respcache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps catalog responses in process memory.
// This is suitable for single-instance deployments.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	now     func() time.Time
}

// NewMemoryStore creates an empty store. A nil clock defaults to time.Now.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		entries: make(map[string]*Entry),
		now:     now,
	}
}

// Get returns the unexpired entry for key.
func (s *MemoryStore) Get(_ context.Context, key string) (*Entry, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || entry.Expired(s.now()) {
		return nil, nil
	}
	return entry, nil
}

// Set stores entry and drops every other entry: only the current workbook
// identity is worth keeping.
func (s *MemoryStore) Set(_ context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = map[string]*Entry{entry.Key: entry}
	return nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error {
	return nil
}
