package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pidstore/internal/pid/models"
	"pidstore/pkg/platform/sentinel"
)

type recordKey struct {
	pidType string
	value   string
}

// InMemoryStore keeps identifier records in a map. Records are copied on the
// way in and out so callers never share state with the store.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[recordKey]*models.PersistentIdentifier
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[recordKey]*models.PersistentIdentifier)}
}

// Create inserts pid. Returns sentinel.ErrConflict if it already exists.
func (s *InMemoryStore) Create(_ context.Context, pid *models.PersistentIdentifier) error {
	if pid == nil {
		return fmt.Errorf("pid is required")
	}
	key := recordKey{pid.Type, pid.Value}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[key]; ok {
		return fmt.Errorf("pid %s:%s: %w", pid.Type, pid.Value, sentinel.ErrConflict)
	}
	s.records[key] = pid.Clone()
	return nil
}

// Find returns the record or sentinel.ErrNotFound.
func (s *InMemoryStore) Find(_ context.Context, pidType, value string) (*models.PersistentIdentifier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pid, ok := s.records[recordKey{pidType, value}]
	if !ok {
		return nil, fmt.Errorf("pid %s:%s: %w", pidType, value, sentinel.ErrNotFound)
	}
	return pid.Clone(), nil
}

// Save inserts or replaces pid.
func (s *InMemoryStore) Save(_ context.Context, pid *models.PersistentIdentifier) error {
	if pid == nil {
		return fmt.Errorf("pid is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[recordKey{pid.Type, pid.Value}] = pid.Clone()
	return nil
}

// Delete removes the record. Returns sentinel.ErrNotFound if absent.
func (s *InMemoryStore) Delete(_ context.Context, pidType, value string) error {
	key := recordKey{pidType, value}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[key]; !ok {
		return fmt.Errorf("pid %s:%s: %w", pidType, value, sentinel.ErrNotFound)
	}
	delete(s.records, key)
	return nil
}

// InMemorySyncCache keeps sync results for a bounded time.
type InMemorySyncCache struct {
	mu      sync.RWMutex
	entries map[string]SyncRecord
	ttl     time.Duration
	now     func() time.Time
}

// NewInMemorySyncCache creates a cache whose entries expire after ttl.
func NewInMemorySyncCache(ttl time.Duration) *InMemorySyncCache {
	return &InMemorySyncCache{
		entries: make(map[string]SyncRecord),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Put records the latest sync result for rec.Value.
func (c *InMemorySyncCache) Put(_ context.Context, rec SyncRecord) error {
	if rec.Value == "" {
		return fmt.Errorf("sync record value is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[rec.Value] = rec
	return nil
}

// Get returns the latest sync result, or sentinel.ErrNotFound when none is
// recorded or it has expired.
func (c *InMemorySyncCache) Get(_ context.Context, value string) (*SyncRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.entries[value]
	if !ok || c.now().Sub(rec.CheckedAt) >= c.ttl {
		return nil, fmt.Errorf("sync %s: %w", value, sentinel.ErrNotFound)
	}
	return &rec, nil
}
