package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemorySize is the default bound on cached identities. Metadata
// entries are small; this comfortably covers hover traffic for large
// workspaces while keeping long-running hosts bounded.
const DefaultMemorySize = 4096

// Memory is a bounded in-memory Store. Eviction is LRU when full; expiry is
// per-entry and checked lazily on Get. Safe for concurrent use.
type Memory struct {
	entries *lru.Cache[string, *Entry]
	now     func() time.Time
}

var _ Store = (*Memory)(nil)

// NewMemory creates an in-memory store bounded to size identities. A
// non-positive size falls back to DefaultMemorySize.
func NewMemory(size int) (*Memory, error) {
	if size <= 0 {
		size = DefaultMemorySize
	}
	entries, err := lru.New[string, *Entry](size)
	if err != nil {
		return nil, err
	}
	return &Memory{
		entries: entries,
		now:     time.Now,
	}, nil
}

// WithNow sets the clock, for tests.
func (m *Memory) WithNow(now func() time.Time) *Memory {
	m.now = now
	return m
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, key string) (*Entry, bool, error) {
	entry, ok := m.entries.Get(key)
	if !ok {
		return nil, false, nil
	}
	if entry.Expired(m.now()) {
		m.entries.Remove(key)
		return nil, false, nil
	}
	return entry, true, nil
}

// Put implements Store.
func (m *Memory) Put(_ context.Context, key string, entry Entry, ttl time.Duration) error {
	now := m.now()
	entry.StoredAt = now
	entry.ExpiresAt = now.Add(ttl)
	m.entries.Add(key, &entry)
	return nil
}

// Invalidate implements Store.
func (m *Memory) Invalidate(_ context.Context, key string) error {
	m.entries.Remove(key)
	return nil
}

// Len returns the number of entries currently held, expired or not.
func (m *Memory) Len() int {
	return m.entries.Len()
}

// Close implements Store.
func (m *Memory) Close() error {
	m.entries.Purge()
	return nil
}
