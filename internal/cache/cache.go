// Package cache stores resolved reference metadata keyed by canonical
// identity. Entries carry their own expiry and are checked lazily on read:
// an expired entry behaves as absent and is evicted. Failures are cached too
// (negative-result memoization) with their own, shorter TTL.
//
// Two implementations share the Store interface: a bounded in-memory LRU and
// a SQLite-backed store that survives host restarts.
package cache

import (
	"context"
	"time"

	"github.com/devscholar/reference-engine/internal/domain"
)

// Entry is one cached resolution outcome: metadata on success, a failure
// marker otherwise. Exactly one of Metadata and Failure is set.
type Entry struct {
	Metadata *domain.Metadata          `json:"metadata,omitempty"`
	Failure  *domain.ResolutionFailure `json:"failure,omitempty"`

	// StoredAt is when the entry was written.
	StoredAt time.Time `json:"stored_at"`

	// ExpiresAt is when the entry stops being served.
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the entry is past its expiry at the given time.
func (e *Entry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// Store is the cache contract the resolver depends on. Implementations must
// be safe for concurrent use.
type Store interface {
	// Get returns the live entry for a key, or ok=false on a miss or an
	// expired entry. Expiry is checked lazily here; expired entries are
	// evicted as a side effect.
	Get(ctx context.Context, key string) (*Entry, bool, error)

	// Put stores an entry under the key with the given TTL, replacing any
	// existing entry.
	Put(ctx context.Context, key string, entry Entry, ttl time.Duration) error

	// Invalidate removes the entry for a key, if present.
	Invalidate(ctx context.Context, key string) error

	// Close releases any resources held by the store.
	Close() error
}
