package llmcache

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("cache entry not found")

// Store is the persistence contract for cached generations. Each call is
// atomic for a single entry; callers do not get multi-step transactions.
type Store interface {
	// Lookup returns the entry for key, or ErrNotFound.
	Lookup(ctx context.Context, key string) (Entry, error)
	// Put inserts or replaces the entry for entry.Key.
	Put(ctx context.Context, entry Entry) error
	// Invalidate deletes key; a missing key is not an error.
	Invalidate(ctx context.Context, key string) error
	// DeleteExpired removes entries whose expiry is at or before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
