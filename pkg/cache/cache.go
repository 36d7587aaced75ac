// Package cache provides the byte-oriented key/value stores behind the
// record cache.
//
// Every backend implements [Cache]. Values are opaque bytes with an optional
// TTL; a TTL of zero keeps the entry until it is overwritten or deleted.
// Stores are safe for concurrent use and concurrent writers to one key
// resolve as last-writer-wins.
//
// Backends:
//
//   - [MemoryCache]: process-local map, used by tests and the API server
//   - [FileCache]: one JSON file per key, written atomically
//   - [RedisCache]: go-redis, native key expiry
//   - [MongoCache]: one document per key with a TTL index
//   - [SQLCache]: sqlx over SQLite or PostgreSQL
//   - [NullCache]: stores nothing
//
// [Open] builds the configured backend. Keys come from a [Keyer].
package cache

import (
	"context"
	"time"
)

// Cache is a key/value store with per-entry expiry.
type Cache interface {
	// Get returns the value and true on a hit. A missing or expired key is
	// (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the store's connections.
	Close() error
}

// Clearer is implemented by stores that can drop every key with a prefix.
type Clearer interface {
	// Clear removes all keys starting with prefix and returns how many
	// were removed.
	Clear(ctx context.Context, prefix string) (int, error)
}
