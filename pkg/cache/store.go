// Package cache provides result caching for chart data queries.
package cache

import (
	"context"
	"time"
)

// Store is a byte-oriented cache with per-entry TTL. Implementations must
// be safe for concurrent use. A miss is reported via the bool return, not
// an error; errors mean the store itself failed and callers should fall
// back to computing the value.
type Store interface {
	// Get retrieves a cached value. Returns (value, found, error).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A zero TTL uses the
	// store's default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any connections held by the store.
	Close() error
}

// NoOpStore is a Store that caches nothing, for running without a cache
// backend. Every Get is a miss.
type NoOpStore struct{}

func (NoOpStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

func (NoOpStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}

func (NoOpStore) Delete(ctx context.Context, key string) error {
	return nil
}

func (NoOpStore) Close() error {
	return nil
}

var _ Store = NoOpStore{}
