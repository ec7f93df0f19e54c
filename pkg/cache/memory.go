package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	// DefaultTTL is applied when Set is called with a zero TTL.
	DefaultTTL = 5 * time.Minute

	defaultCleanupInterval = 10 * time.Minute
)

// MemoryStore is an in-process Store backed by go-cache. Suitable for
// single-instance deployments; use RedisStore when running more than one
// engine instance against the same databases.
type MemoryStore struct {
	cache      *gocache.Cache
	defaultTTL time.Duration
}

// NewMemoryStore creates an in-memory store. defaultTTL <= 0 falls back
// to DefaultTTL.
func NewMemoryStore(defaultTTL time.Duration) *MemoryStore {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &MemoryStore{
		cache:      gocache.New(defaultTTL, defaultCleanupInterval),
		defaultTTL: defaultTTL,
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, found := s.cache.Get(key)
	if !found {
		return nil, false, nil
	}
	data, ok := value.([]byte)
	if !ok {
		// Entry of unexpected type; treat as miss
		s.cache.Delete(key)
		return nil, false, nil
	}
	return data, true, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	s.cache.Set(key, value, ttl)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}

func (s *MemoryStore) Close() error {
	s.cache.Flush()
	return nil
}

var _ Store = (*MemoryStore)(nil)
