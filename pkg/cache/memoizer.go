package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Memoizer wraps a Store with read-through caching and request collapsing:
// concurrent callers asking for the same key share one computation instead
// of each hitting the backing database. Store failures are logged and
// treated as misses so a broken cache backend degrades to direct execution
// rather than failing requests. Only successful computations are cached.
type Memoizer struct {
	store  Store
	group  singleflight.Group
	logger *zap.Logger
}

// NewMemoizer creates a memoizer over the given store.
func NewMemoizer(store Store, logger *zap.Logger) *Memoizer {
	return &Memoizer{
		store:  store,
		logger: logger,
	}
}

// flightOutcome carries a flight's value plus whether the in-flight
// re-check found it in the store.
type flightOutcome struct {
	value     []byte
	fromStore bool
}

// GetOrCompute returns the cached value for key, or runs compute and caches
// its result with the given TTL. The bool return reports whether this
// caller was served without running compute itself: a store hit, the
// in-flight re-check, or joining another caller's flight.
func (m *Memoizer) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute func(ctx context.Context) ([]byte, error)) ([]byte, bool, error) {
	if value, found, err := m.store.Get(ctx, key); err != nil {
		cacheErrorsTotal.WithLabelValues("get").Inc()
		m.logger.Warn("cache get failed, computing directly",
			zap.String("key", key),
			zap.Error(err),
		)
	} else if found {
		cacheHitsTotal.Inc()
		return value, true, nil
	}

	// The flight runs on a detached context: once other callers join,
	// the initiator's cancellation must not fail them too.
	computeCtx := context.WithoutCancel(ctx)

	ranCompute := false
	value, err, _ := m.group.Do(key, func() (any, error) {
		ranCompute = true

		// Re-check under the flight: another caller may have populated
		// the store while we waited for the lock.
		if cached, found, err := m.store.Get(computeCtx, key); err == nil && found {
			return flightOutcome{value: cached, fromStore: true}, nil
		}

		computed, err := compute(computeCtx)
		if err != nil {
			// Failures are not cached; the next request retries.
			return nil, err
		}

		if err := m.store.Set(computeCtx, key, computed, ttl); err != nil {
			cacheErrorsTotal.WithLabelValues("set").Inc()
			m.logger.Warn("cache set failed",
				zap.String("key", key),
				zap.Error(err),
			)
		}
		return flightOutcome{value: computed}, nil
	})
	if err != nil {
		cacheMissesTotal.Inc()
		return nil, false, err
	}

	outcome := value.(flightOutcome)
	hit := !ranCompute || outcome.fromStore
	if hit {
		cacheHitsTotal.Inc()
	} else {
		cacheMissesTotal.Inc()
	}
	return outcome.value, hit, nil
}

// Invalidate removes a key so the next request recomputes it.
func (m *Memoizer) Invalidate(ctx context.Context, key string) {
	if err := m.store.Delete(ctx, key); err != nil {
		cacheErrorsTotal.WithLabelValues("delete").Inc()
		m.logger.Warn("cache delete failed",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}
