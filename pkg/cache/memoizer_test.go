package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// failingStore simulates an unavailable cache backend.
type failingStore struct{}

func (failingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, errors.New("backend down")
}

func (failingStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return errors.New("backend down")
}

func (failingStore) Delete(ctx context.Context, key string) error {
	return errors.New("backend down")
}

func (failingStore) Close() error { return nil }

func TestGetOrCompute_CachesResult(t *testing.T) {
	memo := NewMemoizer(NewMemoryStore(time.Minute), zaptest.NewLogger(t))
	ctx := context.Background()

	var calls atomic.Int32
	compute := func(ctx context.Context) ([]byte, error) {
		calls.Add(1)
		return []byte("result"), nil
	}

	value, hit, err := memo.GetOrCompute(ctx, "key", time.Minute, compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []byte("result"), value)

	value, hit, err = memo.GetOrCompute(ctx, "key", time.Minute, compute)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []byte("result"), value)

	assert.Equal(t, int32(1), calls.Load(), "second call should be served from cache")
}

func TestGetOrCompute_CollapsesConcurrentCalls(t *testing.T) {
	memo := NewMemoizer(NewMemoryStore(time.Minute), zaptest.NewLogger(t))
	ctx := context.Background()

	var calls atomic.Int32
	release := make(chan struct{})
	compute := func(ctx context.Context) ([]byte, error) {
		calls.Add(1)
		<-release
		return []byte("shared"), nil
	}

	var wg sync.WaitGroup
	results := make([][]byte, 10)
	hits := make([]bool, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			value, hit, err := memo.GetOrCompute(ctx, "hot-key", time.Minute, compute)
			assert.NoError(t, err)
			results[i] = value
			hits[i] = hit
		}(i)
	}

	// Give the goroutines time to pile onto the flight, then release it
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load(), "concurrent callers should share one computation")
	hitCount := 0
	for i, value := range results {
		assert.Equal(t, []byte("shared"), value)
		if hits[i] {
			hitCount++
		}
	}
	assert.Equal(t, 9, hitCount, "every caller but the one that computed shares a hit")
}

func TestGetOrCompute_ComputeSurvivesCallerCancellation(t *testing.T) {
	memo := NewMemoizer(NewMemoryStore(time.Minute), zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())

	value, hit, err := memo.GetOrCompute(ctx, "key", time.Minute, func(cctx context.Context) ([]byte, error) {
		// A shared flight must not die with the caller that started it.
		cancel()
		if err := cctx.Err(); err != nil {
			return nil, err
		}
		return []byte("done"), nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []byte("done"), value)
}

func TestGetOrCompute_ErrorsNotCached(t *testing.T) {
	memo := NewMemoizer(NewMemoryStore(time.Minute), zaptest.NewLogger(t))
	ctx := context.Background()

	var calls atomic.Int32
	computeErr := errors.New("query failed")

	_, _, err := memo.GetOrCompute(ctx, "key", time.Minute, func(ctx context.Context) ([]byte, error) {
		calls.Add(1)
		return nil, computeErr
	})
	require.ErrorIs(t, err, computeErr)

	value, hit, err := memo.GetOrCompute(ctx, "key", time.Minute, func(ctx context.Context) ([]byte, error) {
		calls.Add(1)
		return []byte("recovered"), nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []byte("recovered"), value)
	assert.Equal(t, int32(2), calls.Load(), "failed computation should be retried")
}

func TestGetOrCompute_StoreFailureFallsBackToCompute(t *testing.T) {
	memo := NewMemoizer(failingStore{}, zaptest.NewLogger(t))
	ctx := context.Background()

	value, hit, err := memo.GetOrCompute(ctx, "key", time.Minute, func(ctx context.Context) ([]byte, error) {
		return []byte("computed"), nil
	})
	require.NoError(t, err, "cache backend failure should not fail the request")
	assert.False(t, hit)
	assert.Equal(t, []byte("computed"), value)
}

func TestInvalidate(t *testing.T) {
	memo := NewMemoizer(NewMemoryStore(time.Minute), zaptest.NewLogger(t))
	ctx := context.Background()

	var calls atomic.Int32
	compute := func(ctx context.Context) ([]byte, error) {
		calls.Add(1)
		return []byte("v"), nil
	}

	_, _, err := memo.GetOrCompute(ctx, "key", time.Minute, compute)
	require.NoError(t, err)

	memo.Invalidate(ctx, "key")

	_, hit, err := memo.GetOrCompute(ctx, "key", time.Minute, compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, int32(2), calls.Load())
}
