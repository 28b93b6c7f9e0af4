package tests

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/opencivic/agora/app/dto"
	businessflow "github.com/opencivic/agora/business_flow"
	"github.com/opencivic/agora/config"
	"github.com/opencivic/agora/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache() *businessflow.SearchCache {
	return businessflow.NewSearchCache(config.CacheConfig{}, 64, nil)
}

func countingCompute(computes *atomic.Int32, total int64) func(context.Context) (*dto.SearchResultPage, error) {
	return func(context.Context) (*dto.SearchResultPage, error) {
		computes.Add(1)
		return &dto.SearchResultPage{Total: total}, nil
	}
}

func TestSearchCacheReadThrough(t *testing.T) {
	cache := newTestCache()
	ctx := context.Background()

	var computes atomic.Int32
	compute := countingCompute(&computes, 7)

	first, err := cache.Get(ctx, "tags=garden", compute)
	require.NoError(t, err)
	assert.Equal(t, int64(7), first.Total)
	assert.Equal(t, int32(1), computes.Load())

	second, err := cache.Get(ctx, "tags=garden", compute)
	require.NoError(t, err)
	assert.Equal(t, int64(7), second.Total)
	// Served from cache, no recompute
	assert.Equal(t, int32(1), computes.Load())
}

func TestSearchCacheSingleFlight(t *testing.T) {
	cache := newTestCache()
	ctx := context.Background()

	var computes atomic.Int32
	release := make(chan struct{})
	compute := func(context.Context) (*dto.SearchResultPage, error) {
		computes.Add(1)
		<-release
		return &dto.SearchResultPage{Total: 42}, nil
	}

	const callers = 8
	var wg sync.WaitGroup
	results := make([]*dto.SearchResultPage, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = cache.Get(ctx, "q=solar", compute)
		}(i)
	}

	// Give every caller a chance to pile onto the flight before it lands
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), computes.Load(), "concurrent callers must share one computation")
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, int64(42), results[i].Total)
	}
}

func TestSearchCacheDistinctFingerprintsComputeIndependently(t *testing.T) {
	cache := newTestCache()
	ctx := context.Background()

	var computes atomic.Int32

	a, err := cache.Get(ctx, "tags=garden", countingCompute(&computes, 1))
	require.NoError(t, err)
	b, err := cache.Get(ctx, "tags=water", countingCompute(&computes, 2))
	require.NoError(t, err)

	assert.Equal(t, int32(2), computes.Load())
	assert.Equal(t, int64(1), a.Total)
	assert.Equal(t, int64(2), b.Total)

	// Both entries are now warm
	_, err = cache.Get(ctx, "tags=garden", countingCompute(&computes, 0))
	require.NoError(t, err)
	_, err = cache.Get(ctx, "tags=water", countingCompute(&computes, 0))
	require.NoError(t, err)
	assert.Equal(t, int32(2), computes.Load())
}

func TestSearchCacheInvalidation(t *testing.T) {
	ctx := context.Background()

	t.Run("InvalidateAllForcesRecompute", func(t *testing.T) {
		cache := newTestCache()
		var computes atomic.Int32
		compute := countingCompute(&computes, 3)

		_, err := cache.Get(ctx, "tags=garden", compute)
		require.NoError(t, err)
		cache.InvalidateAll(ctx)
		_, err = cache.Get(ctx, "tags=garden", compute)
		require.NoError(t, err)

		assert.Equal(t, int32(2), computes.Load())
	})

	t.Run("OnEntityChangedInvalidates", func(t *testing.T) {
		cache := newTestCache()
		var computes atomic.Int32
		compute := countingCompute(&computes, 3)

		_, err := cache.Get(ctx, "tags=garden", compute)
		require.NoError(t, err)
		cache.OnEntityChanged(ctx, models.EntityKindProject, 1)
		_, err = cache.Get(ctx, "tags=garden", compute)
		require.NoError(t, err)

		assert.Equal(t, int32(2), computes.Load())
	})

	t.Run("OnTagsChangedInvalidates", func(t *testing.T) {
		cache := newTestCache()
		var computes atomic.Int32
		compute := countingCompute(&computes, 3)

		_, err := cache.Get(ctx, "tags=garden", compute)
		require.NoError(t, err)
		cache.OnTagsChanged(ctx, models.EntityKindGroup, 1)
		_, err = cache.Get(ctx, "tags=garden", compute)
		require.NoError(t, err)

		assert.Equal(t, int32(2), computes.Load())
	})
}

func TestSearchCacheComputeErrorsAreNotCached(t *testing.T) {
	cache := newTestCache()
	ctx := context.Background()

	boom := errors.New("backend down")
	_, err := cache.Get(ctx, "tags=garden", func(context.Context) (*dto.SearchResultPage, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	var computes atomic.Int32
	page, err := cache.Get(ctx, "tags=garden", countingCompute(&computes, 9))
	require.NoError(t, err)
	assert.Equal(t, int64(9), page.Total)
	assert.Equal(t, int32(1), computes.Load())
}

func TestSearchCacheTTLExpiry(t *testing.T) {
	cache := businessflow.NewSearchCache(config.CacheConfig{DefaultTTL: 10 * time.Millisecond}, 64, nil)
	ctx := context.Background()

	var computes atomic.Int32
	compute := countingCompute(&computes, 5)

	_, err := cache.Get(ctx, "tags=garden", compute)
	require.NoError(t, err)

	time.Sleep(25 * time.Millisecond)

	_, err = cache.Get(ctx, "tags=garden", compute)
	require.NoError(t, err)
	assert.Equal(t, int32(2), computes.Load())
}

func TestSearchCacheNilFailsOpen(t *testing.T) {
	var cache *businessflow.SearchCache
	ctx := context.Background()

	var computes atomic.Int32
	compute := countingCompute(&computes, 11)

	page, err := cache.Get(ctx, "tags=garden", compute)
	require.NoError(t, err)
	assert.Equal(t, int64(11), page.Total)

	_, err = cache.Get(ctx, "tags=garden", compute)
	require.NoError(t, err)
	// No cache, so every call computes
	assert.Equal(t, int32(2), computes.Load())

	assert.NotPanics(t, func() {
		cache.InvalidateAll(ctx)
	})
}
