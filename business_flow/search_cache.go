package businessflow

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/opencivic/agora/app/dto"
	"github.com/opencivic/agora/config"
	"github.com/opencivic/agora/models"
	"github.com/opencivic/agora/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

var (
	searchCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_cache_requests_total",
			Help: "Search cache lookups partitioned by outcome",
		},
		[]string{"outcome"}, // hit_local, hit_redis, miss
	)

	searchCacheInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "search_cache_invalidations_total",
			Help: "Full-cache invalidations triggered by entity or tag mutations",
		},
	)
)

// SearchInvalidator is the notification boundary the CRUD layer calls into
// when entities or their tags change.
type SearchInvalidator interface {
	OnEntityChanged(ctx context.Context, kind models.EntityKind, entityID uint)
	OnTagsChanged(ctx context.Context, kind models.EntityKind, entityID uint)
	InvalidateAll(ctx context.Context)
}

type cacheEntry struct {
	page     *dto.SearchResultPage
	storedAt time.Time
}

// SearchCache memoizes result pages keyed by the canonical FilterState
// fingerprint. Reads are single-flight per fingerprint; invalidation is a
// generation bump, so stale entries become unreachable without a scan. The
// optional redis tier shares pages and the generation across processes; any
// redis failure degrades to local computation, never a blocked search.
type SearchCache struct {
	cfg        config.CacheConfig
	maxEntries int
	rc         *redis.Client

	group singleflight.Group

	mu      sync.RWMutex
	gen     uint64
	entries map[string]cacheEntry
}

// NewSearchCache creates a search cache. rc may be nil (in-process only).
func NewSearchCache(cfg config.CacheConfig, maxEntries int, rc *redis.Client) *SearchCache {
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	return &SearchCache{
		cfg:        cfg,
		maxEntries: maxEntries,
		rc:         rc,
		entries:    make(map[string]cacheEntry),
	}
}

var _ SearchInvalidator = (*SearchCache)(nil)

// Get returns the cached page for fingerprint or computes it read-through.
// Concurrent callers with the same fingerprint share one computation; callers
// with distinct fingerprints never block each other. A nil cache fails open
// to direct computation.
func (c *SearchCache) Get(ctx context.Context, fingerprint string, compute func(context.Context) (*dto.SearchResultPage, error)) (*dto.SearchResultPage, error) {
	if c == nil {
		return compute(ctx)
	}

	key := c.entryKey(ctx, fingerprint)

	if page, ok := c.lookupLocal(key); ok {
		searchCacheRequests.WithLabelValues("hit_local").Inc()
		return page, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// A concurrent flight may have landed between the lookup and Do.
		if page, ok := c.lookupLocal(key); ok {
			searchCacheRequests.WithLabelValues("hit_local").Inc()
			return page, nil
		}
		if page := c.lookupRedis(ctx, key); page != nil {
			searchCacheRequests.WithLabelValues("hit_redis").Inc()
			c.storeLocal(key, page)
			return page, nil
		}

		searchCacheRequests.WithLabelValues("miss").Inc()
		page, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		c.storeLocal(key, page)
		c.storeRedis(ctx, key, page)
		return page, nil
	})
	if err != nil {
		return nil, err
	}

	page, ok := v.(*dto.SearchResultPage)
	if !ok {
		// Bookkeeping returned the wrong shape; fail open rather than block search.
		return compute(ctx)
	}
	return page, nil
}

// OnEntityChanged invalidates every cached page. Facet counts are cheap to
// recompute and correctness trumps partial invalidation precision.
func (c *SearchCache) OnEntityChanged(ctx context.Context, kind models.EntityKind, entityID uint) {
	c.InvalidateAll(ctx)
}

// OnTagsChanged invalidates every cached page.
func (c *SearchCache) OnTagsChanged(ctx context.Context, kind models.EntityKind, entityID uint) {
	c.InvalidateAll(ctx)
}

// InvalidateAll bumps the generation, orphaning all existing keys, and clears
// the local map. With redis enabled the bump is shared so sibling processes
// converge within one generation.
func (c *SearchCache) InvalidateAll(ctx context.Context) {
	if c == nil {
		return
	}

	c.mu.Lock()
	c.gen++
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()

	if c.rc != nil {
		_ = c.rc.Incr(ctx, c.redisKey(utils.SearchGenerationKey)).Err()
	}
	searchCacheInvalidations.Inc()
}

func (c *SearchCache) entryKey(ctx context.Context, fingerprint string) string {
	return fmt.Sprintf("%d:%s", c.generation(ctx), fingerprint)
}

// generation prefers the shared redis counter and falls back to the local one
// on any error, including a redis tier that simply is not configured.
func (c *SearchCache) generation(ctx context.Context) uint64 {
	if c.rc != nil {
		if g, err := c.rc.Get(ctx, c.redisKey(utils.SearchGenerationKey)).Uint64(); err == nil {
			return g
		}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

func (c *SearchCache) lookupLocal(key string) (*dto.SearchResultPage, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.cfg.DefaultTTL > 0 && time.Since(entry.storedAt) > c.cfg.DefaultTTL {
		c.mu.Lock()
		// Re-check under the write lock; a fresh store may have replaced it.
		if cur, ok := c.entries[key]; ok && cur.storedAt.Equal(entry.storedAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return entry.page, true
}

func (c *SearchCache) storeLocal(key string, page *dto.SearchResultPage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// Full reset when over capacity; entries are cheap to recompute.
	if len(c.entries) >= c.maxEntries {
		c.entries = make(map[string]cacheEntry)
	}
	c.entries[key] = cacheEntry{page: page, storedAt: time.Now()}
}

// lookupRedis is best-effort: any error or decode failure reads as a miss.
func (c *SearchCache) lookupRedis(ctx context.Context, key string) *dto.SearchResultPage {
	if c.rc == nil {
		return nil
	}
	bs, err := c.rc.Get(ctx, c.redisKey(utils.SearchPageCachePrefix+key)).Bytes()
	if err != nil || len(bs) == 0 {
		return nil
	}
	var page dto.SearchResultPage
	if err := json.Unmarshal(bs, &page); err != nil {
		return nil
	}
	return &page
}

// storeRedis is best-effort: a failed write only costs a future recompute.
func (c *SearchCache) storeRedis(ctx context.Context, key string, page *dto.SearchResultPage) {
	if c.rc == nil {
		return
	}
	bs, err := json.Marshal(page)
	if err != nil {
		return
	}
	_ = c.rc.Set(ctx, c.redisKey(utils.SearchPageCachePrefix+key), bs, c.cfg.DefaultTTL).Err()
}

func (c *SearchCache) redisKey(key string) string {
	if c.cfg.RedisPrefix == "" {
		return key
	}
	return c.cfg.RedisPrefix + ":" + key
}
