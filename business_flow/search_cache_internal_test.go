package businessflow

import (
	"context"
	"testing"
	"time"

	"github.com/opencivic/agora/app/dto"
	"github.com/opencivic/agora/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupLocalEvictsExpiredEntries(t *testing.T) {
	cache := NewSearchCache(config.CacheConfig{DefaultTTL: 5 * time.Millisecond}, 16, nil)
	ctx := context.Background()

	_, err := cache.Get(ctx, "tags=garden", func(context.Context) (*dto.SearchResultPage, error) {
		return &dto.SearchResultPage{Total: 1}, nil
	})
	require.NoError(t, err)

	key := cache.entryKey(ctx, "tags=garden")
	cache.mu.RLock()
	_, present := cache.entries[key]
	cache.mu.RUnlock()
	require.True(t, present)

	time.Sleep(10 * time.Millisecond)

	_, ok := cache.lookupLocal(key)
	assert.False(t, ok)

	// The expired entry must not linger until the capacity reset
	cache.mu.RLock()
	_, present = cache.entries[key]
	cache.mu.RUnlock()
	assert.False(t, present)
}
