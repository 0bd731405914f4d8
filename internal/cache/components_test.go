package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hearthstay/server/internal/logger"
	"github.com/hearthstay/server/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*ComponentCache, *miniredis.Miniredis) {
	t.Helper()
	logger.InitializeForTest()

	mr := miniredis.RunT(t)
	client := WrapClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { client.Close() })

	return NewComponentCache(client, time.Minute), mr
}

func TestComponentCacheRoundTrip(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	miss, err := c.GetByID(ctx, "abc")
	require.NoError(t, err)
	assert.Nil(t, miss)

	comp := &models.UIComponent{ID: "abc", Name: "promo-banner", ComponentType: "banner", IsActive: true}
	require.NoError(t, c.SetComponent(ctx, comp))

	assert.True(t, mr.Exists("ui-components:id:abc"))
	assert.True(t, mr.Exists("ui-components:name:promo-banner"))
	assert.Equal(t, time.Minute, mr.TTL("ui-components:id:abc"))

	byName, err := c.GetByName(ctx, "promo-banner")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, "abc", byName.ID)
	assert.True(t, byName.IsActive)

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestComponentCacheList(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	_, ok, err := c.GetList(ctx, "")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetList(ctx, "", nil))
	list, ok, err := c.GetList(ctx, "")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, list)
}

func TestComponentCacheInvalidate(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	comp := &models.UIComponent{ID: "abc", Name: "promo-banner"}
	other := &models.UIComponent{ID: "def", Name: "hero"}
	require.NoError(t, c.SetComponent(ctx, comp))
	require.NoError(t, c.SetComponent(ctx, other))
	require.NoError(t, c.SetList(ctx, "", []*models.UIComponent{comp, other}))
	require.NoError(t, c.SetList(ctx, FilterKey("marketing", "", "", ""), []*models.UIComponent{comp}))
	require.NoError(t, mr.Set("ui-components:name:old-banner", "{}"))

	comp.Name = "new-banner"
	require.NoError(t, c.Invalidate(ctx, comp, "promo-banner", "old-banner"))

	assert.False(t, mr.Exists("ui-components:id:abc"))
	assert.False(t, mr.Exists("ui-components:name:promo-banner"))
	assert.False(t, mr.Exists("ui-components:name:old-banner"))
	assert.False(t, mr.Exists(ListKey("")))
	assert.False(t, mr.Exists(ListKey(FilterKey("marketing", "", "", ""))))

	assert.True(t, mr.Exists("ui-components:id:def"), "unrelated entries survive")
	assert.True(t, mr.Exists("ui-components:name:hero"))
}

func TestComponentCacheEvict(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	comp := &models.UIComponent{ID: "abc", Name: "promo-banner"}
	require.NoError(t, c.SetComponent(ctx, comp))
	require.NoError(t, c.SetList(ctx, "", []*models.UIComponent{comp}))

	require.NoError(t, c.Evict(ctx, comp.ID, comp.Name))

	assert.False(t, mr.Exists("ui-components:id:abc"))
	assert.False(t, mr.Exists("ui-components:name:promo-banner"))
	assert.True(t, mr.Exists(ListKey("")), "listings expire on their own")
}

func TestFilterKeyKeepsValuesApart(t *testing.T) {
	a := FilterKey("a|b", "c", "", "")
	b := FilterKey("a", "b|c", "", "")
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, FilterKey("a|b", "c", "", ""))
	assert.NotEqual(t, FilterKey("", "", "true", ""), FilterKey("", "", "", "true"))
}

func TestComponentCacheErrorsSurface(t *testing.T) {
	c, mr := newTestCache(t)
	mr.SetError("ERR cache offline")

	_, err := c.GetByID(context.Background(), "abc")
	assert.Error(t, err)
}

func TestNilComponentCache(t *testing.T) {
	var c *ComponentCache
	ctx := context.Background()

	assert.Nil(t, NewComponentCache(nil, time.Minute))

	got, err := c.GetByID(ctx, "x")
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, c.SetComponent(ctx, &models.UIComponent{ID: "x"}))
	assert.NoError(t, c.Invalidate(ctx, &models.UIComponent{ID: "x"}))
	assert.NoError(t, c.Evict(ctx, "x", "y"))
	_, ok, err := c.GetList(ctx, "")
	assert.NoError(t, err)
	assert.False(t, ok)

	hits, misses := c.Stats()
	assert.Zero(t, hits)
	assert.Zero(t, misses)
}
