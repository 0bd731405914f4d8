package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/hearthstay/server/internal/logger"
	"github.com/hearthstay/server/internal/metrics"
	"github.com/hearthstay/server/internal/models"
	"go.uber.org/zap"
)

const (
	componentCacheName = "ui-components"
	listKeyPrefix      = "ui-components:list:"
	idKeyPrefix        = "ui-components:id:"
	nameKeyPrefix      = "ui-components:name:"
)

// ComponentCache is the read-through cache for component descriptors.
// A nil *ComponentCache is valid and caches nothing.
type ComponentCache struct {
	client *RedisClient
	ttl    time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

// NewComponentCache creates a descriptor cache; client may be nil
func NewComponentCache(client *RedisClient, ttl time.Duration) *ComponentCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ComponentCache{client: client, ttl: ttl}
}

// IDKey is the cache key for a descriptor looked up by id
func IDKey(id string) string { return idKeyPrefix + id }

// NameKey is the cache key for a descriptor looked up by name
func NameKey(name string) string { return nameKeyPrefix + name }

// ListKey is the cache key for one filtered listing
func ListKey(filter string) string {
	if filter == "" {
		filter = "all"
	}
	return listKeyPrefix + filter
}

// GetByID returns a cached descriptor; (nil, nil) on miss
func (c *ComponentCache) GetByID(ctx context.Context, id string) (*models.UIComponent, error) {
	return c.getOne(ctx, IDKey(id))
}

// GetByName returns a cached descriptor; (nil, nil) on miss
func (c *ComponentCache) GetByName(ctx context.Context, name string) (*models.UIComponent, error) {
	return c.getOne(ctx, NameKey(name))
}

// SetComponent caches a descriptor under both its id and name keys
func (c *ComponentCache) SetComponent(ctx context.Context, comp *models.UIComponent) error {
	if c == nil || comp == nil {
		return nil
	}
	payload, err := json.Marshal(comp)
	if err != nil {
		return err
	}
	if err := c.set(ctx, IDKey(comp.ID), payload); err != nil {
		return err
	}
	return c.set(ctx, NameKey(comp.Name), payload)
}

// GetList returns a cached listing; ok is false on miss
func (c *ComponentCache) GetList(ctx context.Context, filter string) ([]*models.UIComponent, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	raw, err := c.get(ctx, ListKey(filter))
	if err != nil || raw == "" {
		return nil, false, err
	}
	var out []*models.UIComponent
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, false, err
	}
	return out, true, nil
}

// SetList caches one filtered listing
func (c *ComponentCache) SetList(ctx context.Context, filter string, list []*models.UIComponent) error {
	if c == nil {
		return nil
	}
	if list == nil {
		list = []*models.UIComponent{}
	}
	payload, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return c.set(ctx, ListKey(filter), payload)
}

// Invalidate drops every listing plus the id and name keys of comp.
// names may carry a previous name after a rename.
func (c *ComponentCache) Invalidate(ctx context.Context, comp *models.UIComponent, names ...string) error {
	if c == nil {
		return nil
	}

	var keys []string
	if comp != nil {
		keys = append(keys, IDKey(comp.ID), NameKey(comp.Name))
	}
	for _, n := range names {
		if n != "" {
			keys = append(keys, NameKey(n))
		}
	}

	listKeys, scanErr := c.client.ScanKeys(ctx, listKeyPrefix+"*")
	keys = append(keys, listKeys...)

	err := c.client.Del(ctx, keys...)
	metrics.Get().CacheEvictionsTotal.WithLabelValues(componentCacheName).Add(float64(len(keys)))

	if err = errors.Join(scanErr, err); err != nil {
		logger.Log.Debug("Component cache invalidation failed",
			zap.Strings("keys", keys),
			zap.Error(err),
		)
		return err
	}

	logger.Log.Debug("Component cache invalidated",
		zap.Strings("keys", keys),
	)
	return nil
}

// Evict drops only the id and name keys of one descriptor. Listings keep
// their copy until CACHE_TTL expires.
func (c *ComponentCache) Evict(ctx context.Context, id, name string) error {
	if c == nil {
		return nil
	}
	keys := []string{IDKey(id)}
	if name != "" {
		keys = append(keys, NameKey(name))
	}
	if err := c.client.Del(ctx, keys...); err != nil {
		logger.Log.Debug("Component cache eviction failed",
			zap.Strings("keys", keys),
			zap.Error(err),
		)
		return err
	}
	metrics.Get().CacheEvictionsTotal.WithLabelValues(componentCacheName).Add(float64(len(keys)))
	return nil
}

func (c *ComponentCache) getOne(ctx context.Context, key string) (*models.UIComponent, error) {
	if c == nil {
		return nil, nil
	}
	raw, err := c.get(ctx, key)
	if err != nil || raw == "" {
		return nil, err
	}
	var comp models.UIComponent
	if err := json.Unmarshal([]byte(raw), &comp); err != nil {
		return nil, err
	}
	return &comp, nil
}

// get returns "" on a miss and records hit/miss metrics
func (c *ComponentCache) get(ctx context.Context, key string) (string, error) {
	start := time.Now()
	raw, err := c.client.Get(ctx, key)
	m := metrics.Get()
	m.CacheOperationDuration.WithLabelValues("get", componentCacheName).Observe(time.Since(start).Seconds())

	if errors.Is(err, ErrMiss) {
		c.misses.Add(1)
		m.CacheMissesTotal.WithLabelValues(componentCacheName).Inc()
		return "", nil
	}
	if err != nil {
		logger.Log.Debug("Cache retrieval failed",
			zap.String("key", key),
			zap.Error(err),
		)
		return "", err
	}

	c.hits.Add(1)
	m.CacheHitsTotal.WithLabelValues(componentCacheName).Inc()
	return raw, nil
}

func (c *ComponentCache) set(ctx context.Context, key string, payload []byte) error {
	start := time.Now()
	err := c.client.SetEx(ctx, key, payload, c.ttl)
	metrics.Get().CacheOperationDuration.WithLabelValues("set", componentCacheName).Observe(time.Since(start).Seconds())
	if err != nil {
		logger.Log.Debug("Cache write failed",
			zap.String("key", key),
			zap.Error(err),
		)
	}
	return err
}

// Stats returns lookup hits and misses; a nil cache reports zeros
func (c *ComponentCache) Stats() (hits, misses int64) {
	if c == nil {
		return 0, 0
	}
	return c.hits.Load(), c.misses.Load()
}

// FilterKey renders list filter values into a stable cache-key suffix.
// Each value is quoted so separators inside a value cannot collide.
func FilterKey(parts ...string) string {
	raw, _ := json.Marshal(parts)
	return string(raw)
}
