// Package container holds the server's long-lived dependencies and shuts
// them down in reverse order of registration.
package container

import (
	"context"
	"errors"
	"sync"

	"github.com/hearthstay/server/internal/alerts"
	"github.com/hearthstay/server/internal/auth"
	"github.com/hearthstay/server/internal/cache"
	"github.com/hearthstay/server/internal/logger"
	"github.com/hearthstay/server/internal/service"
	"github.com/hearthstay/server/internal/tracking"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Container is populated with the With* setters during startup and read by
// the router and shutdown code.
type Container struct {
	mu sync.RWMutex

	db             *gorm.DB
	redis          *cache.RedisClient
	componentCache *cache.ComponentCache
	components     *service.ComponentService
	tracker        *tracking.Tracker
	auth           auth.TokenValidator
	alerts         *alerts.Manager

	cleanupFuncs []cleanup
}

type cleanup struct {
	name string
	fn   func(context.Context) error
}

// New creates an empty container
func New() *Container {
	return &Container{}
}

// WithDB registers the database connection
func (c *Container) WithDB(db *gorm.DB) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.db = db
	return c
}

// DB returns the database connection
func (c *Container) DB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// WithCache registers the Redis client and the descriptor cache built on it.
// Both may be nil when Redis is unavailable.
func (c *Container) WithCache(client *cache.RedisClient, components *cache.ComponentCache) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.redis = client
	c.componentCache = components
	return c
}

// Redis returns the Redis client, or nil
func (c *Container) Redis() *cache.RedisClient {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.redis
}

// ComponentCache returns the descriptor cache, or nil
func (c *Container) ComponentCache() *cache.ComponentCache {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.componentCache
}

// WithComponents registers the component service
func (c *Container) WithComponents(svc *service.ComponentService) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.components = svc
	return c
}

// Components returns the component service
func (c *Container) Components() *service.ComponentService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.components
}

// WithTracker registers the usage tracker
func (c *Container) WithTracker(t *tracking.Tracker) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tracker = t
	return c
}

// Tracker returns the usage tracker
func (c *Container) Tracker() *tracking.Tracker {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tracker
}

// WithAuth registers the token validator
func (c *Container) WithAuth(v auth.TokenValidator) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.auth = v
	return c
}

// Auth returns the token validator
func (c *Container) Auth() auth.TokenValidator {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.auth
}

// WithAlerts registers the alert manager
func (c *Container) WithAlerts(m *alerts.Manager) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alerts = m
	return c
}

// Alerts returns the alert manager
func (c *Container) Alerts() *alerts.Manager {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.alerts
}

// AlertSource reads the tracker, renderer and cache outcome counters
func (c *Container) AlertSource() alerts.Source {
	return func() alerts.Snapshot {
		var s alerts.Snapshot
		if t := c.Tracker(); t != nil {
			s.UsageRecorded, s.UsageFailed, s.UsageDropped = t.Stats()
		}
		if svc := c.Components(); svc != nil {
			s.Rendered, s.RenderErrors = svc.Renderer().Stats()
		}
		s.CacheHits, s.CacheMisses = c.ComponentCache().Stats()
		return s
	}
}

// OnCleanup registers fn to run during Cleanup. Cleanups run last registered
// first, so register a dependency before the things that use it.
func (c *Container) OnCleanup(name string, fn func(context.Context) error) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanupFuncs = append(c.cleanupFuncs, cleanup{name: name, fn: fn})
	return c
}

// Cleanup runs every registered cleanup in reverse order. A failing cleanup
// is logged and does not stop the rest; all failures are returned joined.
func (c *Container) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	funcs := c.cleanupFuncs
	c.cleanupFuncs = nil
	c.mu.Unlock()

	var errs []error
	for i := len(funcs) - 1; i >= 0; i-- {
		if err := funcs[i].fn(ctx); err != nil {
			logger.Log.Error("Cleanup failed",
				zap.String("dependency", funcs[i].name),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Validate checks that the dependencies the router needs are registered
func (c *Container) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var missing []string
	if c.db == nil {
		missing = append(missing, "database")
	}
	if c.components == nil {
		missing = append(missing, "component service")
	}
	if c.auth == nil {
		missing = append(missing, "auth service")
	}
	if len(missing) > 0 {
		return NewInitializationError("missing required dependencies", missing)
	}

	if c.componentCache == nil {
		logger.Log.Warn("Descriptor cache disabled, every read goes to the database")
	}
	if c.tracker == nil {
		logger.Log.Warn("Usage tracker not registered, rendered components will not be counted")
	}
	return nil
}
