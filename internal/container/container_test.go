package container

import (
	"context"
	"errors"
	"testing"

	"github.com/hearthstay/server/internal/auth"
	"github.com/hearthstay/server/internal/config"
	"github.com/hearthstay/server/internal/database"
	"github.com/hearthstay/server/internal/logger"
	"github.com/hearthstay/server/internal/metrics"
	"github.com/hearthstay/server/internal/repository"
	"github.com/hearthstay/server/internal/service"
	"github.com/hearthstay/server/internal/tracking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.InitializeForTest()
	metrics.Initialize()
}

func TestCleanupRunsInReverseOrder(t *testing.T) {
	var order []string
	c := New().
		OnCleanup("database", func(context.Context) error { order = append(order, "database"); return nil }).
		OnCleanup("redis", func(context.Context) error { order = append(order, "redis"); return errors.New("ERR closed") }).
		OnCleanup("tracker", func(context.Context) error { order = append(order, "tracker"); return nil })

	err := c.Cleanup(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ERR closed")
	assert.Equal(t, []string{"tracker", "redis", "database"}, order)

	// cleanups run once
	require.NoError(t, c.Cleanup(context.Background()))
	assert.Len(t, order, 3)
}

func TestValidateReportsMissing(t *testing.T) {
	err := New().Validate()

	var initErr *InitializationError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, []string{"database", "component service", "auth service"}, initErr.MissingDeps)
	assert.Contains(t, err.Error(), "component service")
}

func TestAlertSourceReadsCounters(t *testing.T) {
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", SQLitePath: ":memory:"}, false)
	require.NoError(t, err)
	require.NoError(t, database.MigrateDB(db))

	svc := service.NewComponentService(service.Deps{
		Components: repository.NewComponentRepository(db),
		Usages:     repository.NewUsageRepository(db),
	})
	tracker := tracking.NewTracker(tracking.RecorderFunc(func(context.Context, tracking.Event) error { return nil }), tracking.Options{QueueSize: 1})
	require.True(t, tracker.Track(tracking.Event{ComponentID: "c-1"}))
	require.False(t, tracker.Track(tracking.Event{ComponentID: "c-1"}))

	c := New().
		WithDB(db).
		WithCache(nil, nil).
		WithComponents(svc).
		WithTracker(tracker).
		WithAuth(auth.NewMockAuthService())
	require.NoError(t, c.Validate())

	snap := c.AlertSource()()
	assert.Equal(t, int64(1), snap.UsageDropped)
	assert.Zero(t, snap.CacheHits)
	assert.Zero(t, snap.RenderErrors)
}
