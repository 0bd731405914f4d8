package alerts

import (
	"testing"
	"time"

	"github.com/hearthstay/server/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counters struct {
	snap Snapshot
}

func (c *counters) source() Snapshot { return c.snap }

func newTestEvaluator(t *testing.T) (*Evaluator, *Manager, *counters, *time.Time) {
	t.Helper()
	logger.InitializeForTest()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	m := NewManager()
	m.now = func() time.Time { return now }

	c := &counters{}
	e := NewEvaluator(m, c.source)
	e.InstallDefaultRules()
	return e, m, c, &now
}

func TestEvaluateTriggersOnFailureRate(t *testing.T) {
	e, m, c, _ := newTestEvaluator(t)

	c.snap.UsageRecorded = 90
	c.snap.UsageFailed = 10

	raised := e.Evaluate()
	require.Len(t, raised, 1)
	assert.Equal(t, TypeUsageFailureRate, raised[0].Type)
	assert.Equal(t, LevelCritical, raised[0].Level)
	assert.InDelta(t, 10.0, raised[0].Details["rate"], 0.001)

	stats := m.Stats()
	assert.Equal(t, 1, stats.Active)
	assert.Equal(t, 1, stats.Critical)
	assert.Equal(t, 4, stats.Rules)
}

func TestEvaluateSkipsSmallWindows(t *testing.T) {
	e, _, c, _ := newTestEvaluator(t)

	c.snap.UsageRecorded = 5
	c.snap.UsageFailed = 5

	assert.Empty(t, e.Evaluate())
}

func TestEvaluateUsesDeltas(t *testing.T) {
	e, _, c, _ := newTestEvaluator(t)

	c.snap.Rendered = 100
	c.snap.RenderErrors = 50
	require.Len(t, e.Evaluate(), 1)

	// the next window has no new errors
	c.snap.Rendered = 200
	assert.Empty(t, e.Evaluate())
}

func TestCooldownSuppressesRepeats(t *testing.T) {
	e, m, c, now := newTestEvaluator(t)

	c.snap.UsageRecorded, c.snap.UsageFailed = 50, 50
	require.Len(t, e.Evaluate(), 1)

	c.snap.UsageRecorded, c.snap.UsageFailed = 100, 100
	assert.Empty(t, e.Evaluate())

	*now = now.Add(6 * time.Minute)
	c.snap.UsageRecorded, c.snap.UsageFailed = 150, 150
	assert.Len(t, e.Evaluate(), 1)
	assert.Len(t, m.All(), 2)
}

func TestRecoveryResolves(t *testing.T) {
	e, m, c, _ := newTestEvaluator(t)

	c.snap.CacheHits, c.snap.CacheMisses = 10, 190
	raised := e.Evaluate()
	require.Len(t, raised, 1)
	assert.Equal(t, TypeLowCacheHitRate, raised[0].Type)

	c.snap.CacheHits, c.snap.CacheMisses = 400, 200
	assert.Empty(t, e.Evaluate())
	assert.Empty(t, m.Active())
	require.Len(t, m.All(), 1)
	assert.True(t, m.All()[0].Resolved())
}

func TestDisabledRuleIgnored(t *testing.T) {
	m := NewManager()
	m.AddRule(&Rule{Type: TypeUsageDropRate, Threshold: 1, Enabled: false})

	c := &counters{}
	e := NewEvaluator(m, c.source)
	c.snap.UsageDropped = 100

	assert.Empty(t, e.Evaluate())
}

func TestPruneKeepsNewest(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	m := NewManager()
	m.maxAlerts = 3
	m.now = func() time.Time { return now }

	rule := &Rule{Type: TypeRenderErrorRate, Level: LevelWarning}
	m.AddRule(rule)
	var last *Alert
	for i := 0; i < 5; i++ {
		now = now.Add(time.Minute)
		last = m.Trigger(rule, "render errors", nil)
	}

	all := m.All()
	require.Len(t, all, 3)
	assert.Equal(t, last.ID, all[0].ID)
}
