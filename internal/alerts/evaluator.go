package alerts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hearthstay/server/internal/logger"
	"go.uber.org/zap"
)

// Snapshot is a set of monotonically increasing outcome counters
type Snapshot struct {
	UsageRecorded int64
	UsageFailed   int64
	UsageDropped  int64
	Rendered      int64
	RenderErrors  int64
	CacheHits     int64
	CacheMisses   int64
}

func (s Snapshot) sub(prev Snapshot) Snapshot {
	return Snapshot{
		UsageRecorded: s.UsageRecorded - prev.UsageRecorded,
		UsageFailed:   s.UsageFailed - prev.UsageFailed,
		UsageDropped:  s.UsageDropped - prev.UsageDropped,
		Rendered:      s.Rendered - prev.Rendered,
		RenderErrors:  s.RenderErrors - prev.RenderErrors,
		CacheHits:     s.CacheHits - prev.CacheHits,
		CacheMisses:   s.CacheMisses - prev.CacheMisses,
	}
}

// Source reads the current counters
type Source func() Snapshot

// Evaluator checks rules against the counter deltas of each window
type Evaluator struct {
	manager *Manager
	source  Source

	mu   sync.Mutex
	last Snapshot
}

// NewEvaluator creates an evaluator; the first window starts now
func NewEvaluator(manager *Manager, source Source) *Evaluator {
	return &Evaluator{manager: manager, source: source, last: source()}
}

// DefaultRules are the rules installed by the server
func DefaultRules() []*Rule {
	return []*Rule{
		{
			Name:       "Usage events dropped",
			Type:       TypeUsageDropRate,
			Level:      LevelWarning,
			Threshold:  1,
			MinSamples: 50,
			Cooldown:   5 * time.Minute,
			Enabled:    true,
		},
		{
			Name:       "Usage writes failing",
			Type:       TypeUsageFailureRate,
			Level:      LevelCritical,
			Threshold:  5,
			MinSamples: 20,
			Cooldown:   5 * time.Minute,
			Enabled:    true,
		},
		{
			Name:       "Render errors",
			Type:       TypeRenderErrorRate,
			Level:      LevelWarning,
			Threshold:  10,
			MinSamples: 20,
			Cooldown:   10 * time.Minute,
			Enabled:    true,
		},
		{
			Name:       "Low cache hit rate",
			Type:       TypeLowCacheHitRate,
			Level:      LevelInfo,
			Threshold:  50,
			MinSamples: 100,
			Cooldown:   10 * time.Minute,
			Enabled:    true,
		},
	}
}

// InstallDefaultRules adds DefaultRules to the manager
func (e *Evaluator) InstallDefaultRules() {
	for _, r := range DefaultRules() {
		e.manager.AddRule(r)
	}
}

// Evaluate closes the current window and checks every enabled rule against it.
// A rule whose condition no longer holds has its alerts resolved.
func (e *Evaluator) Evaluate() []*Alert {
	e.mu.Lock()
	current := e.source()
	window := current.sub(e.last)
	e.last = current
	e.mu.Unlock()

	now := e.manager.now()
	var raised []*Alert
	for _, rule := range e.manager.Rules() {
		if !rule.Enabled {
			continue
		}

		rate, samples := measure(rule.Type, window)
		if samples < rule.MinSamples {
			continue
		}

		if !breached(rule, rate) {
			if n := e.manager.ResolveRule(rule.ID); n > 0 {
				logger.Log.Info("Alert resolved", zap.String("rule", rule.ID), zap.Float64("rate", rate))
			}
			continue
		}
		if !rule.lastTriggered.IsZero() && now.Sub(rule.lastTriggered) < rule.Cooldown {
			continue
		}

		msg := fmt.Sprintf("[%s] %.1f%% over %d events (threshold %.1f%%)", rule.Name, rate, samples, rule.Threshold)
		alert := e.manager.Trigger(rule, msg, map[string]any{
			"rate":      rate,
			"samples":   samples,
			"threshold": rule.Threshold,
		})
		logger.Log.Warn("Alert triggered",
			zap.String("rule", rule.ID),
			zap.String("level", string(rule.Level)),
			zap.Float64("rate", rate),
			zap.Int64("samples", samples),
		)
		raised = append(raised, alert)
	}
	return raised
}

// Run evaluates every interval until ctx is done
func (e *Evaluator) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.Evaluate()
		case <-ctx.Done():
			return
		}
	}
}

// measure returns the rate in percent for t and the number of events it covers
func measure(t Type, w Snapshot) (float64, int64) {
	var part, total int64
	switch t {
	case TypeUsageDropRate:
		total = w.UsageRecorded + w.UsageFailed + w.UsageDropped
		part = w.UsageDropped
	case TypeUsageFailureRate:
		total = w.UsageRecorded + w.UsageFailed
		part = w.UsageFailed
	case TypeRenderErrorRate:
		total = w.Rendered + w.RenderErrors
		part = w.RenderErrors
	case TypeLowCacheHitRate:
		total = w.CacheHits + w.CacheMisses
		part = w.CacheHits
	}
	if total == 0 {
		return 0, 0
	}
	return float64(part) / float64(total) * 100, total
}

// breached is true when the rate is at or above threshold, or below it for hit rates
func breached(rule *Rule, rate float64) bool {
	if rule.Type == TypeLowCacheHitRate {
		return rate < rule.Threshold
	}
	return rate >= rule.Threshold
}
