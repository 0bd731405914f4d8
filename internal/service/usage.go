package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	apperrors "github.com/hearthstay/server/internal/errors"
	"github.com/hearthstay/server/internal/logger"
	"github.com/hearthstay/server/internal/models"
	"github.com/hearthstay/server/internal/repository"
	"github.com/hearthstay/server/internal/telemetry"
	"github.com/hearthstay/server/internal/tracking"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	analyticsDays     = 7
	analyticsTopPages = 5

	// maxTimingMs bounds reported load and render times (24h)
	maxTimingMs = float64(24 * time.Hour / time.Millisecond)
)

// TrackInput is the body of a usage report
type TrackInput struct {
	Page               string                    `json:"page"`
	Context            map[string]any            `json:"context"`
	PerformanceMetrics models.PerformanceMetrics `json:"performanceMetrics"`
}

// RequestMeta is what the transport knows about the caller
type RequestMeta struct {
	UserID    *string
	UserAgent string
	IPAddress string
	RequestID string
}

// TrackUsage appends a usage row for component id and bumps its counter.
// The component must exist.
func (s *ComponentService) TrackUsage(ctx context.Context, id string, in TrackInput, meta RequestMeta) (*models.ComponentUsage, error) {
	if fields := validateTimings(in.PerformanceMetrics); len(fields) > 0 {
		return nil, apperrors.ValidationFailed(fields...)
	}

	comp, err := s.components.GetByID(ctx, id)
	if err != nil {
		return nil, apiError(err)
	}

	usage, err := s.record(ctx, comp, tracking.Event{
		ComponentID:  id,
		UserID:       meta.UserID,
		Page:         in.Page,
		Context:      in.Context,
		LoadTimeMs:   in.PerformanceMetrics.LoadTime,
		RenderTimeMs: in.PerformanceMetrics.RenderTime,
		UserAgent:    meta.UserAgent,
		IPAddress:    meta.IPAddress,
		RequestID:    meta.RequestID,
	})
	if err != nil {
		return nil, apiError(err)
	}
	s.metrics.RecordUsage("recorded")
	return usage, nil
}

// RecordUsage persists one tracker event; it makes the service a tracking.Recorder
func (s *ComponentService) RecordUsage(ctx context.Context, ev tracking.Event) error {
	ctx, span := telemetry.StartRecordUsage(ctx, ev.ComponentID, ev.Trace)
	comp, err := s.components.GetByID(ctx, ev.ComponentID)
	if err == nil {
		_, err = s.record(ctx, comp, ev)
	}
	telemetry.End(span, err)
	return err
}

// validateTimings rejects timings that are negative, not finite or over a day
func validateTimings(m models.PerformanceMetrics) []apperrors.FieldError {
	var fields []apperrors.FieldError
	check := func(field string, ms float64) {
		if math.IsNaN(ms) || math.IsInf(ms, 0) || ms < 0 || ms > maxTimingMs {
			fields = append(fields, apperrors.FieldError{
				Field:   "performanceMetrics." + field,
				Message: fmt.Sprintf("must be between 0 and %.0f milliseconds", maxTimingMs),
			})
		}
	}
	check("loadTime", m.LoadTime)
	check("renderTime", m.RenderTime)
	return fields
}

// record appends the usage row, bumps the counter and evicts the cached
// descriptor so the next read sees the new count. Listings lag until
// CACHE_TTL.
func (s *ComponentService) record(ctx context.Context, comp *models.UIComponent, ev tracking.Event) (*models.ComponentUsage, error) {
	usage := &models.ComponentUsage{
		ComponentID: ev.ComponentID,
		UserID:      ev.UserID,
		Page:        strings.TrimSpace(ev.Page),
		PerformanceMetrics: models.PerformanceMetrics{
			LoadTime:   ev.LoadTimeMs,
			RenderTime: ev.RenderTimeMs,
		},
		UserAgent: ev.UserAgent,
		IPAddress: ev.IPAddress,
	}
	if len(ev.Context) > 0 {
		raw, err := json.Marshal(ev.Context)
		if err != nil {
			return nil, apperrors.BadRequest("context must be a JSON object")
		}
		usage.Context = datatypes.JSON(raw)
	}

	if err := s.usages.Create(ctx, usage); err != nil {
		return nil, err
	}

	// the row is the source of truth; a lost increment is repaired by RecountUsage
	if err := s.components.IncrementUsage(ctx, ev.ComponentID); err != nil {
		logger.Log.Warn("Failed to increment usage count",
			logger.WithComponentID(ev.ComponentID),
			zap.Error(err),
		)
		return usage, nil
	}
	if err := s.cache.Evict(ctx, comp.ID, comp.Name); err != nil {
		logger.Log.Warn("Component cache eviction failed",
			logger.WithComponentID(comp.ID),
			zap.Error(err),
		)
	}
	return usage, nil
}

// DailyUsage is the number of usage events on one UTC day
type DailyUsage struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// Analytics summarises the usage log of one component
type Analytics struct {
	ComponentID       string                 `json:"componentId"`
	Name              string                 `json:"name"`
	UsageCount        int64                  `json:"usageCount"`
	TotalUsage        int64                  `json:"totalUsage"`
	UniqueUsers       int64                  `json:"uniqueUsers"`
	AverageLoadTime   float64                `json:"averageLoadTime"`
	AverageRenderTime float64                `json:"averageRenderTime"`
	RecentUsage       int64                  `json:"recentUsage"`
	Daily             []DailyUsage           `json:"daily"`
	TopPages          []repository.PageCount `json:"topPages"`
}

// Analytics aggregates the usage rows of component id. RecentUsage counts
// the rolling last seven days; Daily covers the last seven UTC days, oldest
// first, today included.
func (s *ComponentService) Analytics(ctx context.Context, id string) (*Analytics, error) {
	comp, err := s.components.GetByID(ctx, id)
	if err != nil {
		return nil, apiError(err)
	}

	stats, err := s.usages.Stats(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	from := today.AddDate(0, 0, -(analyticsDays - 1))

	recent, err := s.usages.CountSince(ctx, id, now.Add(-analyticsDays*24*time.Hour))
	if err != nil {
		return nil, err
	}

	daily := make([]DailyUsage, 0, analyticsDays)
	for day := from; !day.After(today); day = day.AddDate(0, 0, 1) {
		count, err := s.usages.CountBetween(ctx, id, day, day.AddDate(0, 0, 1))
		if err != nil {
			return nil, err
		}
		daily = append(daily, DailyUsage{Date: day.Format(time.DateOnly), Count: count})
	}

	pages, err := s.usages.TopPages(ctx, id, analyticsTopPages)
	if err != nil {
		return nil, err
	}
	if pages == nil {
		pages = []repository.PageCount{}
	}

	return &Analytics{
		ComponentID:       comp.ID,
		Name:              comp.Name,
		UsageCount:        comp.UsageCount,
		TotalUsage:        stats.Total,
		UniqueUsers:       stats.UniqueUsers,
		AverageLoadTime:   stats.AvgLoadTime,
		AverageRenderTime: stats.AvgRenderTime,
		RecentUsage:       recent,
		Daily:             daily,
		TopPages:          pages,
	}, nil
}

// RecountUsage resets usage_count to the number of recorded usage rows
func (s *ComponentService) RecountUsage(ctx context.Context, id string) (*models.UIComponent, error) {
	comp, err := s.components.GetByID(ctx, id)
	if err != nil {
		return nil, apiError(err)
	}

	stats, err := s.usages.Stats(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.components.SetUsageCount(ctx, id, stats.Total); err != nil {
		return nil, apiError(err)
	}

	s.invalidate(ctx, comp)
	logger.Log.Info("UI component usage recounted",
		logger.WithComponentID(id),
		zap.Int64("previous", comp.UsageCount),
		zap.Int64("recounted", stats.Total),
	)

	comp.UsageCount = stats.Total
	return comp, nil
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
