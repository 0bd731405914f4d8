package repository

import (
	"context"
	"time"

	"github.com/hearthstay/server/internal/models"
	"gorm.io/gorm"
)

// UsageStats aggregates every usage event of one component
type UsageStats struct {
	Total         int64
	UniqueUsers   int64
	AvgLoadTime   float64
	AvgRenderTime float64
}

// PageCount is the number of usage events recorded on one page
type PageCount struct {
	Page  string `json:"page"`
	Count int64  `json:"count"`
}

// UsageRepository handles the append-only component_usages log
type UsageRepository interface {
	Create(ctx context.Context, usage *models.ComponentUsage) error
	Stats(ctx context.Context, componentID string) (*UsageStats, error)
	CountSince(ctx context.Context, componentID string, since time.Time) (int64, error)
	CountBetween(ctx context.Context, componentID string, from, to time.Time) (int64, error)
	TopPages(ctx context.Context, componentID string, limit int) ([]PageCount, error)
}

type usageRepository struct {
	db *gorm.DB
}

// NewUsageRepository creates a new usage repository
func NewUsageRepository(db *gorm.DB) UsageRepository {
	return &usageRepository{db: db}
}

func (r *usageRepository) Create(ctx context.Context, usage *models.ComponentUsage) error {
	if usage == nil || usage.ComponentID == "" {
		return ErrInvalidInput
	}
	return r.db.WithContext(ctx).Create(usage).Error
}

func (r *usageRepository) Stats(ctx context.Context, componentID string) (*UsageStats, error) {
	var stats UsageStats
	err := r.db.WithContext(ctx).
		Model(&models.ComponentUsage{}).
		Select(`COUNT(*) AS total,
			COUNT(DISTINCT user_id) AS unique_users,
			COALESCE(AVG(load_time_ms), 0) AS avg_load_time,
			COALESCE(AVG(render_time_ms), 0) AS avg_render_time`).
		Where("component_id = ?", componentID).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *usageRepository) CountSince(ctx context.Context, componentID string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ComponentUsage{}).
		Where("component_id = ? AND created_at >= ?", componentID, since).
		Count(&count).Error
	return count, err
}

func (r *usageRepository) CountBetween(ctx context.Context, componentID string, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ComponentUsage{}).
		Where("component_id = ? AND created_at >= ? AND created_at < ?", componentID, from, to).
		Count(&count).Error
	return count, err
}

func (r *usageRepository) TopPages(ctx context.Context, componentID string, limit int) ([]PageCount, error) {
	if limit <= 0 {
		limit = 5
	}
	var pages []PageCount
	err := r.db.WithContext(ctx).
		Model(&models.ComponentUsage{}).
		Select("page, COUNT(*) AS count").
		Where("component_id = ?", componentID).
		Group("page").
		Order("COUNT(*) DESC, page ASC").
		Limit(limit).
		Scan(&pages).Error
	return pages, err
}
