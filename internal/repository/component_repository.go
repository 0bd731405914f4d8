package repository

import (
	"context"
	"errors"

	"github.com/hearthstay/server/internal/database"
	"github.com/hearthstay/server/internal/models"
	"gorm.io/gorm"
)

// ComponentFilter narrows List; zero values match everything
type ComponentFilter struct {
	Category      string
	ComponentType string
	IsActive      *bool
	IsPublic      *bool
}

// ComponentRepository handles database operations for UI component descriptors
type ComponentRepository interface {
	List(ctx context.Context, filter ComponentFilter) ([]*models.UIComponent, error)
	GetByID(ctx context.Context, id string) (*models.UIComponent, error)
	GetByName(ctx context.Context, name string) (*models.UIComponent, error)
	Create(ctx context.Context, component *models.UIComponent) error
	Save(ctx context.Context, component *models.UIComponent) error
	Delete(ctx context.Context, id string) error

	// usage_count is an approximate counter; see UsageRepository for ground truth
	IncrementUsage(ctx context.Context, id string) error
	SetUsageCount(ctx context.Context, id string, count int64) error
}

type componentRepository struct {
	db *gorm.DB
}

// NewComponentRepository creates a new component repository
func NewComponentRepository(db *gorm.DB) ComponentRepository {
	return &componentRepository{db: db}
}

func (r *componentRepository) List(ctx context.Context, filter ComponentFilter) ([]*models.UIComponent, error) {
	var out []*models.UIComponent

	q := r.db.WithContext(ctx).Model(&models.UIComponent{})
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.ComponentType != "" {
		q = q.Where("component_type = ?", filter.ComponentType)
	}
	if filter.IsActive != nil {
		q = q.Where("is_active = ?", *filter.IsActive)
	}
	if filter.IsPublic != nil {
		q = q.Where("is_public = ?", *filter.IsPublic)
	}

	err := q.Order("category ASC, name ASC").Find(&out).Error
	return out, err
}

func (r *componentRepository) GetByID(ctx context.Context, id string) (*models.UIComponent, error) {
	var c models.UIComponent
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrComponentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *componentRepository) GetByName(ctx context.Context, name string) (*models.UIComponent, error) {
	var c models.UIComponent
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrComponentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *componentRepository) Create(ctx context.Context, component *models.UIComponent) error {
	if component == nil {
		return ErrInvalidInput
	}
	return duplicateName(r.db.WithContext(ctx).Create(component).Error)
}

// Save writes every column of an existing row; last writer wins
func (r *componentRepository) Save(ctx context.Context, component *models.UIComponent) error {
	if component == nil || component.ID == "" {
		return ErrInvalidInput
	}
	res := r.db.WithContext(ctx).
		Model(component).
		Select("*").
		Omit("id", "created_at", "created_by", "usage_count").
		Updates(component)
	if err := duplicateName(res.Error); err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return ErrComponentNotFound
	}
	return nil
}

func (r *componentRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.UIComponent{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrComponentNotFound
	}
	return nil
}

func (r *componentRepository) IncrementUsage(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&models.UIComponent{}).
		Where("id = ?", id).
		UpdateColumn("usage_count", gorm.Expr("usage_count + ?", 1)).Error
}

func (r *componentRepository) SetUsageCount(ctx context.Context, id string, count int64) error {
	res := r.db.WithContext(ctx).
		Model(&models.UIComponent{}).
		Where("id = ?", id).
		UpdateColumn("usage_count", count)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrComponentNotFound
	}
	return nil
}

func duplicateName(err error) error {
	if errors.Is(database.TranslateError(err), database.ErrDuplicateKey) {
		return ErrDuplicateName
	}
	return err
}
