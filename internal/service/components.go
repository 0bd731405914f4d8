package service

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/hearthstay/server/internal/cache"
	"github.com/hearthstay/server/internal/components"
	apperrors "github.com/hearthstay/server/internal/errors"
	"github.com/hearthstay/server/internal/logger"
	"github.com/hearthstay/server/internal/models"
	"github.com/hearthstay/server/internal/repository"
	"github.com/hearthstay/server/internal/resolve"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// CreateInput is the payload for a new descriptor
type CreateInput struct {
	Name          string          `json:"name"`
	DisplayName   string          `json:"displayName"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	ComponentType string          `json:"componentType"`
	Config        json.RawMessage `json:"config"`
	Template      string          `json:"template"`
	Styles        json.RawMessage `json:"styles"`
	Interactions  json.RawMessage `json:"interactions"`
	Responsive    json.RawMessage `json:"responsive"`
	IsActive      *bool           `json:"isActive"`
	IsPublic      *bool           `json:"isPublic"`
}

// UpdateInput is a partial update; nil fields are left unchanged
type UpdateInput struct {
	Name          *string         `json:"name"`
	DisplayName   *string         `json:"displayName"`
	Description   *string         `json:"description"`
	Category      *string         `json:"category"`
	ComponentType *string         `json:"componentType"`
	Config        json.RawMessage `json:"config"`
	Template      *string         `json:"template"`
	Styles        json.RawMessage `json:"styles"`
	Interactions  json.RawMessage `json:"interactions"`
	Responsive    json.RawMessage `json:"responsive"`
	IsActive      *bool           `json:"isActive"`
	IsPublic      *bool           `json:"isPublic"`
}

// ListFilter narrows List; nil flags match both values
type ListFilter struct {
	Category      string
	ComponentType string
	IsActive      *bool
	IsPublic      *bool
}

func (f ListFilter) cacheKey() string {
	return cache.FilterKey(f.Category, f.ComponentType, boolKey(f.IsActive), boolKey(f.IsPublic))
}

func boolKey(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}

// List returns descriptors matching filter, read through the cache
func (s *ComponentService) List(ctx context.Context, filter ListFilter) ([]*models.UIComponent, error) {
	key := filter.cacheKey()
	if cached, ok, err := s.cache.GetList(ctx, key); err == nil && ok {
		return cached, nil
	} else if err != nil {
		logger.Log.Debug("Component list cache unavailable", zap.Error(err))
	}

	list, err := s.components.List(ctx, repository.ComponentFilter{
		Category:      filter.Category,
		ComponentType: filter.ComponentType,
		IsActive:      filter.IsActive,
		IsPublic:      filter.IsPublic,
	})
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*models.UIComponent{}
	}

	if err := s.cache.SetList(ctx, key, list); err != nil {
		logger.Log.Debug("Failed to cache component list", zap.Error(err))
	}
	return list, nil
}

// Get returns the descriptor with id
func (s *ComponentService) Get(ctx context.Context, id string) (*models.UIComponent, error) {
	return s.lookup(ctx, resolve.Ref{ID: id})
}

// GetByName returns the descriptor named name
func (s *ComponentService) GetByName(ctx context.Context, name string) (*models.UIComponent, error) {
	return s.lookup(ctx, resolve.Ref{Name: name})
}

func (s *ComponentService) lookup(ctx context.Context, ref resolve.Ref) (*models.UIComponent, error) {
	if !ref.Enabled() {
		return nil, apperrors.BadRequest("component name or id is required")
	}
	res := s.resolver.Resolve(ctx, ref)
	if res.State == resolve.StateError {
		return nil, apiError(res.Err)
	}
	return res.Descriptor, nil
}

// Create validates and stores a new descriptor
func (s *ComponentService) Create(ctx context.Context, in CreateInput, actor string) (*models.UIComponent, error) {
	comp := &models.UIComponent{
		Name:          strings.TrimSpace(in.Name),
		DisplayName:   strings.TrimSpace(in.DisplayName),
		Description:   in.Description,
		Category:      strings.TrimSpace(in.Category),
		ComponentType: strings.TrimSpace(in.ComponentType),
		Config:        jsonColumn(in.Config),
		Template:      in.Template,
		Styles:        jsonColumn(in.Styles),
		Interactions:  jsonColumn(in.Interactions),
		Responsive:    jsonColumn(in.Responsive),
		IsActive:      boolOr(in.IsActive, true),
		IsPublic:      boolOr(in.IsPublic, true),
		CreatedBy:     actor,
		UpdatedBy:     actor,
	}

	if err := s.validate(comp); err != nil {
		return nil, err
	}

	if err := s.components.Create(ctx, comp); err != nil {
		s.metrics.WritesTotal.WithLabelValues("create", "error").Inc()
		return nil, apiError(err)
	}
	s.metrics.WritesTotal.WithLabelValues("create", "ok").Inc()

	s.invalidate(ctx, comp)
	logger.Log.Info("UI component created",
		logger.WithComponentID(comp.ID),
		logger.WithComponentName(comp.Name),
		logger.WithUserID(actor),
	)
	return comp, nil
}

// Update applies a partial update. Writes are last-writer-wins.
func (s *ComponentService) Update(ctx context.Context, id string, in UpdateInput, actor string) (*models.UIComponent, error) {
	comp, err := s.components.GetByID(ctx, id)
	if err != nil {
		return nil, apiError(err)
	}
	oldName := comp.Name

	if in.Name != nil {
		comp.Name = strings.TrimSpace(*in.Name)
	}
	if in.DisplayName != nil {
		comp.DisplayName = strings.TrimSpace(*in.DisplayName)
	}
	if in.Description != nil {
		comp.Description = *in.Description
	}
	if in.Category != nil {
		comp.Category = strings.TrimSpace(*in.Category)
	}
	if in.ComponentType != nil {
		comp.ComponentType = strings.TrimSpace(*in.ComponentType)
	}
	if in.Config != nil {
		comp.Config = jsonColumn(in.Config)
	}
	if in.Template != nil {
		comp.Template = *in.Template
	}
	if in.Styles != nil {
		comp.Styles = jsonColumn(in.Styles)
	}
	if in.Interactions != nil {
		comp.Interactions = jsonColumn(in.Interactions)
	}
	if in.Responsive != nil {
		comp.Responsive = jsonColumn(in.Responsive)
	}
	if in.IsActive != nil {
		comp.IsActive = *in.IsActive
	}
	if in.IsPublic != nil {
		comp.IsPublic = *in.IsPublic
	}
	comp.UpdatedBy = actor

	// the merged row is validated, so a type change must bring a matching config
	if err := s.validate(comp); err != nil {
		return nil, err
	}

	if err := s.components.Save(ctx, comp); err != nil {
		s.metrics.WritesTotal.WithLabelValues("update", "error").Inc()
		return nil, apiError(err)
	}
	s.metrics.WritesTotal.WithLabelValues("update", "ok").Inc()

	s.invalidate(ctx, comp, oldName)

	updated, err := s.components.GetByID(ctx, id)
	if err != nil {
		return nil, apiError(err)
	}
	return updated, nil
}

// Delete removes a descriptor. Usage rows are kept.
func (s *ComponentService) Delete(ctx context.Context, id string) error {
	comp, err := s.components.GetByID(ctx, id)
	if err != nil {
		return apiError(err)
	}
	if err := s.components.Delete(ctx, id); err != nil {
		s.metrics.WritesTotal.WithLabelValues("delete", "error").Inc()
		return apiError(err)
	}
	s.metrics.WritesTotal.WithLabelValues("delete", "ok").Inc()

	s.invalidate(ctx, comp)
	logger.Log.Info("UI component deleted",
		logger.WithComponentID(comp.ID),
		logger.WithComponentName(comp.Name),
	)
	return nil
}

// invalidate drops cached listings and the entity keys; failures only log
func (s *ComponentService) invalidate(ctx context.Context, comp *models.UIComponent, oldNames ...string) {
	if err := s.cache.Invalidate(ctx, comp, oldNames...); err != nil {
		logger.Log.Warn("Component cache invalidation failed",
			logger.WithComponentID(comp.ID),
			zap.Error(err),
		)
	}
}

// validate checks the identity fields, the JSON blobs and the variant config
func (s *ComponentService) validate(comp *models.UIComponent) error {
	var fields []apperrors.FieldError

	switch {
	case comp.Name == "":
		fields = append(fields, apperrors.FieldError{Field: "name", Message: "is required"})
	case !components.NamePattern.MatchString(comp.Name):
		fields = append(fields, apperrors.FieldError{
			Field:   "name",
			Message: "must be lowercase letters, digits, '-', '_' or '.', starting with a letter or digit (max 128)",
		})
	}
	if comp.ComponentType == "" {
		fields = append(fields, apperrors.FieldError{Field: "componentType", Message: "is required"})
	}
	if len(comp.DisplayName) > 255 {
		fields = append(fields, apperrors.FieldError{Field: "displayName", Message: "must be at most 255 characters"})
	}
	if len(comp.Category) > 64 {
		fields = append(fields, apperrors.FieldError{Field: "category", Message: "must be at most 64 characters"})
	}

	for _, blob := range []struct {
		field string
		raw   []byte
	}{
		{"styles", comp.Styles},
		{"interactions", comp.Interactions},
		{"responsive", comp.Responsive},
	} {
		if !isObjectOrEmpty(blob.raw) {
			fields = append(fields, apperrors.FieldError{Field: blob.field, Message: "must be a JSON object"})
		}
	}

	if comp.ComponentType != "" {
		if _, cfgErrs := components.DecodeAndValidate(comp.ComponentType, comp.Config); len(cfgErrs) > 0 {
			fields = append(fields, cfgErrs...)
		}
	}

	if len(fields) == 0 {
		return nil
	}
	s.metrics.ValidationFailures.WithLabelValues(metricKind(comp.ComponentType)).Inc()
	return apperrors.ValidationFailed(fields...)
}

func metricKind(componentType string) string {
	if k, ok := components.ParseKind(componentType); ok {
		return string(k)
	}
	return "unknown"
}

func jsonColumn(raw json.RawMessage) datatypes.JSON {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return datatypes.JSON(trimmed)
}

func isObjectOrEmpty(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return true
	}
	var obj map[string]any
	return json.Unmarshal(trimmed, &obj) == nil
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
