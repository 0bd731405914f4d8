// Package service implements the UI component registry operations on top of
// the repositories, the descriptor cache, the renderer and the usage tracker.
package service

import (
	"errors"
	"time"

	"github.com/hearthstay/server/internal/cache"
	apperrors "github.com/hearthstay/server/internal/errors"
	"github.com/hearthstay/server/internal/metrics"
	"github.com/hearthstay/server/internal/render"
	"github.com/hearthstay/server/internal/repository"
	"github.com/hearthstay/server/internal/resolve"
	"github.com/hearthstay/server/internal/tracking"
)

// Deps are the collaborators of ComponentService. Cache and Tracker may be nil.
type Deps struct {
	Components repository.ComponentRepository
	Usages     repository.UsageRepository
	Cache      *cache.ComponentCache
	Renderer   *render.Renderer
	Tracker    *tracking.Tracker
}

// ComponentService owns every operation on UI component descriptors
type ComponentService struct {
	components repository.ComponentRepository
	usages     repository.UsageRepository
	cache      *cache.ComponentCache
	resolver   *resolve.Resolver
	renderer   *render.Renderer
	tracker    *tracking.Tracker
	metrics    *metrics.ComponentMetrics

	now func() time.Time
}

// NewComponentService wires the service
func NewComponentService(deps Deps) *ComponentService {
	renderer := deps.Renderer
	if renderer == nil {
		renderer = render.NewRenderer()
	}
	return &ComponentService{
		components: deps.Components,
		usages:     deps.Usages,
		cache:      deps.Cache,
		resolver:   resolve.NewResolver(deps.Components, deps.Cache),
		renderer:   renderer,
		tracker:    deps.Tracker,
		metrics:    metrics.Get().Components,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SetTracker attaches the background tracker. The tracker usually records
// through this same service, so it is wired after construction.
func (s *ComponentService) SetTracker(t *tracking.Tracker) {
	s.tracker = t
}

// Renderer exposes the renderer for callers that draw their own fetch states
func (s *ComponentService) Renderer() *render.Renderer {
	return s.renderer
}

// apiError maps repository sentinels onto API errors; other errors pass through
func apiError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrComponentNotFound):
		return apperrors.NotFound("ui component")
	case errors.Is(err, repository.ErrDuplicateName):
		return apperrors.Conflict("ui component name")
	case errors.Is(err, resolve.ErrAmbiguousRef):
		return apperrors.BadRequest(err.Error())
	case errors.Is(err, repository.ErrInvalidInput):
		return apperrors.BadRequest(err.Error())
	}
	return err
}
