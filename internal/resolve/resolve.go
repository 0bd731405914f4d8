// Package resolve looks up a component descriptor by exactly one of name or
// id, reading through the descriptor cache.
package resolve

import (
	"context"
	"errors"

	"github.com/hearthstay/server/internal/cache"
	"github.com/hearthstay/server/internal/logger"
	"github.com/hearthstay/server/internal/models"
	"github.com/hearthstay/server/internal/repository"
	"go.uber.org/zap"
)

// ErrAmbiguousRef is returned when both a name and an id are supplied
var ErrAmbiguousRef = errors.New("specify either a component name or an id, not both")

// Ref identifies a descriptor by Name or ID. The zero Ref is disabled.
type Ref struct {
	Name string `json:"name,omitempty"`
	ID   string `json:"id,omitempty"`
}

// Enabled reports whether a lookup should be issued at all
func (r Ref) Enabled() bool {
	return r.Name != "" || r.ID != ""
}

// String is the name when set, otherwise the id
func (r Ref) String() string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}

// State of a lookup
type State string

const (
	StateIdle    State = "idle"
	StateSuccess State = "success"
	StateError   State = "error"
)

// Result of Resolve. Descriptor is set only on StateSuccess, Err only on StateError.
type Result struct {
	Descriptor *models.UIComponent
	State      State
	Err        error
}

// Resolver reads descriptors through the cache, falling back to the repository
type Resolver struct {
	repo  repository.ComponentRepository
	cache *cache.ComponentCache
}

// NewResolver creates a resolver; c may be nil to disable caching
func NewResolver(repo repository.ComponentRepository, c *cache.ComponentCache) *Resolver {
	return &Resolver{repo: repo, cache: c}
}

// Resolve looks up ref. A ref with neither name nor id issues no lookup and
// returns StateIdle. There are no retries.
func (r *Resolver) Resolve(ctx context.Context, ref Ref) Result {
	if !ref.Enabled() {
		return Result{State: StateIdle}
	}
	if ref.Name != "" && ref.ID != "" {
		return Result{State: StateError, Err: ErrAmbiguousRef}
	}

	if desc := r.fromCache(ctx, ref); desc != nil {
		return Result{Descriptor: desc, State: StateSuccess}
	}

	var (
		desc *models.UIComponent
		err  error
	)
	if ref.ID != "" {
		desc, err = r.repo.GetByID(ctx, ref.ID)
	} else {
		desc, err = r.repo.GetByName(ctx, ref.Name)
	}
	if err != nil {
		return Result{State: StateError, Err: err}
	}

	if err := r.cache.SetComponent(ctx, desc); err != nil {
		logger.Log.Debug("Failed to cache component",
			logger.WithComponentID(desc.ID),
			zap.Error(err),
		)
	}
	return Result{Descriptor: desc, State: StateSuccess}
}

// fromCache returns nil on a miss or when the cache is unavailable
func (r *Resolver) fromCache(ctx context.Context, ref Ref) *models.UIComponent {
	var (
		desc *models.UIComponent
		err  error
	)
	if ref.ID != "" {
		desc, err = r.cache.GetByID(ctx, ref.ID)
	} else {
		desc, err = r.cache.GetByName(ctx, ref.Name)
	}
	if err != nil {
		logger.Log.Debug("Component cache unavailable, reading from database",
			zap.String("ref", ref.String()),
			zap.Error(err),
		)
		return nil
	}
	return desc
}
