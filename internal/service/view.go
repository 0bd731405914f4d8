package service

import (
	"context"
	"errors"
	"time"

	"github.com/hearthstay/server/internal/logger"
	"github.com/hearthstay/server/internal/render"
	"github.com/hearthstay/server/internal/repository"
	"github.com/hearthstay/server/internal/resolve"
	"github.com/hearthstay/server/internal/telemetry"
	"github.com/hearthstay/server/internal/tracking"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ViewOptions describes one placement of a dynamic component on a page
type ViewOptions struct {
	Ref        resolve.Ref
	Page       string
	Context    map[string]any
	TrackUsage bool
	Meta       RequestMeta

	// Session deduplicates usage across renders of the same placement.
	// A nil Session gives the view its own.
	Session *tracking.Session
}

// View is a resolved-on-demand component placement
type View struct {
	svc  *ComponentService
	opts ViewOptions
}

// ViewResult is the outcome of one View.Render
type ViewResult struct {
	render.Output
	ComponentID string `json:"componentId,omitempty"`
	Tracked     bool   `json:"tracked"`
}

// NewView creates a placement for opts
func (s *ComponentService) NewView(opts ViewOptions) *View {
	if opts.Session == nil {
		opts.Session = &tracking.Session{}
	}
	return &View{svc: s, opts: opts}
}

// Render resolves the descriptor and renders it with data as the
// interpolation root. Usage is queued after a successful render and the
// outcome of tracking never changes the markup.
func (v *View) Render(ctx context.Context, data map[string]any) ViewResult {
	start := time.Now()

	resolveCtx, span := telemetry.StartResolve(ctx, v.opts.Ref.String())
	res := v.svc.resolver.Resolve(resolveCtx, v.opts.Ref)
	telemetry.End(span, res.Err)

	switch res.State {
	case resolve.StateIdle:
		return ViewResult{Output: render.Output{State: render.StateIdle}}
	case resolve.StateError:
		v.svc.metrics.FetchFailures.WithLabelValues(fetchReason(res.Err)).Inc()
		logger.Log.Debug("Component fetch failed",
			zap.String("ref", v.opts.Ref.String()),
			zap.Error(res.Err),
		)
		return ViewResult{Output: v.svc.renderer.FetchError(v.opts.Ref.String(), res.Err)}
	}

	desc := res.Descriptor
	_, span = telemetry.StartRender(ctx, desc.ID, desc.ComponentType)
	renderStart := time.Now()
	out := v.svc.renderer.Render(desc, data)
	renderTime := time.Since(renderStart)
	span.SetAttributes(attribute.String("ui_component.state", string(out.State)))
	telemetry.End(span, nil)

	result := ViewResult{Output: out, ComponentID: desc.ID}
	if out.State == render.StateInactive || !v.opts.TrackUsage || v.svc.tracker == nil {
		return result
	}
	if !v.opts.Session.ShouldTrack(desc.ID, v.opts.Page) {
		return result
	}

	result.Tracked = v.svc.tracker.Track(tracking.Event{
		ComponentID: desc.ID,
		UserID:      v.opts.Meta.UserID,
		Page:        v.opts.Page,
		Context:     v.opts.Context,
		LoadTimeMs:   toMillis(time.Since(start)),
		RenderTimeMs: toMillis(renderTime),
		UserAgent:   v.opts.Meta.UserAgent,
		IPAddress:   v.opts.Meta.IPAddress,
		RequestID:   v.opts.Meta.RequestID,
		Trace:       trace.SpanContextFromContext(ctx),
	})
	return result
}

func fetchReason(err error) string {
	switch {
	case errors.Is(err, repository.ErrComponentNotFound):
		return "not_found"
	case errors.Is(err, resolve.ErrAmbiguousRef):
		return "bad_ref"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	}
	return "error"
}
