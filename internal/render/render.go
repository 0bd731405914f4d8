// Package render turns a component descriptor plus caller data into HTML.
//
// Every path produces markup: inactive components produce none, branch
// failures produce an inline error block, and fetch failures or pending
// loads have their own fixed blocks. Nothing panics out of Render.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"sync/atomic"
	"time"

	"github.com/hearthstay/server/internal/components"
	"github.com/hearthstay/server/internal/logger"
	"github.com/hearthstay/server/internal/metrics"
	"github.com/hearthstay/server/internal/models"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

// State describes which kind of block an Output holds
type State string

const (
	StateRendered    State = "rendered"
	StateInactive    State = "inactive"
	StateRenderError State = "render_error"
	StateFetchError  State = "fetch_error"
	StateLoading     State = "loading"
	StateIdle        State = "idle"
)

// Output is the rendered markup and the state that produced it
type Output struct {
	HTML  template.HTML `json:"html"`
	State State         `json:"state"`
}

// Empty reports whether the output has no markup
func (o Output) Empty() bool {
	return o.HTML == ""
}

// Renderer dispatches descriptors to their variant branch
type Renderer struct {
	policy  *bluemonday.Policy
	metrics *metrics.ComponentMetrics

	rendered atomic.Int64
	failed   atomic.Int64
}

// NewRenderer creates a renderer that sanitizes html-branch output with
// bluemonday's UGC allow-list.
func NewRenderer() *Renderer {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Globally()
	policy.AllowDataAttributes()

	return &Renderer{
		policy:  policy,
		metrics: metrics.Get().Components,
	}
}

// Render produces markup for desc with data as the interpolation root.
// A nil or inactive descriptor renders nothing.
func (r *Renderer) Render(desc *models.UIComponent, data map[string]any) (out Output) {
	if desc == nil || !desc.IsActive {
		return Output{State: StateInactive}
	}

	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			logger.Log.Error("Component render panicked",
				logger.WithComponentID(desc.ID),
				logger.WithComponentName(desc.Name),
				zap.Any("panic", rec),
			)
			out = r.RenderError(desc, fmt.Errorf("%v", rec))
		}
		r.observe(desc, out.State, time.Since(start))
	}()

	if data == nil {
		data = map[string]any{}
	}

	cfg, err := components.Decode(desc.ComponentType, desc.Config)
	if err != nil {
		logger.Log.Warn("Stored component config does not match its type",
			logger.WithComponentID(desc.ID),
			zap.String("component_type", desc.ComponentType),
			zap.Error(err),
		)
		return r.RenderError(desc, err)
	}

	b := &branch{r: r, desc: desc, data: data}
	if err := cfg.Accept(b); err != nil {
		logger.Log.Warn("Component branch failed",
			logger.WithComponentID(desc.ID),
			zap.Error(err),
		)
		return r.RenderError(desc, err)
	}

	wrapped, err := r.wrap(desc, cfg.Kind(), b.body)
	if err != nil {
		return r.RenderError(desc, err)
	}
	return Output{HTML: wrapped, State: StateRendered}
}

// RenderError is the inline block shown when a branch fails
func (r *Renderer) RenderError(desc *models.UIComponent, err error) Output {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	html, execErr := execute("render-error", struct{ Label, Message string }{desc.Label(), msg})
	if execErr != nil {
		html = template.HTML(template.HTMLEscapeString("Error rendering component: " + desc.Label()))
	}
	return Output{HTML: html, State: StateRenderError}
}

// FetchError is the block shown when a descriptor could not be loaded.
// ref is the requested name or id.
func (r *Renderer) FetchError(ref string, err error) Output {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	r.metrics.RecordRender("none", string(StateFetchError), 0)
	html, execErr := execute("fetch-error", struct{ Ref, Message string }{ref, msg})
	if execErr != nil {
		html = template.HTML(template.HTMLEscapeString("Failed to load component: " + ref))
	}
	return Output{HTML: html, State: StateFetchError}
}

// Loading is the placeholder shown while a descriptor is being fetched
func (r *Renderer) Loading(ref string) Output {
	html, err := execute("loading", ref)
	if err != nil {
		return Output{State: StateLoading}
	}
	return Output{HTML: html, State: StateLoading}
}

// Sanitize runs markup through the html-branch allow-list
func (r *Renderer) Sanitize(markup string) string {
	return r.policy.Sanitize(markup)
}

// Stats returns how many renders produced markup and how many hit the error block
func (r *Renderer) Stats() (rendered, failed int64) {
	return r.rendered.Load(), r.failed.Load()
}

func (r *Renderer) observe(desc *models.UIComponent, state State, d time.Duration) {
	switch state {
	case StateRendered:
		r.rendered.Add(1)
	case StateRenderError:
		r.failed.Add(1)
	}
	kind := "unknown"
	if k, ok := components.ParseKind(desc.ComponentType); ok {
		kind = string(k)
	}
	r.metrics.RecordRender(kind, string(state), d.Seconds())
}

func execute(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// jsonDump pretty-prints v for the raw-dump fallbacks
func jsonDump(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// rawObject decodes a stored JSON object for dumping; invalid JSON dumps as a string
func rawObject(raw []byte) any {
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return v
}
