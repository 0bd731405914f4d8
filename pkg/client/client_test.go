package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	*httptest.Server
	gets atomic.Int32
	auth atomic.Value
	name atomic.Value
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{}
	f.name.Store("promo-banner")

	mux := http.NewServeMux()
	mux.HandleFunc("/api/ui-components", func(w http.ResponseWriter, r *http.Request) {
		f.auth.Store(r.Header.Get("Authorization"))
		switch r.Method {
		case http.MethodGet:
			f.gets.Add(1)
			writeJSON(w, http.StatusOK, []Component{f.component()})
		case http.MethodPost:
			var req CreateRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.Name == "" {
				writeJSON(w, http.StatusBadRequest, map[string]any{
					"code":    "VALIDATION_FAILED",
					"message": "validation failed",
					"fields":  []FieldError{{Field: "name", Message: "is required"}},
				})
				return
			}
			writeJSON(w, http.StatusCreated, Component{ID: "c-2", Name: req.Name, ComponentType: req.ComponentType, IsActive: true})
		}
	})
	mux.HandleFunc("/api/ui-components/name/", func(w http.ResponseWriter, r *http.Request) {
		f.gets.Add(1)
		if strings.TrimPrefix(r.URL.Path, "/api/ui-components/name/") != f.name.Load().(string) {
			writeJSON(w, http.StatusNotFound, map[string]any{"code": "NOT_FOUND", "message": "ui component not found"})
			return
		}
		writeJSON(w, http.StatusOK, f.component())
	})
	mux.HandleFunc("/api/ui-components/c-1", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			f.gets.Add(1)
			writeJSON(w, http.StatusOK, f.component())
		case http.MethodPut:
			var req UpdateRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.Name != nil {
				f.name.Store(*req.Name)
			}
			writeJSON(w, http.StatusOK, f.component())
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	})
	mux.HandleFunc("/api/ui-components/render", func(w http.ResponseWriter, r *http.Request) {
		var req RenderRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		writeJSON(w, http.StatusOK, RenderResult{
			HTML:        "<div>" + req.Name + "</div>",
			State:       "rendered",
			ComponentID: "c-1",
			Tracked:     req.TrackUsage,
		})
	})
	mux.HandleFunc("/api/ui-components/c-1/analytics", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, Analytics{ComponentID: "c-1", TotalUsage: 7, Daily: make([]DailyUsage, 7)})
	})
	mux.HandleFunc("/api/ui-components/track-usage", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		writeJSON(w, http.StatusTooManyRequests, map[string]any{"code": "RATE_LIMITED", "message": "too many requests"})
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeAPI) component() Component {
	return Component{
		ID:            "c-1",
		Name:          f.name.Load().(string),
		ComponentType: "banner",
		Config:        json.RawMessage(`{"title":"Summer sale"}`),
		IsActive:      true,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestComponentByNameIsCached(t *testing.T) {
	api := newFakeAPI(t)
	c := New(Options{BaseURL: api.URL, StaleFor: time.Minute})
	ctx := context.Background()

	first, err := c.Component(ctx, Ref{Name: "promo-banner"})
	require.NoError(t, err)
	assert.Equal(t, "c-1", first.ID)
	assert.JSONEq(t, `{"title":"Summer sale"}`, string(first.Config))

	_, err = c.Component(ctx, Ref{Name: "promo-banner"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), api.gets.Load())
}

func TestComponentDisabledRefIssuesNoRequest(t *testing.T) {
	api := newFakeAPI(t)
	c := New(Options{BaseURL: api.URL})

	comp, err := c.Component(context.Background(), Ref{})
	assert.NoError(t, err)
	assert.Nil(t, comp)
	assert.Zero(t, api.gets.Load())
}

func TestComponentAmbiguousRef(t *testing.T) {
	c := New(Options{BaseURL: "http://127.0.0.1:1"})
	_, err := c.Component(context.Background(), Ref{Name: "a", ID: "b"})
	assert.ErrorIs(t, err, ErrAmbiguousRef)
}

func TestComponentNotFound(t *testing.T) {
	api := newFakeAPI(t)
	c := New(Options{BaseURL: api.URL})

	_, err := c.Component(context.Background(), Ref{Name: "missing"})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "NOT_FOUND", apiErr.Code)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestListCachedUntilWrite(t *testing.T) {
	api := newFakeAPI(t)
	c := New(Options{BaseURL: api.URL, Token: "admin-token", StaleFor: time.Minute})
	ctx := context.Background()

	list, err := c.List(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	_, err = c.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int32(1), api.gets.Load())
	assert.Equal(t, "Bearer admin-token", api.auth.Load())

	_, err = c.Create(ctx, CreateRequest{Name: "house-rules", ComponentType: "list"})
	require.NoError(t, err)

	_, err = c.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int32(2), api.gets.Load())
}

func TestRenameDropsOldNameEntry(t *testing.T) {
	api := newFakeAPI(t)
	c := New(Options{BaseURL: api.URL, StaleFor: time.Minute})
	ctx := context.Background()

	_, err := c.Component(ctx, Ref{Name: "promo-banner"})
	require.NoError(t, err)

	renamed := "summer-banner"
	_, err = c.Update(ctx, "c-1", UpdateRequest{Name: &renamed})
	require.NoError(t, err)

	_, ok := c.Queries().Get(NameKey("promo-banner"))
	assert.False(t, ok)

	_, err = c.Component(ctx, Ref{Name: "promo-banner"})
	assert.True(t, IsNotFound(err))
}

func TestDeleteInvalidatesID(t *testing.T) {
	api := newFakeAPI(t)
	c := New(Options{BaseURL: api.URL, StaleFor: time.Minute})
	ctx := context.Background()

	_, err := c.Component(ctx, Ref{ID: "c-1"})
	require.NoError(t, err)
	require.NoError(t, c.Delete(ctx, "c-1"))

	_, ok := c.Queries().Get(IDKey("c-1"))
	assert.False(t, ok)
}

func TestCreateValidationError(t *testing.T) {
	api := newFakeAPI(t)
	c := New(Options{BaseURL: api.URL})

	_, err := c.Create(context.Background(), CreateRequest{ComponentType: "banner"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	require.Len(t, apiErr.Fields, 1)
	assert.Equal(t, "name", apiErr.Fields[0].Field)
	assert.Contains(t, apiErr.Error(), "name is required")
}

func TestRender(t *testing.T) {
	api := newFakeAPI(t)
	c := New(Options{BaseURL: api.URL})

	res, err := c.Render(context.Background(), RenderRequest{Name: "promo-banner", TrackUsage: true})
	require.NoError(t, err)
	assert.Equal(t, "rendered", res.State)
	assert.Equal(t, "<div>promo-banner</div>", res.HTML)
	assert.True(t, res.Tracked)
}

func TestAnalytics(t *testing.T) {
	api := newFakeAPI(t)
	c := New(Options{BaseURL: api.URL})

	a, err := c.Analytics(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), a.TotalUsage)
	assert.Len(t, a.Daily, 7)
}

func TestTrackUsageRateLimited(t *testing.T) {
	api := newFakeAPI(t)
	c := New(Options{BaseURL: api.URL})

	_, err := c.TrackUsage(context.Background(), TrackRequest{ComponentID: "c-1", Page: "/"})
	assert.True(t, IsRateLimited(err))
}

func TestParseErrorFallsBackToBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	_, err := New(Options{BaseURL: srv.URL}).List(context.Background(), ListFilter{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "unknown_error", apiErr.Code)
	assert.Equal(t, "upstream exploded", apiErr.Message)
}

func TestQueryCacheExpiry(t *testing.T) {
	q := NewQueryCache(time.Minute)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	q.now = func() time.Time { return now }

	q.Set(IDKey("c-1"), "cached")
	_, ok := q.Get(IDKey("c-1"))
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, ok = q.Get(IDKey("c-1"))
	assert.False(t, ok)
	assert.Zero(t, q.Len())
}

func TestQueryCacheDisabled(t *testing.T) {
	q := NewQueryCache(0)
	q.Set(ListKey(), []Component{})
	_, ok := q.Get(ListKey())
	assert.False(t, ok)
}

func TestQueryKeyPrefix(t *testing.T) {
	assert.True(t, NameKey("promo").HasPrefix(ListKey()))
	assert.False(t, ListKey().HasPrefix(IDKey("c-1")))
	assert.Equal(t, "ui-components/name/promo", NameKey("promo").String())
}
