package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/hearthstay/server/pkg/logger"
)

const basePath = "/api/ui-components"

// ErrAmbiguousRef is returned when both a name and an id are supplied
var ErrAmbiguousRef = errors.New("specify either a component name or an id, not both")

// Component is a UI component descriptor as served by the API
type Component struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	DisplayName   string          `json:"displayName"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	ComponentType string          `json:"componentType"`
	Config        json.RawMessage `json:"config"`
	Template      string          `json:"template,omitempty"`
	Styles        json.RawMessage `json:"styles,omitempty"`
	Interactions  json.RawMessage `json:"interactions,omitempty"`
	Responsive    json.RawMessage `json:"responsive,omitempty"`
	IsActive      bool            `json:"isActive"`
	IsPublic      bool            `json:"isPublic"`
	UsageCount    int64           `json:"usageCount"`
	CreatedBy     string          `json:"createdBy,omitempty"`
	UpdatedBy     string          `json:"updatedBy,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Ref names a descriptor by exactly one of Name or ID
type Ref struct {
	Name string
	ID   string
}

// ListFilter narrows a listing; zero fields are not sent
type ListFilter struct {
	Category      string
	ComponentType string
	IsActive      *bool
	IsPublic      *bool
}

func (f ListFilter) zero() bool {
	return f.Category == "" && f.ComponentType == "" && f.IsActive == nil && f.IsPublic == nil
}

func (f ListFilter) query() url.Values {
	v := url.Values{}
	if f.Category != "" {
		v.Set("category", f.Category)
	}
	if f.ComponentType != "" {
		v.Set("componentType", f.ComponentType)
	}
	if f.IsActive != nil {
		v.Set("isActive", strconv.FormatBool(*f.IsActive))
	}
	if f.IsPublic != nil {
		v.Set("isPublic", strconv.FormatBool(*f.IsPublic))
	}
	return v
}

// CreateRequest is the body of a create call
type CreateRequest struct {
	Name          string          `json:"name"`
	DisplayName   string          `json:"displayName,omitempty"`
	Description   string          `json:"description,omitempty"`
	Category      string          `json:"category,omitempty"`
	ComponentType string          `json:"componentType"`
	Config        json.RawMessage `json:"config,omitempty"`
	Template      string          `json:"template,omitempty"`
	Styles        json.RawMessage `json:"styles,omitempty"`
	Interactions  json.RawMessage `json:"interactions,omitempty"`
	Responsive    json.RawMessage `json:"responsive,omitempty"`
	IsActive      *bool           `json:"isActive,omitempty"`
	IsPublic      *bool           `json:"isPublic,omitempty"`
}

// UpdateRequest is a partial update; nil fields are left unchanged
type UpdateRequest struct {
	Name          *string         `json:"name,omitempty"`
	DisplayName   *string         `json:"displayName,omitempty"`
	Description   *string         `json:"description,omitempty"`
	Category      *string         `json:"category,omitempty"`
	ComponentType *string         `json:"componentType,omitempty"`
	Config        json.RawMessage `json:"config,omitempty"`
	Template      *string         `json:"template,omitempty"`
	Styles        json.RawMessage `json:"styles,omitempty"`
	Interactions  json.RawMessage `json:"interactions,omitempty"`
	Responsive    json.RawMessage `json:"responsive,omitempty"`
	IsActive      *bool           `json:"isActive,omitempty"`
	IsPublic      *bool           `json:"isPublic,omitempty"`
}

// PerformanceMetrics are client-measured timings in milliseconds
type PerformanceMetrics struct {
	LoadTime   float64 `json:"loadTime"`
	RenderTime float64 `json:"renderTime"`
}

// TrackRequest is one usage event
type TrackRequest struct {
	ComponentID        string             `json:"componentId"`
	Page               string             `json:"page,omitempty"`
	Context            map[string]any     `json:"context,omitempty"`
	PerformanceMetrics PerformanceMetrics `json:"performanceMetrics"`
}

// Usage is a recorded usage event
type Usage struct {
	ID                 string             `json:"id"`
	ComponentID        string             `json:"componentId"`
	UserID             *string            `json:"userId,omitempty"`
	Page               string             `json:"page"`
	PerformanceMetrics PerformanceMetrics `json:"performanceMetrics"`
	CreatedAt          time.Time          `json:"createdAt"`
}

// PageCount is the usage recorded on one page
type PageCount struct {
	Page  string `json:"page"`
	Count int64  `json:"count"`
}

// DailyUsage is the usage recorded on one UTC day
type DailyUsage struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// Analytics summarises the usage of one component
type Analytics struct {
	ComponentID       string       `json:"componentId"`
	Name              string       `json:"name"`
	UsageCount        int64        `json:"usageCount"`
	TotalUsage        int64        `json:"totalUsage"`
	UniqueUsers       int64        `json:"uniqueUsers"`
	AverageLoadTime   float64      `json:"averageLoadTime"`
	AverageRenderTime float64      `json:"averageRenderTime"`
	RecentUsage       int64        `json:"recentUsage"`
	Daily             []DailyUsage `json:"daily"`
	TopPages          []PageCount  `json:"topPages"`
}

// RenderRequest asks the server to resolve and render a descriptor
type RenderRequest struct {
	Name       string         `json:"name,omitempty"`
	ID         string         `json:"id,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	Page       string         `json:"page,omitempty"`
	Context    map[string]any `json:"context,omitempty"`
	TrackUsage bool           `json:"trackUsage"`
}

// RenderResult is server-rendered markup and the state that produced it
type RenderResult struct {
	HTML        string `json:"html"`
	State       string `json:"state"`
	ComponentID string `json:"componentId,omitempty"`
	Tracked     bool   `json:"tracked"`
}

// ListKey is the query key of the unfiltered listing
func ListKey() QueryKey { return QueryKey{"ui-components"} }

// IDKey is the query key of one descriptor by id
func IDKey(id string) QueryKey { return QueryKey{"ui-components", id} }

// NameKey is the query key of one descriptor by name
func NameKey(name string) QueryKey { return QueryKey{"ui-components", "name", name} }

func filterKey(f ListFilter) QueryKey {
	return QueryKey{"ui-components", "list", f.query().Encode()}
}

// List returns descriptors matching f
func (c *Client) List(ctx context.Context, f ListFilter) ([]Component, error) {
	key := filterKey(f)
	if f.zero() {
		key = ListKey()
	}
	if v, ok := c.queries.Get(key); ok {
		return v.([]Component), nil
	}

	var out []Component
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(f.query()).
		SetResult(&out).
		Get(basePath)
	if err := check(resp, err); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Component{}
	}
	c.queries.Set(key, out)
	return out, nil
}

// Component fetches the descriptor named by ref. A ref with neither name
// nor id issues no request and returns (nil, nil).
func (c *Client) Component(ctx context.Context, ref Ref) (*Component, error) {
	switch {
	case ref.Name == "" && ref.ID == "":
		return nil, nil
	case ref.Name != "" && ref.ID != "":
		return nil, ErrAmbiguousRef
	}

	key, path := IDKey(ref.ID), basePath+"/"+url.PathEscape(ref.ID)
	if ref.Name != "" {
		key, path = NameKey(ref.Name), basePath+"/name/"+url.PathEscape(ref.Name)
	}
	if v, ok := c.queries.Get(key); ok {
		return v.(*Component), nil
	}

	var out Component
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).Get(path)
	if err := check(resp, err); err != nil {
		return nil, err
	}
	c.queries.Set(key, &out)
	return &out, nil
}

// Create adds a descriptor
func (c *Client) Create(ctx context.Context, req CreateRequest) (*Component, error) {
	var out Component
	resp, err := c.http.R().SetContext(ctx).SetBody(req).SetResult(&out).Post(basePath)
	if err := check(resp, err); err != nil {
		return nil, err
	}
	c.invalidate(&out)
	return &out, nil
}

// Update applies a partial update
func (c *Client) Update(ctx context.Context, id string, req UpdateRequest) (*Component, error) {
	var out Component
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Put(basePath + "/" + url.PathEscape(id))
	if err := check(resp, err); err != nil {
		return nil, err
	}
	c.invalidate(&Component{ID: id})
	c.invalidate(&out)
	return &out, nil
}

// Delete removes a descriptor
func (c *Client) Delete(ctx context.Context, id string) error {
	resp, err := c.http.R().SetContext(ctx).Delete(basePath + "/" + url.PathEscape(id))
	if err := check(resp, err); err != nil {
		return err
	}
	c.invalidate(&Component{ID: id})
	return nil
}

// TrackUsage records one usage event synchronously
func (c *Client) TrackUsage(ctx context.Context, req TrackRequest) (*Usage, error) {
	var out Usage
	resp, err := c.http.R().SetContext(ctx).SetBody(req).SetResult(&out).Post(basePath + "/track-usage")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// Analytics summarises the usage of one descriptor
func (c *Client) Analytics(ctx context.Context, id string) (*Analytics, error) {
	var out Analytics
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).Get(basePath + "/" + url.PathEscape(id) + "/analytics")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// Recount resets the usage counter from the usage log
func (c *Client) Recount(ctx context.Context, id string) (*Component, error) {
	var out Component
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).Post(basePath + "/" + url.PathEscape(id) + "/recount")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	c.invalidate(&out)
	return &out, nil
}

// Render resolves and renders a descriptor on the server
func (c *Client) Render(ctx context.Context, req RenderRequest) (*RenderResult, error) {
	if req.Name != "" && req.ID != "" {
		return nil, ErrAmbiguousRef
	}
	var out RenderResult
	resp, err := c.http.R().SetContext(ctx).SetBody(req).SetResult(&out).Post(basePath + "/render")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// invalidate drops every listing and each cached entry for comp
func (c *Client) invalidate(comp *Component) {
	keys := []QueryKey{ListKey(), IDKey(comp.ID)}
	if comp.Name != "" {
		keys = append(keys, NameKey(comp.Name))
	}
	c.queries.Invalidate(keys...)
	c.queries.InvalidatePrefix(QueryKey{"ui-components", "list"})
	// name entries cached before a rename
	c.queries.InvalidateWhere(func(v any) bool {
		cached, ok := v.(*Component)
		return ok && cached.ID == comp.ID
	})
	logger.Debug("Invalidated component queries", "id", comp.ID, "name", comp.Name)
}

// String renders a short label for output
func (c Component) String() string {
	state := "active"
	if !c.IsActive {
		state = "inactive"
	}
	return fmt.Sprintf("%s (%s, %s)", c.Name, c.ComponentType, state)
}
