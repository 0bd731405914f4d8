package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/hearthstay/server/internal/alerts"
	"github.com/hearthstay/server/internal/auth"
	"github.com/hearthstay/server/internal/cache"
	"github.com/hearthstay/server/internal/config"
	"github.com/hearthstay/server/internal/database"
	"github.com/hearthstay/server/internal/logger"
	"github.com/hearthstay/server/internal/middleware"
	"github.com/hearthstay/server/internal/models"
	"github.com/hearthstay/server/internal/repository"
	"github.com/hearthstay/server/internal/service"
	"github.com/hearthstay/server/internal/tracking"
	"github.com/hearthstay/server/internal/util"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

const (
	adminToken = "admin-token"
	userToken  = "user-token"
)

type HandlersTestSuite struct {
	suite.Suite
	db      *gorm.DB
	mr      *miniredis.Miniredis
	router  *gin.Engine
	svc     *service.ComponentService
	tracker *tracking.Tracker
	alerts  *alerts.Manager
}

func (s *HandlersTestSuite) SetupTest() {
	logger.InitializeForTest()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", SQLitePath: ":memory:"}, false)
	s.Require().NoError(err)
	s.Require().NoError(database.MigrateDB(db))
	s.db = db

	s.mr = miniredis.RunT(s.T())
	client := cache.WrapClient(redis.NewClient(&redis.Options{Addr: s.mr.Addr()}))

	s.svc = service.NewComponentService(service.Deps{
		Components: repository.NewComponentRepository(db),
		Usages:     repository.NewUsageRepository(db),
		Cache:      cache.NewComponentCache(client, time.Minute),
	})
	s.tracker = tracking.NewTracker(s.svc, tracking.Options{Workers: 1, QueueSize: 16, Timeout: time.Second})
	s.tracker.Start()
	s.svc.SetTracker(s.tracker)

	validator := auth.NewMockAuthService()
	validator.AddUser(adminToken, &models.User{ID: "admin-1", IsAdmin: true})
	validator.AddUser(userToken, &models.User{ID: "user-1"})

	h := NewHandlers(s.svc)
	h.SetHealthChecks(HealthCheck{
		Name:     "database",
		Critical: true,
		Check: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	})

	s.alerts = alerts.NewManager()
	h.SetAlerts(s.alerts)

	s.router = gin.New()
	s.router.Use(middleware.RequestIDMiddleware())
	h.RegisterRoutes(s.router, validator, RouteOptions{TrackRatePerMinute: 1000})
}

func (s *HandlersTestSuite) TearDownTest() {
	s.tracker.Stop(context.Background())
	if sqlDB, err := s.db.DB(); err == nil {
		sqlDB.Close()
	}
}

func TestHandlersSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}

func (s *HandlersTestSuite) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlersTestSuite) decode(w *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

var promoBanner = map[string]any{
	"name":          "promo-banner",
	"displayName":   "Promo",
	"category":      "marketing",
	"componentType": "banner",
	"config": map[string]any{
		"type":    "success",
		"title":   "Hello {{user.name}}",
		"message": "Save {{discount}}%",
	},
}

func (s *HandlersTestSuite) createPromo() models.UIComponent {
	w := s.do(http.MethodPost, "/api/ui-components", adminToken, promoBanner)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var comp models.UIComponent
	s.decode(w, &comp)
	return comp
}

func (s *HandlersTestSuite) TestCreateAndGet() {
	comp := s.createPromo()
	s.NotEmpty(comp.ID)
	s.True(comp.IsActive)
	s.Equal("admin-1", comp.CreatedBy)

	w := s.do(http.MethodGet, "/api/ui-components/"+comp.ID, "", nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/ui-components/name/promo-banner", "", nil)
	s.Equal(http.StatusOK, w.Code)
	var byName models.UIComponent
	s.decode(w, &byName)
	s.Equal(comp.ID, byName.ID)
}

func (s *HandlersTestSuite) TestWritesRequireAdmin() {
	w := s.do(http.MethodPost, "/api/ui-components", "", promoBanner)
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/ui-components", userToken, promoBanner)
	s.Equal(http.StatusForbidden, w.Code)

	comp := s.createPromo()
	s.Equal(http.StatusForbidden, s.do(http.MethodPut, "/api/ui-components/"+comp.ID, userToken, map[string]any{"displayName": "x"}).Code)
	s.Equal(http.StatusForbidden, s.do(http.MethodDelete, "/api/ui-components/"+comp.ID, userToken, nil).Code)
	s.Equal(http.StatusForbidden, s.do(http.MethodGet, "/api/ui-components/"+comp.ID+"/analytics", userToken, nil).Code)
}

func (s *HandlersTestSuite) TestCreateInvalidConfigListsFields() {
	w := s.do(http.MethodPost, "/api/ui-components", adminToken, map[string]any{
		"name":          "signup",
		"componentType": "form",
		"config":        map[string]any{"fields": []any{map[string]any{"type": "nope"}}},
	})
	s.Require().Equal(http.StatusBadRequest, w.Code)

	var body util.ErrorResponse
	s.decode(w, &body)
	s.Equal("VALIDATION_FAILED", body.Code)
	var fields []string
	for _, f := range body.Fields {
		fields = append(fields, f.Field)
	}
	s.Contains(fields, "config.fields[0].name")
	s.Contains(fields, "config.fields[0].type")
}

func (s *HandlersTestSuite) TestCreateDuplicate() {
	s.createPromo()
	w := s.do(http.MethodPost, "/api/ui-components", adminToken, promoBanner)
	s.Equal(http.StatusConflict, w.Code)
}

func (s *HandlersTestSuite) TestMalformedBody() {
	req := httptest.NewRequest(http.MethodPost, "/api/ui-components", bytes.NewBufferString("{"))
	req.Header.Set("Authorization", "Bearer "+adminToken)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlersTestSuite) TestGetMissing() {
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/ui-components/nope", "", nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/ui-components/name/nope", "", nil).Code)
}

func (s *HandlersTestSuite) TestUpdateInvalidatesCache() {
	comp := s.createPromo()

	w := s.do(http.MethodGet, "/api/ui-components?category=marketing", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var list []models.UIComponent
	s.decode(w, &list)
	s.Require().Len(list, 1)
	s.Equal("Promo", list[0].DisplayName)

	w = s.do(http.MethodPut, "/api/ui-components/"+comp.ID, adminToken, map[string]any{"displayName": "Spring promo"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/ui-components?category=marketing", "", nil)
	s.decode(w, &list)
	s.Require().Len(list, 1)
	s.Equal("Spring promo", list[0].DisplayName)

	w = s.do(http.MethodGet, "/api/ui-components/"+comp.ID, "", nil)
	var got models.UIComponent
	s.decode(w, &got)
	s.Equal("Spring promo", got.DisplayName)
	s.Equal("admin-1", got.UpdatedBy)
}

func (s *HandlersTestSuite) TestListFilterValidation() {
	w := s.do(http.MethodGet, "/api/ui-components?isActive=sometimes", "", nil)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/ui-components?isActive=false", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`[]`, w.Body.String())
}

func (s *HandlersTestSuite) TestDelete() {
	comp := s.createPromo()

	w := s.do(http.MethodDelete, "/api/ui-components/"+comp.ID, adminToken, nil)
	s.Equal(http.StatusNoContent, w.Code)
	s.Empty(w.Body.String())

	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/ui-components/"+comp.ID, "", nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodDelete, "/api/ui-components/"+comp.ID, adminToken, nil).Code)
}

func (s *HandlersTestSuite) TestTrackUsageAndAnalytics() {
	comp := s.createPromo()

	w := s.do(http.MethodPost, "/api/ui-components/track-usage", userToken, map[string]any{
		"componentId":        comp.ID,
		"page":               "/home",
		"performanceMetrics": map[string]any{"loadTime": 120, "renderTime": 8},
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var usage models.ComponentUsage
	s.decode(w, &usage)
	s.Require().NotNil(usage.UserID)
	s.Equal("user-1", *usage.UserID)

	w = s.do(http.MethodPost, "/api/ui-components/track-usage", "", map[string]any{
		"componentId": comp.ID,
		"page":        "/deals",
	})
	s.Require().Equal(http.StatusCreated, w.Code)

	w = s.do(http.MethodGet, "/api/ui-components/"+comp.ID+"/analytics", adminToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var a service.Analytics
	s.decode(w, &a)
	s.EqualValues(2, a.TotalUsage)
	s.EqualValues(2, a.UsageCount)
	s.EqualValues(1, a.UniqueUsers)
	s.EqualValues(2, a.RecentUsage)
	s.Len(a.Daily, 7)
	s.Len(a.TopPages, 2)
}

func (s *HandlersTestSuite) TestTrackUsageValidation() {
	w := s.do(http.MethodPost, "/api/ui-components/track-usage", "", map[string]any{"page": "/"})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/ui-components/track-usage", "", map[string]any{"componentId": "missing"})
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlersTestSuite) TestRecount() {
	comp := s.createPromo()
	s.Require().NoError(s.db.Model(&models.UIComponent{}).Where("id = ?", comp.ID).Update("usage_count", 9).Error)

	w := s.do(http.MethodPost, "/api/ui-components/"+comp.ID+"/recount", adminToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var got models.UIComponent
	s.decode(w, &got)
	s.Zero(got.UsageCount)
}

func (s *HandlersTestSuite) TestRenderPromoBanner() {
	s.createPromo()

	w := s.do(http.MethodPost, "/api/ui-components/render", "", map[string]any{
		"name":       "promo-banner",
		"data":       map[string]any{"user": map[string]any{"name": "Ana"}, "discount": 20},
		"page":       "/home",
		"trackUsage": true,
	})
	s.Require().Equal(http.StatusOK, w.Code)

	var res struct {
		HTML        string `json:"html"`
		State       string `json:"state"`
		ComponentID string `json:"componentId"`
		Tracked     bool   `json:"tracked"`
	}
	s.decode(w, &res)
	s.Equal("rendered", res.State)
	s.Contains(res.HTML, "Hello Ana")
	s.Contains(res.HTML, "Save 20%")
	s.Contains(res.HTML, "hs-banner--success")
	s.True(res.Tracked)
	s.NotEmpty(res.ComponentID)
}

func (s *HandlersTestSuite) TestRenderMissingName() {
	w := s.do(http.MethodPost, "/api/ui-components/render", "", map[string]any{"name": "ghost"})
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "Failed to load component: ghost")
	s.Contains(w.Body.String(), `"state":"fetch_error"`)
}

func (s *HandlersTestSuite) TestHealthAndMetrics() {
	w := s.do(http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"database":"ok"`)

	w = s.do(http.MethodGet, "/metrics", "", nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlersTestSuite) TestHealthDegraded() {
	h := NewHandlers(s.svc)
	h.SetHealthChecks(
		HealthCheck{Name: "redis", Check: func(context.Context) error { return cache.ErrMiss }},
	)
	router := gin.New()
	router.GET("/health", h.Health)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"redis":"unavailable"`)

	h.SetHealthChecks(HealthCheck{Name: "database", Critical: true, Check: func(context.Context) error { return cache.ErrMiss }})
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	s.Equal(http.StatusServiceUnavailable, w.Code)
}

func (s *HandlersTestSuite) TestAPIRateLimit() {
	router := gin.New()
	NewHandlers(s.svc).RegisterRoutes(router, auth.NewMockAuthService(), RouteOptions{APIRatePerMinute: 2})

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	s.Equal(http.StatusOK, get("/api/ui-components").Code)
	s.Equal(http.StatusOK, get("/api/ui-components").Code)
	w := get("/api/ui-components")
	s.Equal(http.StatusTooManyRequests, w.Code)
	s.NotEmpty(w.Header().Get("Retry-After"))

	// health and metrics sit outside the API group
	s.Equal(http.StatusOK, get("/health").Code)
}

func (s *HandlersTestSuite) TestAlerts() {
	rule := &alerts.Rule{Name: "Render errors", Type: alerts.TypeRenderErrorRate, Level: alerts.LevelWarning}
	s.alerts.AddRule(rule)
	s.alerts.Trigger(rule, "[Render errors] 40.0% over 50 events (threshold 10.0%)", nil)

	w := s.do(http.MethodGet, "/api/ui-components/alerts", userToken, nil)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(http.MethodGet, "/api/ui-components/alerts", adminToken, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Alerts []alerts.Alert `json:"alerts"`
		Stats  alerts.Stats   `json:"stats"`
	}
	s.decode(w, &resp)
	s.Require().Len(resp.Alerts, 1)
	s.Equal(alerts.TypeRenderErrorRate, resp.Alerts[0].Type)
	s.Equal(1, resp.Stats.Warning)

	s.alerts.ResolveRule(rule.ID)
	w = s.do(http.MethodGet, "/api/ui-components/alerts", adminToken, nil)
	s.decode(w, &resp)
	s.Empty(resp.Alerts)

	w = s.do(http.MethodGet, "/api/ui-components/alerts?all=true", adminToken, nil)
	s.decode(w, &resp)
	s.Len(resp.Alerts, 1)
}
