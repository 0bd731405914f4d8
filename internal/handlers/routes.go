package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/hearthstay/server/internal/auth"
	"github.com/hearthstay/server/internal/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouteOptions tunes route registration
type RouteOptions struct {
	// APIRatePerMinute limits every /api request per client IP; 0 disables it
	APIRatePerMinute   int
	TrackRatePerMinute int
}

// RegisterRoutes mounts the health, metrics and /api/ui-components routes
func (h *Handlers) RegisterRoutes(r gin.IRouter, validator auth.TokenValidator, opts RouteOptions) {
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	requireAdmin := []gin.HandlerFunc{middleware.RequireAuth(validator), middleware.RequireAdmin()}
	optionalAuth := middleware.OptionalAuth(validator)

	api := r.Group("/api/ui-components")
	if opts.APIRatePerMinute > 0 {
		api.Use(middleware.RateLimit(opts.APIRatePerMinute))
	}
	{
		// public reads
		api.GET("", h.ListComponents)
		api.GET("/name/:name", h.GetComponentByName)
		api.GET("/:id", h.GetComponent)

		api.POST("/track-usage", optionalAuth, middleware.RateLimitUsage(opts.TrackRatePerMinute), h.TrackUsage)
		api.POST("/render", optionalAuth, h.RenderComponent)

		admin := api.Group("", requireAdmin...)
		admin.POST("", h.CreateComponent)
		admin.PUT("/:id", h.UpdateComponent)
		admin.DELETE("/:id", h.DeleteComponent)
		admin.GET("/:id/analytics", h.GetAnalytics)
		admin.POST("/:id/recount", h.RecountUsage)
		if h.alerts != nil {
			admin.GET("/alerts", h.ListAlerts)
		}
	}
}
