package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/hearthstay/server/internal/alerts"
	"github.com/hearthstay/server/internal/service"
	"github.com/hearthstay/server/internal/util"
)

// HealthCheck probes one dependency for GET /health
type HealthCheck struct {
	Name string
	// Critical dependencies turn the endpoint into a 503 when they fail
	Critical bool
	Check    func(ctx context.Context) error
}

// Handlers contains all HTTP handlers for the UI component API
type Handlers struct {
	components *service.ComponentService
	health     []HealthCheck
	alerts     *alerts.Manager
}

// NewHandlers creates a new handlers instance
func NewHandlers(components *service.ComponentService) *Handlers {
	return &Handlers{components: components}
}

// SetHealthChecks sets the dependencies reported by GET /health
func (h *Handlers) SetHealthChecks(checks ...HealthCheck) {
	h.health = checks
}

// SetAlerts enables GET /api/ui-components/alerts
func (h *Handlers) SetAlerts(m *alerts.Manager) {
	h.alerts = m
}

// requestMeta collects what the service records about the caller
func requestMeta(c *gin.Context) service.RequestMeta {
	meta := service.RequestMeta{
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
		RequestID: util.RequestID(c),
	}
	if userID, ok := util.OptionalUserID(c); ok {
		meta.UserID = &userID
	}
	return meta
}
