package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hearthstay/server/internal/alerts"
)

type alertsResponse struct {
	Alerts []*alerts.Alert `json:"alerts"`
	Stats  alerts.Stats    `json:"stats"`
}

// ListAlerts returns active alerts, or all stored alerts with ?all=true
// GET /api/ui-components/alerts
func (h *Handlers) ListAlerts(c *gin.Context) {
	list := h.alerts.Active()
	if c.Query("all") == "true" {
		list = h.alerts.All()
	}
	c.JSON(http.StatusOK, alertsResponse{Alerts: list, Stats: h.alerts.Stats()})
}
