package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hearthstay/server/internal/errors"
	"github.com/hearthstay/server/internal/service"
	"github.com/hearthstay/server/internal/util"
)

type trackUsageRequest struct {
	ComponentID string `json:"componentId"`
	service.TrackInput
}

// TrackUsage records one rendered-and-displayed occurrence of a component.
// Authentication is optional; the user is recorded when present.
// POST /api/ui-components/track-usage
func (h *Handlers) TrackUsage(c *gin.Context) {
	var req trackUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.ComponentID) == "" {
		util.RespondWithAPIError(c, errors.ValidationFailed(errors.FieldError{
			Field:   "componentId",
			Message: "is required",
		}))
		return
	}

	usage, err := h.components.TrackUsage(c.Request.Context(), req.ComponentID, req.TrackInput, requestMeta(c))
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, usage)
}

// GetAnalytics summarises the usage of one component
// GET /api/ui-components/:id/analytics
func (h *Handlers) GetAnalytics(c *gin.Context) {
	analytics, err := h.components.Analytics(c.Request.Context(), c.Param("id"))
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analytics)
}

// RecountUsage resets the approximate usage counter from the usage log
// POST /api/ui-components/:id/recount
func (h *Handlers) RecountUsage(c *gin.Context) {
	comp, err := h.components.RecountUsage(c.Request.Context(), c.Param("id"))
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comp)
}
