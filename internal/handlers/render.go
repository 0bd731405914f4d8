package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hearthstay/server/internal/resolve"
	"github.com/hearthstay/server/internal/service"
	"github.com/hearthstay/server/internal/util"
)

type renderRequest struct {
	Name       string         `json:"name"`
	ID         string         `json:"id"`
	Data       map[string]any `json:"data"`
	Page       string         `json:"page"`
	Context    map[string]any `json:"context"`
	TrackUsage bool           `json:"trackUsage"`
}

// RenderComponent resolves and renders a descriptor server side.
// Fetch and render failures are reported in-band as error blocks with 200.
// POST /api/ui-components/render
func (h *Handlers) RenderComponent(c *gin.Context) {
	var req renderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	view := h.components.NewView(service.ViewOptions{
		Ref:        resolve.Ref{Name: req.Name, ID: req.ID},
		Page:       req.Page,
		Context:    req.Context,
		TrackUsage: req.TrackUsage,
		Meta:       requestMeta(c),
	})
	c.JSON(http.StatusOK, view.Render(c.Request.Context(), req.Data))
}
