package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hearthstay/server/internal/service"
	"github.com/hearthstay/server/internal/util"
)

// ListComponents returns descriptors matching the query filters
// GET /api/ui-components?category=&componentType=&isActive=&isPublic=
func (h *Handlers) ListComponents(c *gin.Context) {
	isActive, err := util.ParseOptionalBool(c.Query("isActive"))
	if err != nil {
		util.RespondBadRequest(c, "isActive: "+err.Error())
		return
	}
	isPublic, err := util.ParseOptionalBool(c.Query("isPublic"))
	if err != nil {
		util.RespondBadRequest(c, "isPublic: "+err.Error())
		return
	}

	list, err := h.components.List(c.Request.Context(), service.ListFilter{
		Category:      c.Query("category"),
		ComponentType: c.Query("componentType"),
		IsActive:      isActive,
		IsPublic:      isPublic,
	})
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetComponent returns one descriptor
// GET /api/ui-components/:id
func (h *Handlers) GetComponent(c *gin.Context) {
	comp, err := h.components.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comp)
}

// GetComponentByName returns one descriptor by its unique name
// GET /api/ui-components/name/:name
func (h *Handlers) GetComponentByName(c *gin.Context) {
	comp, err := h.components.GetByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comp)
}

// CreateComponent stores a new descriptor
// POST /api/ui-components
func (h *Handlers) CreateComponent(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req service.CreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	comp, err := h.components.Create(c.Request.Context(), req, userID)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comp)
}

// UpdateComponent applies a partial update
// PUT /api/ui-components/:id
func (h *Handlers) UpdateComponent(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req service.UpdateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	comp, err := h.components.Update(c.Request.Context(), c.Param("id"), req, userID)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comp)
}

// DeleteComponent removes a descriptor
// DELETE /api/ui-components/:id
func (h *Handlers) DeleteComponent(c *gin.Context) {
	if err := h.components.Delete(c.Request.Context(), c.Param("id")); err != nil {
		util.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
