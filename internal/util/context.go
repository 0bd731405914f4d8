package util

import (
	"github.com/gin-gonic/gin"
	"github.com/hearthstay/server/internal/errors"
	"github.com/hearthstay/server/internal/models"
)

// Gin context keys set by the middleware chain
const (
	ContextUserKey          = "user"
	ContextUserIDKey        = "user_id"
	ContextIsAdminKey       = "is_admin"
	ContextRequestIDKey     = "request_id"
	ContextCorrelationIDKey = "correlation_id"
)

// CurrentUser returns the authenticated user without writing a response
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

// GetUserIDFromContext extracts the user ID from the Gin context.
// If the user is not authenticated, it responds with 401 Unauthorized.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userID, ok := OptionalUserID(c)
	if !ok {
		RespondWithAPIError(c, errors.Unauthorized("unauthorized"))
		return "", false
	}
	return userID, true
}

// OptionalUserID returns the user ID for routes where authentication is optional
func OptionalUserID(c *gin.Context) (string, bool) {
	userID := c.GetString(ContextUserIDKey)
	return userID, userID != ""
}

// RequestID returns the ID assigned by RequestIDMiddleware, if any
func RequestID(c *gin.Context) string {
	return c.GetString(ContextRequestIDKey)
}
