package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hearthstay/server/internal/auth"
	apperrors "github.com/hearthstay/server/internal/errors"
	"github.com/hearthstay/server/internal/logger"
	"github.com/hearthstay/server/internal/models"
	"github.com/hearthstay/server/internal/util"
	"go.uber.org/zap"
)

// RequireAuth rejects requests without a valid bearer token.
// On success the user, user_id and is_admin keys are set on the context.
func RequireAuth(validator auth.TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			util.RespondWithAPIError(c, apperrors.Unauthorized("no token provided"))
			c.Abort()
			return
		}

		user, err := validator.ValidateToken(c.Request.Context(), token)
		if err != nil {
			logger.Log.Debug("Token rejected",
				logger.WithIP(c.ClientIP()),
				zap.Error(err),
			)
			util.RespondWithAPIError(c, apperrors.Unauthorized("invalid token"))
			c.Abort()
			return
		}

		setUser(c, user)
		c.Next()
	}
}

// OptionalAuth attaches the user when a valid token is present and lets
// anonymous requests through. An invalid token is treated as anonymous.
func OptionalAuth(validator auth.TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if user, err := validator.ValidateToken(c.Request.Context(), token); err == nil {
				setUser(c, user)
			}
		}
		c.Next()
	}
}

func setUser(c *gin.Context, user *models.User) {
	c.Set(util.ContextUserKey, user)
	c.Set(util.ContextUserIDKey, user.ID)
	c.Set(util.ContextIsAdminKey, user.IsAdmin)
}

func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return ""
	}
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}
