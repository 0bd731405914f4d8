package middleware

import (
	"github.com/gin-gonic/gin"
	apperrors "github.com/hearthstay/server/internal/errors"
	"github.com/hearthstay/server/internal/logger"
	"github.com/hearthstay/server/internal/util"
)

// RequireAdmin ensures the request is authenticated and the user is an admin.
// It must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := util.CurrentUser(c)
		if !ok {
			util.RespondWithAPIError(c, apperrors.Unauthorized("authentication required"))
			c.Abort()
			return
		}

		if !user.IsAdmin {
			logger.Log.Info("Admin access denied",
				logger.WithUserID(user.ID),
				logger.WithIP(c.ClientIP()),
			)
			util.RespondWithAPIError(c, apperrors.Forbidden("admin access required"))
			c.Abort()
			return
		}

		c.Next()
	}
}
