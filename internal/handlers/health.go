package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hearthstay/server/internal/logger"
	"go.uber.org/zap"
)

// Health reports the service and its dependencies
// GET /health
func (h *Handlers) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.health))
	for _, check := range h.health {
		if err := check.Check(ctx); err != nil {
			deps[check.Name] = "unavailable"
			logger.Log.Warn("Health check failed",
				zap.String("dependency", check.Name),
				zap.Error(err),
			)
			if check.Critical {
				status = http.StatusServiceUnavailable
			}
			continue
		}
		deps[check.Name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	c.JSON(status, gin.H{
		"status":       overall,
		"timestamp":    time.Now().UTC(),
		"service":      "hearthstay-ui-components",
		"dependencies": deps,
	})
}
