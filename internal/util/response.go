package util

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hearthstay/server/internal/errors"
	"github.com/hearthstay/server/internal/logger"
	"go.uber.org/zap"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string              `json:"code"`
	Message string              `json:"message,omitempty"`
	Field   string              `json:"field,omitempty"`
	Details string              `json:"details,omitempty"`
	Fields  []errors.FieldError `json:"fields,omitempty"`
}

// RespondWithAPIError sends a structured API error response
func RespondWithAPIError(c *gin.Context, apiErr *errors.APIError) {
	fields := []zap.Field{
		zap.String("code", string(apiErr.Code)),
		zap.String("message", apiErr.Message),
		zap.Int("status", apiErr.Status),
		zap.String("path", c.Request.URL.Path),
	}
	if requestID := RequestID(c); requestID != "" {
		fields = append(fields, logger.WithRequestID(requestID))
	}
	if apiErr.Field != "" {
		fields = append(fields, zap.String("field", apiErr.Field))
	}
	if len(apiErr.Fields) > 0 {
		fields = append(fields, zap.Int("invalid_fields", len(apiErr.Fields)))
	}

	if apiErr.Status >= http.StatusInternalServerError {
		logger.Log.Error("API error", fields...)
	} else if apiErr.Status >= http.StatusBadRequest {
		logger.Log.Warn("API error", fields...)
	}

	c.JSON(apiErr.Status, ErrorResponse{
		Code:    string(apiErr.Code),
		Message: apiErr.Message,
		Field:   apiErr.Field,
		Details: apiErr.Details,
		Fields:  apiErr.Fields,
	})
}

// RespondError writes err as an API error. Errors that are not already
// *errors.APIError become a 500 and are attached to the gin context.
func RespondError(c *gin.Context, err error) {
	if apiErr, ok := errors.As(err); ok {
		RespondWithAPIError(c, apiErr)
		return
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		_ = c.Error(err)
		RespondWithAPIError(c, errors.ServiceUnavailable("storage"))
		return
	}
	_ = c.Error(err)
	logger.Log.Error("Unhandled error", zap.Error(err))
	RespondWithAPIError(c, errors.InternalError("internal server error"))
}

// RespondBadRequest sends a 400 Bad Request response
func RespondBadRequest(c *gin.Context, message string) {
	RespondWithAPIError(c, errors.BadRequest(message))
}
