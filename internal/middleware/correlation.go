package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/hearthstay/server/internal/util"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const correlationBaggageKey = "correlation_id"

// CorrelationMiddleware propagates X-Correlation-ID, falling back to the
// request ID, into the span and into baggage so background work such as
// usage tracking can keep it. Run it after RequestIDMiddleware.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader("X-Correlation-ID")
		if correlationID == "" {
			correlationID = util.RequestID(c)
		}
		if correlationID == "" {
			c.Next()
			return
		}

		c.Set(util.ContextCorrelationIDKey, correlationID)
		c.Header("X-Correlation-ID", correlationID)

		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			span.SetAttributes(attribute.String("trace.correlation_id", correlationID))
		}

		if member, err := baggage.NewMember(correlationBaggageKey, correlationID); err == nil {
			bag := baggage.FromContext(c.Request.Context())
			if bag, err = bag.SetMember(member); err == nil {
				c.Request = c.Request.WithContext(baggage.ContextWithBaggage(c.Request.Context(), bag))
			}
		}

		c.Next()
	}
}

// SpanEnrichmentMiddleware sets the span status from the final response
func SpanEnrichmentMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			span.SetStatus(codes.Error, "server error")
		case status == 404:
			span.SetStatus(codes.Unset, "not found")
		case status >= 400:
			span.SetStatus(codes.Error, "client error")
		default:
			span.SetStatus(codes.Ok, "")
		}
		if size := c.Writer.Size(); size > 0 {
			span.SetAttributes(attribute.Int64("http.response.size_bytes", int64(size)))
		}
	}
}
