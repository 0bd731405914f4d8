package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "hearthstay/ui-components"

func tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartResolve starts a span around a descriptor lookup
func StartResolve(ctx context.Context, ref string) (context.Context, trace.Span) {
	return tracer().Start(ctx, "ui_component.resolve",
		trace.WithAttributes(attribute.String("ui_component.ref", ref)),
	)
}

// StartRender starts a span around one render
func StartRender(ctx context.Context, componentID, componentType string) (context.Context, trace.Span) {
	return tracer().Start(ctx, "ui_component.render",
		trace.WithAttributes(
			attribute.String("ui_component.id", componentID),
			attribute.String("ui_component.type", componentType),
		),
	)
}

// StartRecordUsage starts a span around persisting one usage event.
// It is a new root linked to the originating request when one is known.
func StartRecordUsage(ctx context.Context, componentID string, link trace.SpanContext) (context.Context, trace.Span) {
	opts := []trace.SpanStartOption{
		trace.WithAttributes(attribute.String("ui_component.id", componentID)),
	}
	if link.IsValid() {
		opts = append(opts, trace.WithLinks(trace.Link{SpanContext: link}))
	}
	return tracer().Start(ctx, "ui_component.record_usage", opts...)
}

// End closes span, marking it failed when err is set
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
