package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitTracerDisabled(t *testing.T) {
	tp, err := InitTracer(context.Background(), Config{Enabled: false})
	assert.NoError(t, err)
	assert.Nil(t, tp)
}

func TestInitTracerNeedsEndpoint(t *testing.T) {
	_, err := InitTracer(context.Background(), Config{Enabled: true, SamplingRate: 1})
	assert.Error(t, err)
}

func TestSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	ctx, span := StartResolve(context.Background(), "promo-banner")
	End(span, nil)

	_, span = StartRender(ctx, "abc", "banner")
	End(span, errors.New("boom"))

	_, span = StartRecordUsage(context.Background(), "abc", span.SpanContext())
	End(span, nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 3)
	assert.Equal(t, "ui_component.resolve", spans[0].Name)
	assert.Equal(t, "ui_component.render", spans[1].Name)
	assert.Equal(t, codes.Error, spans[1].Status.Code)
	assert.Equal(t, "ui_component.record_usage", spans[2].Name)
	assert.Len(t, spans[2].Links, 1)
}
