package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/atomledger/atomengine/settings"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartTracingRecordsSpanAndMetrics(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)

	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
	})

	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_counter"})

	ctx, stat, done := StartTracing(context.Background(), "outer", WithCounter(counter), WithTag("atom", "abc"))
	require.NotNil(t, stat)

	_, inner, innerDone := StartTracing(ctx, "inner")
	require.NotNil(t, inner)
	innerDone(errors.New("boom"))

	done()

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "inner", spans[0].Name())
	assert.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "outer", spans[1].Name())
	assert.Equal(t, spans[1].SpanContext().SpanID(), spans[0].Parent().SpanID())

	assert.InDelta(t, 1, testutil.ToFloat64(counter), 0)
}

func TestSpanHandle(t *testing.T) {
	span := Start(context.Background(), "handle")
	span.SetTag("k", "v")
	span.RecordError(errors.New("x"))
	span.Finish()

	require.NotNil(t, span.Ctx)
}

func TestInitTracerDisabled(t *testing.T) {
	s := settings.NewSettings()
	s.Tracing.Enabled = false

	require.NoError(t, InitTracer(s))
	require.NoError(t, ShutdownTracer(context.Background()))
}
