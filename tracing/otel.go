package tracing

import (
	"context"
	"sync"
	"time"

	"github.com/atomledger/atomengine/errors"
	"github.com/atomledger/atomengine/settings"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

var (
	mu sync.Mutex
	tp *sdktrace.TracerProvider
)

// InitTracer installs the global otel tracer provider exporting to the configured
// OTLP/HTTP collector. Calling it again while a provider is installed is a no-op.
func InitTracer(tSettings *settings.Settings) error {
	mu.Lock()
	defer mu.Unlock()

	if tp != nil || !tSettings.Tracing.Enabled {
		return nil
	}

	if tSettings.Tracing.Collector == nil || tSettings.Tracing.Collector.Host == "" {
		return errors.NewConfigurationError("tracing is enabled but no collector url is set")
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(tSettings.Tracing.Collector.Host)}
	if tSettings.Tracing.Collector.Scheme != "https" {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(context.Background(), opts...)
	if err != nil {
		return errors.NewProcessingError("failed to create OTLP exporter", err)
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(attribute.String("service.name", tSettings.ServiceName)),
	)
	if err != nil {
		return errors.NewProcessingError("failed to create resource", err)
	}

	tp = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(time.Second)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(tSettings.Tracing.SampleRate))),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return nil
}

// ShutdownTracer flushes and removes the provider installed by InitTracer.
func ShutdownTracer(ctx context.Context) error {
	mu.Lock()
	defer mu.Unlock()

	if tp == nil {
		return nil
	}

	defer func() {
		tp = nil
	}()

	if err := tp.ForceFlush(ctx); err != nil {
		return errors.NewProcessingError("failed to flush spans", err)
	}

	if err := tp.Shutdown(ctx); err != nil {
		return errors.NewProcessingError("failed to shutdown tracer", err)
	}

	return nil
}
