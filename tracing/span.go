package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/atomledger/atomengine"

func tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// Span is a thin handle on an otel span for code that tags as it goes.
type Span struct {
	Ctx    context.Context
	otSpan trace.Span
}

func Start(ctx context.Context, name string) Span {
	spanCtx, otSpan := tracer().Start(ctx, name)

	return Span{Ctx: spanCtx, otSpan: otSpan}
}

func (s *Span) SetTag(key, value string) {
	s.otSpan.SetAttributes(attribute.String(key, value))
}

func (s *Span) RecordError(err error) {
	s.otSpan.RecordError(err)
	s.otSpan.SetStatus(codes.Error, err.Error())
}

func (s *Span) Finish() {
	s.otSpan.End()
}
