// Package tracing provides OpenTelemetry helpers shared by the provider and service.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Common attribute keys.
const (
	AttrPIDValue    = attribute.Key("pid.value")
	AttrPIDStatus   = attribute.Key("pid.status")
	AttrPIDProvider = attribute.Key("pid.provider")
	AttrProbe       = attribute.Key("crossref.probe")
	AttrOutcome     = attribute.Key("crossref.outcome")
)

// StartSpan starts a new span if the tracer is non-nil. Otherwise it returns
// ctx unchanged and a no-op span, so errors and attributes recorded by the
// caller never land on a parent span it does not own.
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, noop.Span{}
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError records err on span and marks the span failed. The status
// description stays generic; the error itself is kept as a span event.
func RecordError(span trace.Span, err error) {
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation failed")
	}
}
