// Package mtrace carries an OpenTelemetry tracer through
// context.Context.
package mtrace

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type tracerContextKey string

const tracerKey = tracerContextKey("tracer")

// FromContext extracts the tracer carried by ctx, falling back to the
// default global tracer named "corebank".
//
//nolint:ireturn
func FromContext(ctx context.Context) trace.Tracer {
	if tracer, ok := ctx.Value(tracerKey).(trace.Tracer); ok && tracer != nil {
		return tracer
	}

	return otel.Tracer("corebank")
}

// WithContext returns a context carrying tracer under the well-known key.
func WithContext(ctx context.Context, tracer trace.Tracer) context.Context {
	return context.WithValue(ctx, tracerKey, tracer)
}

// HandleSpanError records err on span and sets its status to Error.
func HandleSpanError(span *trace.Span, description string, err error) {
	if err == nil || span == nil {
		return
	}

	(*span).RecordError(err)
	(*span).SetStatus(codes.Error, description+": "+err.Error())
}
