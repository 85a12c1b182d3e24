package observe

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const scopeName = "github.com/MrWong99/lexora/internal/observe"

// CorrelationHeader carries the correlation ID on requests and responses.
const CorrelationHeader = "X-Correlation-ID"

// maxCorrelationLen bounds client-supplied IDs before they reach log lines.
const maxCorrelationLen = 64

type correlationKey struct{}

// Tracer returns the Lexora tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(scopeName)
}

// StartSpan starts a span named name. The caller ends it.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, opts...)
}

// StartStage starts a child span for one pipeline stage. The returned
// function ends the span and records the stage duration on m.
func StartStage(ctx context.Context, m *Metrics, stage string) (context.Context, func()) {
	start := time.Now()
	ctx, span := StartSpan(ctx, "extract."+stage,
		trace.WithAttributes(attribute.String("lexora.stage", stage)))
	return ctx, func() {
		m.RecordStage(ctx, stage, time.Since(start))
		span.End()
	}
}

// WithCorrelationID stores a caller-supplied correlation ID in ctx. IDs that
// are empty, too long or contain characters outside [A-Za-z0-9._-] are
// ignored so the trace ID is used instead.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if !validCorrelationID(id) {
		return ctx
	}
	return context.WithValue(ctx, correlationKey{}, id)
}

func validCorrelationID(id string) bool {
	if id == "" || len(id) > maxCorrelationLen {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}

// CorrelationID returns the ID set by [WithCorrelationID], else the trace ID
// of the active span, else "".
func CorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationKey{}).(string); ok {
		return id
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

// Logger returns the default logger decorated with the trace, span and
// correlation IDs found in ctx.
func Logger(ctx context.Context) *slog.Logger {
	l := slog.Default()
	sc := trace.SpanContextFromContext(ctx)
	if sc.HasTraceID() {
		l = l.With(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	if id, ok := ctx.Value(correlationKey{}).(string); ok {
		l = l.With(slog.String("correlation_id", id))
	}
	return l
}
