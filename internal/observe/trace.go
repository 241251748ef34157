package observe

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// tracerName is the instrumentation scope under which every arcana span
// is recorded.
const tracerName = "github.com/rmuhamedgaliev/arcana"

// Tracer returns the tracer used across the arcana packages, resolved
// from the globally registered [trace.TracerProvider].
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartSpan opens a span under the arcana tracer. The caller is
// responsible for ending it.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, opts...)
}

// CorrelationID returns the trace ID of the span recorded in ctx, or ""
// when ctx carries no valid trace. The ID is what the HTTP middleware
// echoes in X-Correlation-ID and what log lines stamp as trace_id, so a
// player's bug report can be matched against both.
func CorrelationID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

// Logger derives an [slog.Logger] from the default one, stamped with
// trace_id and span_id when ctx carries an active span. Without a span
// it is just slog.Default.
func Logger(ctx context.Context) *slog.Logger {
	l := slog.Default()
	sc := trace.SpanContextFromContext(ctx)
	if sc.HasTraceID() {
		l = l.With(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return l
}
