// Package observe provides application-wide observability primitives for
// arcana: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/rmuhamedgaliev/arcana/internal/engine"
)

// meterName is the instrumentation scope name used for all arcana metrics.
const meterName = "github.com/rmuhamedgaliev/arcana"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// SceneTransitions counts scene visits. Use with attribute:
	//   attribute.String("game", ...)
	SceneTransitions metric.Int64Counter

	// ChoiceWaitDuration tracks how long sessions sit on an option
	// prompt before the player answers.
	ChoiceWaitDuration metric.Float64Histogram

	// SessionsEnded counts finished sessions. Use with attribute:
	//   attribute.String("reason", ...)
	SessionsEnded metric.Int64Counter

	// PersistErrors counts failed player-store writes.
	PersistErrors metric.Int64Counter

	// ActiveSessions tracks the number of live play sessions.
	ActiveSessions metric.Int64UpDownCounter

	// CatalogSize reports the number of loaded games.
	CatalogSize metric.Int64Gauge

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// Compile-time check: Metrics records engine session telemetry directly.
var _ engine.Recorder = (*Metrics)(nil)

// choiceWaitBuckets defines histogram bucket boundaries (in seconds) for
// the choice wait. Replies range from instant console input to chat
// players walking away for most of an hour.
var choiceWaitBuckets = []float64{
	0.1, 0.5, 1, 5, 15, 60, 300, 900, 1800, 3600,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.SceneTransitions, err = m.Int64Counter("arcana.scene.transitions",
		metric.WithDescription("Total scene visits by game."),
	); err != nil {
		return nil, err
	}
	if met.ChoiceWaitDuration, err = m.Float64Histogram("arcana.choice.wait.duration",
		metric.WithDescription("Time spent waiting for a player's choice."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(choiceWaitBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SessionsEnded, err = m.Int64Counter("arcana.sessions.ended",
		metric.WithDescription("Total finished sessions by termination reason."),
	); err != nil {
		return nil, err
	}
	if met.PersistErrors, err = m.Int64Counter("arcana.persist.errors",
		metric.WithDescription("Total failed player-store writes."),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter("arcana.active_sessions",
		metric.WithDescription("Number of live play sessions."),
	); err != nil {
		return nil, err
	}
	if met.CatalogSize, err = m.Int64Gauge("arcana.catalog.size",
		metric.WithDescription("Number of loaded games."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("arcana.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// SceneShown records a scene visit for the given game.
func (m *Metrics) SceneShown(ctx context.Context, gameID string) {
	m.SceneTransitions.Add(ctx, 1,
		metric.WithAttributes(attribute.String("game", gameID)),
	)
}

// ChoiceWait records how long the session waited on an option prompt.
func (m *Metrics) ChoiceWait(ctx context.Context, d time.Duration) {
	m.ChoiceWaitDuration.Record(ctx, d.Seconds())
}

// SessionEnded records a finished session with its termination reason.
func (m *Metrics) SessionEnded(ctx context.Context, reason engine.Reason) {
	m.SessionsEnded.Add(ctx, 1,
		metric.WithAttributes(attribute.String("reason", reason.String())),
	)
}

// PersistError records a failed player-store write.
func (m *Metrics) PersistError(ctx context.Context) {
	m.PersistErrors.Add(ctx, 1)
}

// SessionStarted increments the live-session gauge; call the returned
// function when the session ends.
func (m *Metrics) SessionStarted(ctx context.Context) func() {
	m.ActiveSessions.Add(ctx, 1)
	return func() {
		m.ActiveSessions.Add(context.WithoutCancel(ctx), -1)
	}
}

// RecordCatalogSize reports the number of loaded games.
func (m *Metrics) RecordCatalogSize(ctx context.Context, n int) {
	m.CatalogSize.Record(ctx, int64(n))
}
