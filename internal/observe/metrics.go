// Package observe provides application-wide observability primitives for the
// NPC simulation: OpenTelemetry metrics, distributed tracing, structured
// logging, and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all simulation metrics.
const meterName = "github.com/frogmud/NEVERDIEGUY26-sub001"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use.
type Metrics struct {
	// --- Latency histograms ---

	// TurnDuration tracks the time to produce one InteractionTurn.
	TurnDuration metric.Float64Histogram

	// SearchDuration tracks conversation search latency.
	SearchDuration metric.Float64Histogram

	// SearchIterations tracks how many iterations each search ran. Use with
	// attribute:
	//   attribute.String("reason", ...)
	SearchIterations metric.Int64Histogram

	// --- Counters ---

	// Selections counts selected responses. Use with attribute:
	//   attribute.String("source", ...)
	Selections metric.Int64Counter

	// ChatbaseLookups counts chatbase lookups. Use with attribute:
	//   attribute.String("result", "hit"|"miss"|"low_confidence")
	ChatbaseLookups metric.Int64Counter

	// Intents counts detected player intents. Use with attribute:
	//   attribute.String("intent", ...)
	Intents metric.Int64Counter

	// MemoryEvictions counts memory events dropped at capacity.
	MemoryEvictions metric.Int64Counter

	// Storylines counts storylines recorded by the ambient loop.
	Storylines metric.Int64Counter

	// AmbientTicks counts ambient loop ticks.
	AmbientTicks metric.Int64Counter

	// --- Error counters ---

	// StoreErrors counts persistence failures absorbed by the store guard. Use
	// with attribute:
	//   attribute.String("op", "load"|"save")
	StoreErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveNPCs tracks the number of NPCs in the loaded roster.
	ActiveNPCs metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("route", ...),
	//   attribute.Int("status", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds). Turns and
// searches are in-process and usually finish well below a millisecond.
var latencyBuckets = []float64{
	0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25,
}

var iterationBuckets = []float64{1, 10, 25, 50, 100, 200, 400, 1000}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.TurnDuration, err = m.Float64Histogram("npcsim.turn.duration",
		metric.WithDescription("Time to produce one interaction turn."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SearchDuration, err = m.Float64Histogram("npcsim.search.duration",
		metric.WithDescription("Latency of conversation search."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SearchIterations, err = m.Int64Histogram("npcsim.search.iterations",
		metric.WithDescription("Iterations run per conversation search by stop reason."),
		metric.WithExplicitBucketBoundaries(iterationBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.Selections, err = m.Int64Counter("npcsim.selection.count",
		metric.WithDescription("Total selected responses by fallback source."),
	); err != nil {
		return nil, err
	}
	if met.ChatbaseLookups, err = m.Int64Counter("npcsim.chatbase.lookup.count",
		metric.WithDescription("Total chatbase lookups by result."),
	); err != nil {
		return nil, err
	}
	if met.Intents, err = m.Int64Counter("npcsim.intent.count",
		metric.WithDescription("Total detected player intents by intent."),
	); err != nil {
		return nil, err
	}
	if met.MemoryEvictions, err = m.Int64Counter("npcsim.memory.evictions",
		metric.WithDescription("Total memory events evicted at capacity."),
	); err != nil {
		return nil, err
	}
	if met.Storylines, err = m.Int64Counter("npcsim.storyline.count",
		metric.WithDescription("Total storylines recorded by the ambient loop."),
	); err != nil {
		return nil, err
	}
	if met.AmbientTicks, err = m.Int64Counter("npcsim.ambient.ticks",
		metric.WithDescription("Total ambient loop ticks."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.StoreErrors, err = m.Int64Counter("npcsim.store.errors",
		metric.WithDescription("Total persistence errors by operation."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveNPCs, err = m.Int64UpDownCounter("npcsim.active_npcs",
		metric.WithDescription("Number of NPCs in the loaded roster."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("npcsim.http.request.duration",
		metric.WithDescription("HTTP request latency by method, route and status."),
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

// RecordSelection records one selected response by source.
func (m *Metrics) RecordSelection(ctx context.Context, source string) {
	m.Selections.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}

// RecordChatbaseLookup records one chatbase lookup by result.
func (m *Metrics) RecordChatbaseLookup(ctx context.Context, result string) {
	m.ChatbaseLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// RecordSearch records the latency and iteration count of one search.
func (m *Metrics) RecordSearch(ctx context.Context, seconds float64, iterations int, reason string) {
	m.SearchDuration.Record(ctx, seconds)
	m.SearchIterations.Record(ctx, int64(iterations),
		metric.WithAttributes(attribute.String("reason", reason)),
	)
}

// RecordIntent records one detected player intent.
func (m *Metrics) RecordIntent(ctx context.Context, intent string) {
	m.Intents.Add(ctx, 1, metric.WithAttributes(attribute.String("intent", intent)))
}

// RecordStoreError records a persistence failure for op.
func (m *Metrics) RecordStoreError(ctx context.Context, op string) {
	m.StoreErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}
