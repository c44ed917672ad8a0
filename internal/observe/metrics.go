// Package observe provides application-wide observability primitives for
// Eidolon: OpenTelemetry metrics and a Prometheus exporter bridge.
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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Eidolon metrics.
const meterName = "github.com/thornwick/eidolon"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// DecisionDuration tracks end-to-end action decision latency.
	DecisionDuration metric.Float64Histogram

	// Decisions counts completed action decisions. Use with attributes:
	//   attribute.String("npc_id", ...), attribute.String("action", ...), attribute.String("status", ...)
	Decisions metric.Int64Counter

	// MemoriesFormed counts memories that cleared the significance gate. Use
	// with attribute: attribute.String("npc_id", ...)
	MemoriesFormed metric.Int64Counter

	// MemoriesRecalled counts memories returned by retrieval. Use with
	// attribute: attribute.String("npc_id", ...)
	MemoriesRecalled metric.Int64Counter

	// RelationshipUpdates counts ledger updates. Use with attributes:
	//   attribute.String("npc_id", ...), attribute.String("type", ...)
	RelationshipUpdates metric.Int64Counter

	// CombatClassifications counts combat state classifications. Use with
	// attribute: attribute.String("state", ...)
	CombatClassifications metric.Int64Counter

	// ActiveNPCs tracks the number of currently simulated NPC agents.
	ActiveNPCs metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds). Decisions
// are in-process computations, so the buckets skew small.
var latencyBuckets = []float64{
	0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.DecisionDuration, err = m.Float64Histogram("eidolon.decision.duration",
		metric.WithDescription("End-to-end action decision latency."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Decisions, err = m.Int64Counter("eidolon.decisions",
		metric.WithDescription("Total action decisions by NPC, action tag, and status."),
	); err != nil {
		return nil, err
	}
	if met.MemoriesFormed, err = m.Int64Counter("eidolon.memories.formed",
		metric.WithDescription("Total memories formed past the significance gate."),
	); err != nil {
		return nil, err
	}
	if met.MemoriesRecalled, err = m.Int64Counter("eidolon.memories.recalled",
		metric.WithDescription("Total memories returned by retrieval."),
	); err != nil {
		return nil, err
	}
	if met.RelationshipUpdates, err = m.Int64Counter("eidolon.relationship.updates",
		metric.WithDescription("Total relationship ledger updates by NPC and type."),
	); err != nil {
		return nil, err
	}
	if met.CombatClassifications, err = m.Int64Counter("eidolon.combat.classifications",
		metric.WithDescription("Total combat state classifications by resulting state."),
	); err != nil {
		return nil, err
	}
	if met.ActiveNPCs, err = m.Int64UpDownCounter("eidolon.active_npcs",
		metric.WithDescription("Number of currently simulated NPC agents."),
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

// RecordDecision records one completed decision with the standard attribute
// set.
func (m *Metrics) RecordDecision(ctx context.Context, npcID, action, status string) {
	m.Decisions.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("npc_id", npcID),
			attribute.String("action", action),
			attribute.String("status", status),
		),
	)
}

// RecordRelationshipUpdate records one ledger update.
func (m *Metrics) RecordRelationshipUpdate(ctx context.Context, npcID, relType string) {
	m.RelationshipUpdates.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("npc_id", npcID),
			attribute.String("type", relType),
		),
	)
}

// RecordCombatClassification records one combat state classification.
func (m *Metrics) RecordCombatClassification(ctx context.Context, state string) {
	m.CombatClassifications.Add(ctx, 1,
		metric.WithAttributes(attribute.String("state", state)),
	)
}
