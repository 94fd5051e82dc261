package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/stacklok/plugin-index/internal/sources"
	pkgsync "github.com/stacklok/plugin-index/internal/sync"
	"github.com/stacklok/plugin-index/internal/sync/state"
)

const (
	// IngestMetricsMeterName is the name used for the ingest metrics meter
	IngestMetricsMeterName = "github.com/stacklok/plugin-index/ingest"
)

// IngestMetrics holds the OpenTelemetry instruments for ingest runs and
// common project refreshes. A nil *IngestMetrics records nothing.
type IngestMetrics struct {
	itemsTotal     metric.Int64Counter
	runDuration    metric.Float64Histogram
	runItems       metric.Int64Gauge
	commonProjects metric.Int64Gauge
}

var _ pkgsync.Metrics = (*IngestMetrics)(nil)

// NewIngestMetrics creates a new IngestMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewIngestMetrics(provider metric.MeterProvider) (*IngestMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(IngestMetricsMeterName)

	itemsTotal, err := meter.Int64Counter(
		"plugin_index_ingest_items_total",
		metric.WithDescription("Listing items handled by ingest runs, by outcome"),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		return nil, err
	}

	runDuration, err := meter.Float64Histogram(
		"plugin_index_ingest_run_duration_seconds",
		metric.WithDescription("Duration of ingest runs in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 30, 60, 300, 600, 1800, 3600, 7200),
	)
	if err != nil {
		return nil, err
	}

	runItems, err := meter.Int64Gauge(
		"plugin_index_ingest_run_processed_items",
		metric.WithDescription("Items processed by the most recent run"),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		return nil, err
	}

	commonProjects, err := meter.Int64Gauge(
		"plugin_index_common_projects",
		metric.WithDescription("Number of common projects after the most recent refresh"),
		metric.WithUnit("{project}"),
	)
	if err != nil {
		return nil, err
	}

	return &IngestMetrics{
		itemsTotal:     itemsTotal,
		runDuration:    runDuration,
		runItems:       runItems,
		commonProjects: commonProjects,
	}, nil
}

// RecordOutcome counts one item outcome
func (m *IngestMetrics) RecordOutcome(
	ctx context.Context, registry sources.Registry, item sources.ItemKind, kind pkgsync.OutcomeKind,
) {
	if m == nil || m.itemsTotal == nil {
		return
	}
	m.itemsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("registry", string(registry)),
		attribute.String("item", string(item)),
		attribute.String("outcome", kind.String()),
	))
}

// RecordRun records a finished populate or update run
func (m *IngestMetrics) RecordRun(
	ctx context.Context, action state.Action, registry sources.Registry, item sources.ItemKind,
	duration time.Duration, stats pkgsync.Stats, success bool,
) {
	if m == nil || m.runDuration == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("action", string(action)),
		attribute.String("registry", string(registry)),
		attribute.String("item", string(item)),
		attribute.Bool("success", success),
	)
	m.runDuration.Record(ctx, duration.Seconds(), attrs)
	m.runItems.Record(ctx, int64(stats.Processed), attrs)
}

// RecordRefresh records a finished common project refresh
func (m *IngestMetrics) RecordRefresh(ctx context.Context, projects int, duration time.Duration, success bool) {
	if m == nil || m.runDuration == nil {
		return
	}
	m.runDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("action", string(state.ActionRefresh)),
		attribute.String("registry", string(sources.Common)),
		attribute.String("item", string(sources.KindProject)),
		attribute.Bool("success", success),
	))
	if success {
		m.commonProjects.Record(ctx, int64(projects))
	}
}
