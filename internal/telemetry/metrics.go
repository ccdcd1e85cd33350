package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the Thera instruments. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	EntriesTotal      metric.Int64Counter
	RetrievalDuration metric.Float64Histogram
	ContextSections   metric.Int64Histogram
	DistressAlerts    metric.Int64Counter
}

// InitMetrics creates the instruments on the global meter provider.
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter(InstrumentationName)

	entries, err := meter.Int64Counter(
		"thera.entries.total",
		metric.WithDescription("Journal entries analyzed and stored"),
	)
	if err != nil {
		return nil, err
	}

	retrieval, err := meter.Float64Histogram(
		"thera.retrieval.duration",
		metric.WithDescription("Vector index query duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	sections, err := meter.Int64Histogram(
		"thera.context.sections",
		metric.WithDescription("Sections in each assembled chat context"),
	)
	if err != nil {
		return nil, err
	}

	alerts, err := meter.Int64Counter(
		"thera.distress.alerts",
		metric.WithDescription("Distress logs at or above the alert threshold"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		EntriesTotal:      entries,
		RetrievalDuration: retrieval,
		ContextSections:   sections,
		DistressAlerts:    alerts,
	}, nil
}

func (m *Metrics) RecordEntry(ctx context.Context, analyzer string) {
	if m == nil {
		return
	}
	m.EntriesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("analyzer", analyzer)))
}

func (m *Metrics) RecordRetrieval(ctx context.Context, index string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.RetrievalDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("index", index),
		attribute.Bool("success", err == nil),
	))
}

func (m *Metrics) RecordContextSections(ctx context.Context, n int) {
	if m == nil {
		return
	}
	m.ContextSections.Record(ctx, int64(n))
}

func (m *Metrics) RecordDistressAlert(ctx context.Context, emotion string) {
	if m == nil {
		return
	}
	m.DistressAlerts.Add(ctx, 1, metric.WithAttributes(attribute.String("emotion", emotion)))
}
