package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestInitTracerDisabled(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), TracerOptions{}, nil)
	if err != nil {
		t.Fatalf("InitTracer: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}

	_, span := Tracer().Start(context.Background(), "noop")
	if span.SpanContext().IsSampled() {
		t.Error("expected a non-recording span without an exporter")
	}
	span.End()
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordEntry(ctx, "llm")
	m.RecordRetrieval(ctx, "journal", time.Millisecond, errors.New("x"))
	m.RecordContextSections(ctx, 2)
	m.RecordDistressAlert(ctx, "sad")
}

func TestInitMetrics(t *testing.T) {
	m, err := InitMetrics()
	if err != nil {
		t.Fatalf("InitMetrics: %v", err)
	}
	ctx := context.Background()
	m.RecordEntry(ctx, "gradio")
	m.RecordRetrieval(ctx, "seeds", 5*time.Millisecond, nil)
	m.RecordContextSections(ctx, 1)
	m.RecordDistressAlert(ctx, "angry")
}
