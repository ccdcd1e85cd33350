package llm

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Aden1ke/Thera/internal/telemetry"
)

// TracedProvider records an llm.complete span around each call.
type TracedProvider struct {
	next Provider
}

// NewTracedProvider wraps p.
func NewTracedProvider(p Provider) *TracedProvider {
	return &TracedProvider{next: p}
}

func (t *TracedProvider) Name() string { return t.next.Name() }

func (t *TracedProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "llm.complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.provider", t.next.Name()),
		attribute.Bool("llm.json_mode", req.JSONMode),
	)

	resp, err := t.next.Complete(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("llm.model", resp.Model),
		attribute.Int("llm.input_tokens", resp.InputTokens),
		attribute.Int("llm.output_tokens", resp.OutputTokens),
	)
	return resp, nil
}
