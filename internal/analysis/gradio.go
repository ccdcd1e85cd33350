package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// GradioAnalyzer posts text to a hosted emotion classifier. The endpoint
// may answer either with a Gradio envelope {"data":[{...}]} or with the
// payload itself.
type GradioAnalyzer struct {
	endpoint string
	client   *http.Client
}

// NewGradioAnalyzer creates an analyzer for endpoint. A nil client uses a
// client with a 30 second timeout.
func NewGradioAnalyzer(endpoint string, client *http.Client) *GradioAnalyzer {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &GradioAnalyzer{endpoint: endpoint, client: client}
}

func (g *GradioAnalyzer) Name() string { return "gradio" }

func (g *GradioAnalyzer) Analyze(ctx context.Context, text string) (Result, error) {
	body, err := json.Marshal(map[string]any{"data": []string{text}, "text": text})
	if err != nil {
		return Result{}, fmt.Errorf("%w: encoding request: %w", ErrFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: calling classifier: %w", ErrFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, fmt.Errorf("%w: reading response: %w", ErrFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("%w: classifier returned %s", ErrFailed, resp.Status)
	}

	p, err := decodeGradio(raw)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrFailed, err)
	}
	return p.result(), nil
}

func decodeGradio(raw []byte) (payload, error) {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return payload{}, fmt.Errorf("decoding response: %w", err)
	}

	body := raw
	if len(envelope.Data) > 0 {
		body = envelope.Data
		var items []json.RawMessage
		if err := json.Unmarshal(envelope.Data, &items); err == nil {
			if len(items) == 0 {
				return payload{}, nil
			}
			body = items[0]
		}
	}

	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return payload{}, fmt.Errorf("decoding prediction: %w", err)
	}
	return p, nil
}
