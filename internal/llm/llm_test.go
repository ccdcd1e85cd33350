package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// MockProvider is a test provider that records calls and returns canned responses.
type MockProvider struct {
	mu       sync.Mutex
	Calls    []CompletionRequest
	Response *CompletionResponse
	Err      error
	ProvName string
}

func NewMockProvider(name string) *MockProvider {
	return &MockProvider{
		ProvName: name,
		Response: &CompletionResponse{
			Content:      "mock response",
			InputTokens:  10,
			OutputTokens: 20,
			Model:        "mock-model",
			FinishReason: "stop",
		},
	}
}

func (m *MockProvider) Name() string {
	return m.ProvName
}

func (m *MockProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, req)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Response, nil
}

func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

var helloRequest = CompletionRequest{
	Model:    "test-model",
	Messages: []Message{{Role: RoleUser, Content: "hello"}},
}

func TestFactoryReturnsErrorForMissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	for _, p := range []string{"openai", "openrouter", "google"} {
		if _, err := NewProvider(context.Background(), p, "some-model"); err == nil {
			t.Errorf("expected error for provider %q with missing API key", p)
		}
	}
}

func TestFactoryReturnsErrorForUnknownProvider(t *testing.T) {
	if _, err := NewProvider(context.Background(), "anthropic", "some-model"); err == nil {
		t.Error("expected error for unsupported provider")
	}
}

func TestFactoryCreatesOpenAICompatibleProviders(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("OPENROUTER_API_KEY", "test-key")
	t.Setenv("OLLAMA_HOST", "")

	tests := []struct {
		providerType string
		model        string
	}{
		{"openai", "gpt-3.5-turbo"},
		{"openrouter", "openai/gpt-4o-mini"},
		{"ollama", "llama3"},
	}
	for _, tt := range tests {
		t.Run(tt.providerType, func(t *testing.T) {
			p, err := NewProvider(context.Background(), tt.providerType, tt.model)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Name() != tt.providerType {
				t.Errorf("Name() = %q, want %q", p.Name(), tt.providerType)
			}
			op, ok := p.(*OpenAIProvider)
			if !ok {
				t.Fatalf("expected *OpenAIProvider, got %T", p)
			}
			if op.Model() != tt.model {
				t.Errorf("Model() = %q, want %q", op.Model(), tt.model)
			}
		})
	}
}

func TestFactoryCreatesGoogleProvider(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "test-key")
	provider, err := NewProvider(context.Background(), "google", "gemini-2.0-flash")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.Name() != "google" {
		t.Errorf("expected name 'google', got %q", provider.Name())
	}
	provider.(*GoogleProvider).Close()
}

func TestRateLimiterPassesThrough(t *testing.T) {
	mock := NewMockProvider("test")
	rl := NewRateLimitedProvider(mock, 60)

	resp, err := rl.Complete(context.Background(), helloRequest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "mock response" {
		t.Errorf("expected 'mock response', got %q", resp.Content)
	}
	if rl.Name() != "test" {
		t.Errorf("expected name 'test', got %q", rl.Name())
	}
}

func TestRateLimiterLimitsRequests(t *testing.T) {
	mock := NewMockProvider("test")
	rl := NewRateLimitedProvider(mock, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	for i := 0; i < 2; i++ {
		if _, err := rl.Complete(ctx, helloRequest); err != nil {
			t.Fatalf("request %d: unexpected error: %v", i, err)
		}
	}

	// The bucket is empty and the next token is 30s away.
	if _, err := rl.Complete(ctx, helloRequest); err == nil {
		t.Error("expected error due to rate limiting + context timeout")
	}
	if mock.CallCount() != 2 {
		t.Errorf("expected 2 calls to reach the provider, got %d", mock.CallCount())
	}
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	mock := NewMockProvider("flaky")
	mock.Err = errors.New("upstream 500")
	settings := BreakerSettings{MinRequests: 3, FailureRatio: 0.5, Interval: time.Minute, Timeout: time.Minute}
	b := NewBreakerProvider(mock, settings, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := b.Complete(ctx, helloRequest); err == nil || errors.Is(err, ErrUnavailable) {
			t.Fatalf("request %d: expected upstream error, got %v", i, err)
		}
	}

	_, err := b.Complete(ctx, helloRequest)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable once open, got %v", err)
	}
	if mock.CallCount() != 3 {
		t.Errorf("open breaker should not call the provider, got %d calls", mock.CallCount())
	}
}

func TestBreakerPassesThroughSuccess(t *testing.T) {
	mock := NewMockProvider("ok")
	b := NewBreakerProvider(mock, DefaultBreakerSettings(), nil)

	resp, err := b.Complete(context.Background(), helloRequest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "mock response" {
		t.Errorf("got %q", resp.Content)
	}
	if b.Name() != "ok" {
		t.Errorf("Name() = %q", b.Name())
	}
}

func TestEstimateCostKnownModels(t *testing.T) {
	for _, model := range []string{"gpt-3.5-turbo", "gpt-4o", "gemini-2.0-flash"} {
		if cost := EstimateCost(model, 1000, 500); cost <= 0 {
			t.Errorf("EstimateCost(%q) = %f, expected > 0", model, cost)
		}
	}
}

func TestEstimateCostUnknownModel(t *testing.T) {
	if cost := EstimateCost("unknown-model", 1000, 500); cost != 0 {
		t.Errorf("expected 0 for unknown model, got %f", cost)
	}
}

func TestEstimateCostAccuracy(t *testing.T) {
	// gpt-3.5-turbo: $0.50/1M input, $1.50/1M output
	cost := EstimateCost("gpt-3.5-turbo", 1_000_000, 1_000_000)
	if cost < 1.99 || cost > 2.01 {
		t.Errorf("expected cost ~$2.00, got $%.2f", cost)
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"hi", 1},
		{"hello world!!", 3},
		{"a longer piece of text that has more characters", 11},
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.text); got != tt.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestTracedProviderPassesThrough(t *testing.T) {
	mock := NewMockProvider("traced")
	p := NewTracedProvider(mock)

	resp, err := p.Complete(context.Background(), helloRequest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "mock response" || p.Name() != "traced" {
		t.Errorf("got %q from %q", resp.Content, p.Name())
	}

	mock.Err = errors.New("boom")
	if _, err := p.Complete(context.Background(), helloRequest); err == nil {
		t.Error("expected error to propagate")
	}
}
