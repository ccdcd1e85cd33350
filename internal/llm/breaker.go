package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// ErrUnavailable is returned while the circuit breaker is open.
var ErrUnavailable = errors.New("llm: provider temporarily unavailable")

// BreakerSettings configures a BreakerProvider.
type BreakerSettings struct {
	// MinRequests is how many requests in an interval are needed before
	// the failure ratio is considered.
	MinRequests uint32
	// FailureRatio trips the breaker when reached.
	FailureRatio float64
	// Interval clears the counts while closed.
	Interval time.Duration
	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration
}

// DefaultBreakerSettings returns the settings used when none are configured.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MinRequests:  3,
		FailureRatio: 0.6,
		Interval:     10 * time.Second,
		Timeout:      60 * time.Second,
	}
}

// BreakerProvider stops calling a failing provider for a while instead of
// letting every chat request wait on it.
type BreakerProvider struct {
	provider Provider
	cb       *gobreaker.CircuitBreaker
}

// NewBreakerProvider wraps provider with a circuit breaker.
func NewBreakerProvider(provider Provider, s BreakerSettings, logger *slog.Logger) *BreakerProvider {
	if logger == nil {
		logger = slog.Default()
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        provider.Name(),
		MaxRequests: 1,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= s.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("llm circuit breaker state change", "provider", name, "from", from.String(), "to", to.String())
		},
	})
	return &BreakerProvider{provider: provider, cb: cb}
}

func (b *BreakerProvider) Name() string {
	return b.provider.Name()
}

func (b *BreakerProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.provider.Complete(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, b.provider.Name())
	}
	if err != nil {
		return nil, err
	}
	return result.(*CompletionResponse), nil
}
