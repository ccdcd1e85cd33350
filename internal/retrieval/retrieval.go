// Package retrieval runs top-K similarity queries against a vector index.
package retrieval

import (
	"context"
	"log/slog"
	"time"

	"github.com/Aden1ke/Thera/internal/telemetry"
	"github.com/Aden1ke/Thera/internal/vectordb"
)

// DefaultTopK is used when a caller passes topK <= 0.
const DefaultTopK = 4

// Searcher is the query side of a vector index.
type Searcher[M any] interface {
	Name() string
	Query(ctx context.Context, text string, topK int) ([]vectordb.SearchResult[M], error)
}

// Service holds the retrieval defaults shared by every index.
type Service struct {
	defaultTopK int
	logger      *slog.Logger
	metrics     *telemetry.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithDefaultTopK overrides DefaultTopK.
func WithDefaultTopK(k int) Option {
	return func(s *Service) {
		if k > 0 {
			s.defaultTopK = k
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a Service.
func NewService(opts ...Option) *Service {
	s := &Service{defaultTopK: DefaultTopK, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// DefaultTopK returns the limit applied when a caller passes topK <= 0.
func (s *Service) DefaultTopK() int { return s.defaultTopK }

// Retrieve queries index for text. A topK of zero or less takes the
// service default.
func Retrieve[M any](ctx context.Context, s *Service, index Searcher[M], text string, topK int) ([]vectordb.SearchResult[M], error) {
	if topK <= 0 {
		topK = s.defaultTopK
	}

	start := time.Now()
	results, err := index.Query(ctx, text, topK)
	elapsed := time.Since(start)
	s.metrics.RecordRetrieval(ctx, index.Name(), elapsed, err)

	if err != nil {
		return nil, err
	}
	s.logger.Debug("retrieved documents", "index", index.Name(), "top_k", topK, "hits", len(results), "elapsed", elapsed)
	return results, nil
}
