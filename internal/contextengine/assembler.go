// Package contextengine assembles the retrieval context sent with each
// chat completion.
package contextengine

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Aden1ke/Thera/internal/journal"
	"github.com/Aden1ke/Thera/internal/retrieval"
	"github.com/Aden1ke/Thera/internal/telemetry"
	"github.com/Aden1ke/Thera/internal/vectordb"
)

const (
	// DefaultDistressThreshold is the score at which rituals are suggested.
	DefaultDistressThreshold = 8

	journalLabel     = "Related previous entries:\n"
	seedLabel        = "Suggested ritual(s):\n"
	docSeparator     = "\n---\n"
	sectionSeparator = "\n\n"
)

// Assembler builds context from the journal and seed indexes.
type Assembler struct {
	journals    retrieval.Searcher[journal.JournalMetadata]
	seeds       retrieval.Searcher[journal.SeedMetadata]
	retriever   *retrieval.Service
	threshold   float64
	journalTopK int
	seedTopK    int
	logger      *slog.Logger
	metrics     *telemetry.Metrics
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithDistressThreshold sets the score at or above which the seed index
// is consulted.
func WithDistressThreshold(t float64) Option {
	return func(a *Assembler) { a.threshold = t }
}

// WithTopK sets the per-index result limits. Values <= 0 take the
// retrieval service default.
func WithTopK(journalK, seedK int) Option {
	return func(a *Assembler) {
		a.journalTopK = journalK
		a.seedTopK = seedK
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(a *Assembler) { a.logger = l }
}

func WithMetrics(m *telemetry.Metrics) Option {
	return func(a *Assembler) { a.metrics = m }
}

// NewAssembler creates an Assembler over the two indexes.
func NewAssembler(
	journals retrieval.Searcher[journal.JournalMetadata],
	seeds retrieval.Searcher[journal.SeedMetadata],
	retriever *retrieval.Service,
	opts ...Option,
) *Assembler {
	a := &Assembler{
		journals:  journals,
		seeds:     seeds,
		retriever: retriever,
		threshold: DefaultDistressThreshold,
		logger:    slog.Default(),
	}
	for _, o := range opts {
		o(a)
	}
	if a.retriever == nil {
		a.retriever = retrieval.NewService(retrieval.WithLogger(a.logger))
	}
	return a
}

// QueryText is the text embedded to search both indexes. Emotions are
// comma-joined without spaces.
func QueryText(entry string, emotions []string, distress float64) string {
	return entry + " " + strings.Join(emotions, ",") + " distress:" + strconv.FormatFloat(distress, 'f', -1, 64)
}

// BuildContext returns the context for one chat turn. It holds the
// user's related entries and, when distress reaches the threshold, the
// matching rituals. Retrieval failures are logged and leave their section
// out, so the result may be empty.
func (a *Assembler) BuildContext(ctx context.Context, entry string, emotions []string, distress float64, userID string) string {
	ctx, span := telemetry.Tracer().Start(ctx, "contextengine.build_context")
	defer span.End()

	query := QueryText(entry, emotions, distress)
	wantSeeds := distress >= a.threshold
	span.SetAttributes(
		attribute.Float64("thera.distress", distress),
		attribute.Bool("thera.seeds_queried", wantSeeds),
	)

	var journalTexts, seedTexts []string
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		journalTexts = a.ownedEntries(ctx, query, userID)
	}()

	if wantSeeds {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seedTexts = a.rituals(ctx, query)
		}()
	}
	wg.Wait()

	var sections []string
	if len(journalTexts) > 0 {
		sections = append(sections, journalLabel+strings.Join(journalTexts, docSeparator))
	}
	if len(seedTexts) > 0 {
		sections = append(sections, seedLabel+strings.Join(seedTexts, docSeparator))
	}

	span.SetAttributes(attribute.Int("thera.context_sections", len(sections)))
	a.metrics.RecordContextSections(ctx, len(sections))
	return strings.Join(sections, sectionSeparator)
}

func (a *Assembler) ownedEntries(ctx context.Context, query, userID string) []string {
	if a.journals == nil {
		return nil
	}
	results, err := retrieval.Retrieve(ctx, a.retriever, a.journals, query, a.journalTopK)
	if err != nil {
		a.logger.Warn("no journal context available", "user_id", userID, "error", err)
		return nil
	}

	var texts []string
	for _, r := range results {
		if r.Document.Metadata.OwnerID == userID {
			texts = append(texts, r.Document.Text)
		}
	}
	return texts
}

func (a *Assembler) rituals(ctx context.Context, query string) []string {
	if a.seeds == nil {
		return nil
	}
	results, err := retrieval.Retrieve(ctx, a.retriever, a.seeds, query, a.seedTopK)
	if err != nil {
		a.logger.Warn("no ritual context available", "error", err)
		return nil
	}
	return vectordb.Texts(results)
}
