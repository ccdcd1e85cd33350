// Package chat turns a journal entry into a therapist reply: analyze and
// store the entry, index it, gather context, then complete.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Aden1ke/Thera/internal/journal"
	"github.com/Aden1ke/Thera/internal/telemetry"
)

// EntryRecorder analyzes and persists a journal entry.
type EntryRecorder interface {
	AnalyzeAndStore(ctx context.Context, userID, text string) (*journal.Stored, error)
}

// EntryIndex is the write side of the journal index.
type EntryIndex interface {
	Add(ctx context.Context, text string, meta journal.JournalMetadata) error
}

// ContextBuilder gathers retrieval context for a turn.
type ContextBuilder interface {
	BuildContext(ctx context.Context, entry string, emotions []string, distress float64, userID string) string
}

// Reply is the outcome of one journal-entry turn.
type Reply struct {
	JournalID     string   `json:"journal_id"`
	Emotions      []string `json:"emotions"`
	DistressScore float64  `json:"distress_score"`
	Reply         string   `json:"reply"`
}

// Orchestrator runs the journal-entry chat flow.
type Orchestrator struct {
	entries   EntryRecorder
	index     EntryIndex
	contexts  ContextBuilder
	completer Completer
	timeout   time.Duration
	logger    *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRequestTimeout bounds every turn. Zero disables the bound.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.timeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// NewOrchestrator wires the collaborators. index may be nil, in which
// case new entries are not indexed.
func NewOrchestrator(entries EntryRecorder, index EntryIndex, contexts ContextBuilder, completer Completer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		entries:   entries,
		index:     index,
		contexts:  contexts,
		completer: completer,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.timeout)
}

// HandleUserEntry stores the entry and returns the reply to it. Analysis
// or storage failures wrap ErrAnalysis and completion failures wrap
// ErrCompletion. Indexing and retrieval failures only degrade the reply.
func (o *Orchestrator) HandleUserEntry(ctx context.Context, userID, text string) (Reply, error) {
	ctx, cancel := o.withTimeout(ctx)
	defer cancel()

	ctx, span := telemetry.Tracer().Start(ctx, "chat.handle_user_entry")
	defer span.End()

	stored, err := o.entries.AnalyzeAndStore(ctx, userID, text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "analysis failed")
		return Reply{}, fmt.Errorf("%w: %w", ErrAnalysis, err)
	}
	entry := stored.Entry
	span.SetAttributes(
		attribute.String("thera.journal_id", entry.ID),
		attribute.Float64("thera.distress", entry.DistressScore),
	)

	if o.index != nil {
		if err := o.index.Add(ctx, entry.Text, journal.JournalMeta(*entry)); err != nil {
			o.logger.Warn("journal entry not indexed", "journal_id", entry.ID, "error", err)
		}
	}

	reply, err := o.reply(ctx, userID, entry.Text, entry.Emotions, entry.DistressScore)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		return Reply{}, err
	}

	return Reply{
		JournalID:     entry.ID,
		Emotions:      entry.Emotions,
		DistressScore: entry.DistressScore,
		Reply:         reply,
	}, nil
}

// Chat replies to text without storing it, using the caller's own
// emotions and distress score.
func (o *Orchestrator) Chat(ctx context.Context, userID, text string, emotions []string, distress float64) (string, error) {
	ctx, cancel := o.withTimeout(ctx)
	defer cancel()
	return o.reply(ctx, userID, text, emotions, distress)
}

func (o *Orchestrator) reply(ctx context.Context, userID, text string, emotions []string, distress float64) (string, error) {
	contextText := o.contexts.BuildContext(ctx, text, emotions, distress, userID)

	reply, err := o.completer.Complete(ctx, text, emotions, distress, contextText)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCompletion, err)
	}
	return reply, nil
}
