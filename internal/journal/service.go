package journal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Aden1ke/Thera/internal/analysis"
	"github.com/Aden1ke/Thera/internal/telemetry"
)

const (
	// DefaultAlertThreshold is the distress level at which a log raises an
	// alert.
	DefaultAlertThreshold = 7
	summaryRunes          = 150
)

// Stored is the outcome of AnalyzeAndStore.
type Stored struct {
	Entry       *Entry
	DistressLog *DistressLog
}

// Service analyzes entries and keeps their derived records.
type Service struct {
	store          Store
	analyzer       analysis.Analyzer
	alertThreshold float64
	minOccurrences int
	logger         *slog.Logger
	metrics        *telemetry.Metrics
}

// Option configures a Service.
type Option func(*Service)

func WithAlertThreshold(t float64) Option {
	return func(s *Service) {
		if t > 0 {
			s.alertThreshold = t
		}
	}
}

func WithMinOccurrences(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.minOccurrences = n
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
func NewService(store Store, analyzer analysis.Analyzer, opts ...Option) *Service {
	s := &Service{
		store:          store,
		analyzer:       analyzer,
		alertThreshold: DefaultAlertThreshold,
		minOccurrences: DefaultMinOccurrences,
		logger:         slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// AnalyzeAndStore classifies text and persists the entry, its distress log
// and its healing memory. Analyzer failures wrap analysis.ErrFailed.
func (s *Service) AnalyzeAndStore(ctx context.Context, userID, text string) (*Stored, error) {
	if userID == "" || strings.TrimSpace(text) == "" {
		return nil, ErrInvalidInput
	}
	if s.analyzer == nil {
		return nil, fmt.Errorf("analyzing entry: %w: no analyzer configured", analysis.ErrFailed)
	}

	res, err := s.analyzer.Analyze(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("analyzing entry: %w", err)
	}

	entry := &Entry{
		UserID:        userID,
		Text:          text,
		Emotions:      res.Emotions,
		DistressScore: res.DistressScore,
	}
	log := &DistressLog{
		UserID:          userID,
		DetectedEmotion: detectedEmotion(res.Emotions),
		Level:           res.DistressScore,
		UserThreshold:   s.alertThreshold,
	}
	memory := &HealingMemory{
		UserID:        userID,
		MemorySummary: Summarize(text),
	}
	if err := s.store.CreateEntryRecords(ctx, entry, log, memory); err != nil {
		return nil, fmt.Errorf("storing entry: %w", err)
	}
	s.checkThreshold(ctx, log)

	s.metrics.RecordEntry(ctx, s.analyzer.Name())
	s.logger.Info("journal entry stored",
		"user_id", userID,
		"journal_id", entry.ID,
		"emotions", log.DetectedEmotion,
		"distress", res.DistressScore,
	)
	return &Stored{Entry: entry, DistressLog: log}, nil
}

func (s *Service) checkThreshold(ctx context.Context, l *DistressLog) bool {
	threshold := l.UserThreshold
	if threshold <= 0 {
		threshold = DefaultAlertThreshold
	}
	if l.Level < threshold {
		return false
	}
	s.logger.Warn("distress alert",
		"user_id", l.UserID,
		"emotion", l.DetectedEmotion,
		"level", l.Level,
		"threshold", threshold,
	)
	s.metrics.RecordDistressAlert(ctx, l.DetectedEmotion)
	return true
}

// ListJournals returns the user's entries, newest first.
func (s *Service) ListJournals(ctx context.Context, userID string) ([]Entry, error) {
	return s.store.ListJournals(ctx, userID)
}

// GetJournal returns one of the user's entries or ErrNotFound.
func (s *Service) GetJournal(ctx context.Context, userID, id string) (*Entry, error) {
	return s.store.GetJournal(ctx, userID, id)
}

// EmotionLogs returns the user's distress logs matching f, newest first.
func (s *Service) EmotionLogs(ctx context.Context, userID string, f EmotionFilter) ([]DistressLog, error) {
	return s.store.EmotionLogs(ctx, userID, f)
}

// ActiveUsers returns users who wrote an entry at or after since.
func (s *Service) ActiveUsers(ctx context.Context, since time.Time) ([]string, error) {
	return s.store.ActiveUsers(ctx, since)
}

func detectedEmotion(emotions []string) string {
	if len(emotions) == 0 {
		return "unknown"
	}
	return strings.Join(emotions, ", ")
}

// Summarize builds the healing-memory summary for an entry.
func Summarize(text string) string {
	r := []rune(text)
	if len(r) > summaryRunes {
		r = r[:summaryRunes]
	}
	return "Summary: " + string(r) + "..."
}
