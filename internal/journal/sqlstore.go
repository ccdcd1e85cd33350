package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Aden1ke/Thera/internal/db"
)

// SQLStore is the SQLite-backed Store.
type SQLStore struct {
	db  *db.DB
	now func() time.Time
}

// NewSQLStore creates a store over an opened database.
func NewSQLStore(database *db.DB) *SQLStore {
	return &SQLStore{db: database, now: time.Now}
}

// Ping checks the database connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) stamp(id *string, at *time.Time) {
	if *id == "" {
		*id = uuid.New().String()
	}
	if at.IsZero() {
		*at = s.now().UTC()
	}
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// CreateEntry inserts a journal entry.
func (s *SQLStore) CreateEntry(ctx context.Context, e *Entry) error {
	return s.insertEntry(ctx, s.db, e)
}

// CreateDistressLog inserts a distress log.
func (s *SQLStore) CreateDistressLog(ctx context.Context, l *DistressLog) error {
	return s.insertDistressLog(ctx, s.db, l)
}

// CreateEntryRecords inserts an entry with its distress log and healing
// memory in one transaction.
func (s *SQLStore) CreateEntryRecords(ctx context.Context, e *Entry, l *DistressLog, m *HealingMemory) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.insertEntry(ctx, tx, e); err != nil {
		return err
	}
	l.JournalRef = e.ID
	if err := s.insertDistressLog(ctx, tx, l); err != nil {
		return err
	}
	m.JournalRef = e.ID
	if err := s.insertHealingMemory(ctx, tx, m); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing entry records: %w", err)
	}
	return nil
}

func (s *SQLStore) insertEntry(ctx context.Context, ex execer, e *Entry) error {
	s.stamp(&e.ID, &e.CreatedAt)
	if e.Emotions == nil {
		e.Emotions = []string{}
	}
	emotions, err := json.Marshal(e.Emotions)
	if err != nil {
		return fmt.Errorf("encoding emotions: %w", err)
	}

	_, err = ex.ExecContext(ctx,
		`INSERT INTO journals (id, user_id, entry, emotions, distress_score, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Text, string(emotions), e.DistressScore, e.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("inserting journal: %w", err)
	}
	return nil
}

func (s *SQLStore) insertDistressLog(ctx context.Context, ex execer, l *DistressLog) error {
	s.stamp(&l.ID, &l.CreatedAt)
	_, err := ex.ExecContext(ctx,
		`INSERT INTO distress_logs (id, user_id, detected_emotion, level, journal_ref, user_threshold, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.UserID, l.DetectedEmotion, l.Level, l.JournalRef, l.UserThreshold, l.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("inserting distress log: %w", err)
	}
	return nil
}

func (s *SQLStore) insertHealingMemory(ctx context.Context, ex execer, m *HealingMemory) error {
	s.stamp(&m.ID, &m.CreatedAt)
	_, err := ex.ExecContext(ctx,
		`INSERT INTO healing_memories (id, user_id, journal_ref, memory_summary, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.UserID, m.JournalRef, m.MemorySummary, m.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("inserting healing memory: %w", err)
	}
	return nil
}

// CreateSeed inserts a ritual seed.
func (s *SQLStore) CreateSeed(ctx context.Context, seed *Seed) error {
	s.stamp(&seed.ID, &seed.CreatedAt)
	if seed.EmotionTags == nil {
		seed.EmotionTags = []string{}
	}
	tags, err := json.Marshal(seed.EmotionTags)
	if err != nil {
		return fmt.Errorf("encoding emotion tags: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO seeds (id, emotion_tags, distress_level, prompt, visual_cue, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		seed.ID, string(tags), seed.DistressLevel, seed.Prompt, seed.VisualCue, seed.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("inserting seed: %w", err)
	}
	return nil
}

// ListAllSeeds returns every seed in insertion order.
func (s *SQLStore) ListAllSeeds(ctx context.Context) ([]Seed, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, emotion_tags, distress_level, prompt, visual_cue, created_at
		 FROM seeds ORDER BY created_at ASC, rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing seeds: %w", err)
	}
	defer rows.Close()

	seeds := []Seed{}
	for rows.Next() {
		var seed Seed
		var tags string
		var created int64
		if err := rows.Scan(&seed.ID, &tags, &seed.DistressLevel, &seed.Prompt, &seed.VisualCue, &created); err != nil {
			return nil, fmt.Errorf("scanning seed: %w", err)
		}
		if err := json.Unmarshal([]byte(tags), &seed.EmotionTags); err != nil {
			return nil, fmt.Errorf("decoding emotion tags for seed %s: %w", seed.ID, err)
		}
		seed.CreatedAt = time.Unix(0, created).UTC()
		seeds = append(seeds, seed)
	}
	return seeds, rows.Err()
}

const journalColumns = `id, user_id, entry, emotions, distress_score, created_at`

func scanEntry(row interface{ Scan(...any) error }) (*Entry, error) {
	var e Entry
	var emotions string
	var created int64
	if err := row.Scan(&e.ID, &e.UserID, &e.Text, &emotions, &e.DistressScore, &created); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(emotions), &e.Emotions); err != nil {
		return nil, fmt.Errorf("decoding emotions for journal %s: %w", e.ID, err)
	}
	e.CreatedAt = time.Unix(0, created).UTC()
	return &e, nil
}

func (s *SQLStore) queryEntries(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing journals: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning journal: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// ListJournals returns the user's entries, newest first.
func (s *SQLStore) ListJournals(ctx context.Context, userID string) ([]Entry, error) {
	return s.queryEntries(ctx,
		`SELECT `+journalColumns+` FROM journals WHERE user_id = ? ORDER BY created_at DESC, rowid DESC`, userID)
}

// AllJournals returns every entry, oldest first.
func (s *SQLStore) AllJournals(ctx context.Context) ([]Entry, error) {
	return s.queryEntries(ctx, `SELECT `+journalColumns+` FROM journals ORDER BY created_at ASC, rowid ASC`)
}

// GetJournal returns one entry owned by userID.
func (s *SQLStore) GetJournal(ctx context.Context, userID, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+journalColumns+` FROM journals WHERE id = ? AND user_id = ?`, id, userID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting journal: %w", err)
	}
	return e, nil
}

// EmotionLogs returns the user's distress logs matching f, newest first.
func (s *SQLStore) EmotionLogs(ctx context.Context, userID string, f EmotionFilter) ([]DistressLog, error) {
	query := `SELECT id, user_id, detected_emotion, level, journal_ref, user_threshold, created_at
		 FROM distress_logs WHERE user_id = ?`
	args := []any{userID}

	if !f.From.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, f.From.UnixNano())
	}
	if !f.To.IsZero() {
		query += " AND created_at <= ?"
		args = append(args, f.To.UnixNano())
	}
	if f.Emotion != "" {
		query += " AND instr(lower(detected_emotion), lower(?)) > 0"
		args = append(args, f.Emotion)
	}
	query += " ORDER BY created_at DESC, rowid DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing distress logs: %w", err)
	}
	defer rows.Close()

	logs := []DistressLog{}
	for rows.Next() {
		var l DistressLog
		var created int64
		if err := rows.Scan(&l.ID, &l.UserID, &l.DetectedEmotion, &l.Level, &l.JournalRef, &l.UserThreshold, &created); err != nil {
			return nil, fmt.Errorf("scanning distress log: %w", err)
		}
		l.CreatedAt = time.Unix(0, created).UTC()
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// HealingMemories returns the user's memories, oldest first.
func (s *SQLStore) HealingMemories(ctx context.Context, userID string) ([]HealingMemory, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, journal_ref, memory_summary, created_at
		 FROM healing_memories WHERE user_id = ? ORDER BY created_at ASC, rowid ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing healing memories: %w", err)
	}
	defer rows.Close()

	memories := []HealingMemory{}
	for rows.Next() {
		var m HealingMemory
		var created int64
		if err := rows.Scan(&m.ID, &m.UserID, &m.JournalRef, &m.MemorySummary, &created); err != nil {
			return nil, fmt.Errorf("scanning healing memory: %w", err)
		}
		m.CreatedAt = time.Unix(0, created).UTC()
		memories = append(memories, m)
	}
	return memories, rows.Err()
}

// ActiveUsers returns the distinct users with an entry at or after since.
func (s *SQLStore) ActiveUsers(ctx context.Context, since time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT user_id FROM journals WHERE created_at >= ? ORDER BY user_id`, since.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("listing active users: %w", err)
	}
	defer rows.Close()

	users := []string{}
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
