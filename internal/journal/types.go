// Package journal stores journal entries and the records derived from
// them: distress logs, healing memories, ritual seeds and wound seeds.
package journal

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when an entry does not exist or belongs to
// another user.
var ErrNotFound = errors.New("journal entry not found")

// ErrInvalidInput is returned when a required field is empty.
var ErrInvalidInput = errors.New("user id and text are required")

// Entry is one journal entry written by a user.
type Entry struct {
	ID            string    `json:"id" bson:"_id"`
	UserID        string    `json:"user_id" bson:"user_id"`
	Text          string    `json:"entry" bson:"entry"`
	Emotions      []string  `json:"emotions" bson:"emotions"`
	DistressScore float64   `json:"distress_score" bson:"distress_score"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
}

// DistressLog records the detected emotion and distress level of an entry.
type DistressLog struct {
	ID              string    `json:"id" bson:"_id"`
	UserID          string    `json:"user_id" bson:"user_id"`
	DetectedEmotion string    `json:"detected_emotion" bson:"detected_emotion"`
	Level           float64   `json:"level" bson:"level"`
	JournalRef      string    `json:"journal_ref" bson:"journal_ref"`
	UserThreshold   float64   `json:"user_threshold" bson:"user_threshold"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
}

// HealingMemory is a short summary of an entry, scanned for recurring
// emotions.
type HealingMemory struct {
	ID            string    `json:"id" bson:"_id"`
	UserID        string    `json:"user_id" bson:"user_id"`
	JournalRef    string    `json:"journal_ref" bson:"journal_ref"`
	MemorySummary string    `json:"memory_summary" bson:"memory_summary"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
}

// Seed is a coping ritual suggested to users in high distress.
type Seed struct {
	ID            string    `json:"id" yaml:"id,omitempty" bson:"_id"`
	EmotionTags   []string  `json:"emotion_tags" yaml:"emotion_tags" bson:"emotion_tags"`
	DistressLevel float64   `json:"distress_level" yaml:"distress_level" bson:"distress_level"`
	Prompt        string    `json:"prompt" yaml:"prompt" bson:"prompt"`
	VisualCue     string    `json:"visual_cue,omitempty" yaml:"visual_cue,omitempty" bson:"visual_cue"`
	CreatedAt     time.Time `json:"created_at" yaml:"-" bson:"created_at"`
}

// EmotionFilter narrows an emotion log query. Zero times are unbounded and
// an empty Emotion matches everything.
type EmotionFilter struct {
	From    time.Time
	To      time.Time
	Emotion string
}

// WoundSeed is an emotion that recurs across a user's healing memories.
type WoundSeed struct {
	Emotion     string `json:"emotion"`
	Occurrences int    `json:"occurrences"`
	FirstSeen   string `json:"first_seen"`
	LastSeen    string `json:"last_seen"`
}

// JournalMetadata is attached to every document in the journal index.
type JournalMetadata struct {
	JournalID     string
	OwnerID       string
	Emotions      []string
	DistressScore float64
	CreatedAt     time.Time
}

// SeedMetadata is attached to every document in the seed index.
type SeedMetadata struct {
	SeedID        string
	EmotionTags   []string
	DistressLevel float64
	Prompt        string
	VisualCue     string
}

// SeedStore persists ritual seeds.
type SeedStore interface {
	ListAllSeeds(ctx context.Context) ([]Seed, error)
	CreateSeed(ctx context.Context, seed *Seed) error
}

// Store persists journal entries and their derived records. Create
// methods fill in an empty ID and a zero CreatedAt.
type Store interface {
	SeedStore

	CreateEntry(ctx context.Context, e *Entry) error
	CreateDistressLog(ctx context.Context, l *DistressLog) error
	// CreateEntryRecords stores an entry, its distress log and its healing
	// memory together: either all three persist or none do. The log and
	// memory JournalRef are set to the entry's ID.
	CreateEntryRecords(ctx context.Context, e *Entry, l *DistressLog, m *HealingMemory) error

	// ListJournals returns the user's entries, newest first.
	ListJournals(ctx context.Context, userID string) ([]Entry, error)
	// GetJournal returns ErrNotFound for a missing id or another owner.
	GetJournal(ctx context.Context, userID, id string) (*Entry, error)
	// AllJournals returns every entry, oldest first.
	AllJournals(ctx context.Context) ([]Entry, error)

	// EmotionLogs returns the user's distress logs, newest first.
	EmotionLogs(ctx context.Context, userID string, f EmotionFilter) ([]DistressLog, error)
	// HealingMemories returns the user's memories, oldest first.
	HealingMemories(ctx context.Context, userID string) ([]HealingMemory, error)
	// ActiveUsers returns users with an entry created at or after since.
	ActiveUsers(ctx context.Context, since time.Time) ([]string, error)

	Ping(ctx context.Context) error
}
