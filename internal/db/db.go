package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB holding the Thera journal schema.
type DB struct {
	*sql.DB
	path string
}

// Open creates or opens a SQLite database at the given path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	d := &DB{DB: sqlDB, path: path}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return d, nil
}

// OpenMemory creates an in-memory SQLite database (useful for testing).
// Every pooled connection would get its own empty database, so the pool is
// pinned to one connection.
func OpenMemory() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	d := &DB{DB: sqlDB, path: ":memory:"}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return d, nil
}

// Path returns the file the database was opened from.
func (d *DB) Path() string { return d.path }

func (d *DB) migrate() error {
	_, err := d.Exec(schema)
	return err
}

// Timestamps are stored as unix nanoseconds so range filters compare
// integers. List columns hold JSON arrays.
const schema = `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS journals (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    entry TEXT NOT NULL,
    emotions TEXT NOT NULL DEFAULT '[]',
    distress_score REAL NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_journals_user ON journals(user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS distress_logs (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    detected_emotion TEXT NOT NULL DEFAULT 'unknown',
    level REAL NOT NULL DEFAULT 0,
    journal_ref TEXT NOT NULL REFERENCES journals(id) ON DELETE CASCADE,
    user_threshold REAL NOT NULL DEFAULT 7,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_distress_user ON distress_logs(user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS healing_memories (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    journal_ref TEXT NOT NULL REFERENCES journals(id) ON DELETE CASCADE,
    memory_summary TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_memories_user ON healing_memories(user_id, created_at);

CREATE TABLE IF NOT EXISTS seeds (
    id TEXT PRIMARY KEY,
    emotion_tags TEXT NOT NULL DEFAULT '[]',
    distress_level REAL NOT NULL DEFAULT 0,
    prompt TEXT NOT NULL,
    visual_cue TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL
);
`
