package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/matchchat-server/internal/utils"
)

// Schema is applied on every open; statements are idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS conversations (
	id         TEXT PRIMARY KEY,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	seq             INTEGER PRIMARY KEY AUTOINCREMENT,
	conversation_id TEXT    NOT NULL,
	sender          TEXT    NOT NULL,
	receiver        TEXT    NOT NULL,
	content         TEXT    NOT NULL,
	ts_nano         INTEGER NOT NULL,
	FOREIGN KEY (conversation_id) REFERENCES conversations(id),
	UNIQUE (conversation_id, sender, receiver, content, ts_nano)
);

CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, seq);

CREATE TABLE IF NOT EXISTS profiles (
	id         TEXT PRIMARY KEY,
	phone      TEXT UNIQUE,
	first_name TEXT NOT NULL DEFAULT '',
	last_name  TEXT NOT NULL DEFAULT '',
	age        INTEGER NOT NULL DEFAULT 0,
	occupation TEXT NOT NULL DEFAULT '',
	photo_url  TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS profile_entries (
	seq             INTEGER PRIMARY KEY AUTOINCREMENT,
	profile_id      TEXT NOT NULL,
	kind            TEXT NOT NULL,
	match_id        TEXT NOT NULL,
	first_name      TEXT NOT NULL DEFAULT '',
	last_name       TEXT NOT NULL DEFAULT '',
	photo_url       TEXT NOT NULL DEFAULT '',
	conversation_id TEXT,
	FOREIGN KEY (profile_id) REFERENCES profiles(id),
	UNIQUE (profile_id, kind, match_id)
);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db    *sql.DB
	locks *utils.KeyedMutex
	now   func() time.Time
}

// Option customizes a SQLiteStore.
type Option func(*SQLiteStore)

// WithClock overrides the time source used for server-assigned timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *SQLiteStore) {
		s.now = now
	}
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string, opts ...Option) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		_, err := db.Exec(Schema)
		return err
	}, opts...)
}

// NewWithSetup creates a new SQLite store and runs a setup function instead of the default schema.
func NewWithSetup(dbPath string, setup func(*sql.DB) error, opts ...Option) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// A single connection keeps :memory: databases alive and serializes writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &SQLiteStore{
		db:    db,
		locks: utils.NewKeyedMutex(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func rollback(tx *sql.Tx) {
	_ = tx.Rollback() //nolint:errcheck // no-op after commit
}
