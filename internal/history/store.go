// ============================================================================
// auris - Voice I/O Tool Services for AI Assistants
// ============================================================================
//
// Package:     history
// Description: SQLite-backed utterance history
// License:     MIT
// ============================================================================

package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Kind distinguishes heard from spoken utterances.
type Kind string

const (
	// KindTranscript is text produced from captured audio.
	KindTranscript Kind = "transcript"

	// KindSpeech is text that was synthesized and played.
	KindSpeech Kind = "speech"
)

// Entry is one utterance.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Kind      Kind      `json:"kind"`
	Engine    string    `json:"engine"`
	Text      string    `json:"text"`
	Language  string    `json:"language,omitempty"`
	Voice     string    `json:"voice,omitempty"`
	Duration  float64   `json:"duration,omitempty"`
	Outcome   string    `json:"outcome,omitempty"`
}

// Filter narrows a history query.
type Filter struct {
	Kind   Kind
	Engine string
	Limit  int
}

// Store persists utterances.
type Store interface {
	Record(ctx context.Context, entry *Entry) error
	Query(ctx context.Context, filter Filter) ([]*Entry, error)
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
	Close() error
}

// SQLiteStore implements Store on a local SQLite file in WAL mode.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (and if needed creates) the history database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS utterances (
		id TEXT PRIMARY KEY,
		timestamp DATETIME NOT NULL,
		service TEXT NOT NULL,
		kind TEXT NOT NULL,
		engine TEXT NOT NULL,
		text TEXT NOT NULL,
		language TEXT,
		voice TEXT,
		duration REAL,
		outcome TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_utterances_timestamp ON utterances(timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_utterances_kind ON utterances(kind);
	CREATE INDEX IF NOT EXISTS idx_utterances_engine ON utterances(engine);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record inserts one utterance. A missing ID or timestamp is filled in.
func (s *SQLiteStore) Record(ctx context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO utterances (id, timestamp, service, kind, engine, text, language, voice, duration, outcome)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.Timestamp, entry.Service, entry.Kind, entry.Engine,
		entry.Text, entry.Language, entry.Voice, entry.Duration, entry.Outcome)
	if err != nil {
		return fmt.Errorf("inserting utterance: %w", err)
	}
	return nil
}

// Query returns utterances newest first.
func (s *SQLiteStore) Query(ctx context.Context, filter Filter) ([]*Entry, error) {
	query := `SELECT id, timestamp, service, kind, engine, text, language, voice, duration, outcome
		FROM utterances WHERE 1=1`
	var args []interface{}

	if filter.Kind != "" {
		query += " AND kind = ?"
		args = append(args, filter.Kind)
	}
	if filter.Engine != "" {
		query += " AND engine = ?"
		args = append(args, filter.Engine)
	}

	query += " ORDER BY timestamp DESC"
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying utterances: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		var language, voice, outcome sql.NullString
		var duration sql.NullFloat64
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Service, &e.Kind, &e.Engine,
			&e.Text, &language, &voice, &duration, &outcome); err != nil {
			return nil, fmt.Errorf("scanning utterance: %w", err)
		}
		e.Language = language.String
		e.Voice = voice.String
		e.Duration = duration.Float64
		e.Outcome = outcome.String
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Prune deletes utterances older than the given age.
func (s *SQLiteStore) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	res, err := s.db.ExecContext(ctx, `DELETE FROM utterances WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning utterances: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
