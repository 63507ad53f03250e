// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive persists completed research sessions in a SQLite
// database with full-text search over queries and answers.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/answer-engine/pkg/types"
)

const dbFile = "answer-engine.db"

// Store manages the session archive SQLite database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates the archive database at
// archiveDir/answer-engine.db and creates the schema if needed.
func NewStore(cfg types.ArchiveConfig) (*Store, error) {
	dir := cfg.ArchiveDir
	if dir == "" {
		dir = "archive"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			query TEXT NOT NULL,
			answer TEXT NOT NULL,
			created_at TEXT NOT NULL,
			degraded INTEGER NOT NULL DEFAULT 0,
			fail_reason TEXT,
			source_count INTEGER NOT NULL DEFAULT 0,
			sources TEXT,
			bibliography TEXT,
			warnings TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions(created_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='sessions_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE sessions_fts USING fts5(query, answer, content=sessions, content_rowid=rowid)`,
			`CREATE TRIGGER sessions_ai AFTER INSERT ON sessions BEGIN
				INSERT INTO sessions_fts(rowid, query, answer) VALUES (new.rowid, new.query, new.answer);
			END`,
			`CREATE TRIGGER sessions_ad AFTER DELETE ON sessions BEGIN
				INSERT INTO sessions_fts(sessions_fts, rowid, query, answer) VALUES('delete', old.rowid, old.query, old.answer);
			END`,
			`CREATE TRIGGER sessions_au AFTER UPDATE ON sessions BEGIN
				INSERT INTO sessions_fts(sessions_fts, rowid, query, answer) VALUES('delete', old.rowid, old.query, old.answer);
				INSERT INTO sessions_fts(rowid, query, answer) VALUES (new.rowid, new.query, new.answer);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// Save inserts a completed session, replacing any existing row with the
// same session ID.
func (s *Store) Save(ctx context.Context, resp *types.ResearchResponse) error {
	sourcesJSON, err := json.Marshal(resp.Sources)
	if err != nil {
		return fmt.Errorf("encoding sources: %w", err)
	}
	warningsJSON, err := json.Marshal(resp.Warnings)
	if err != nil {
		return fmt.Errorf("encoding warnings: %w", err)
	}

	degraded := 0
	if resp.Degraded {
		degraded = 1
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, query, answer, created_at, degraded, fail_reason, source_count, sources, bibliography, warnings)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			query=excluded.query, answer=excluded.answer, created_at=excluded.created_at,
			degraded=excluded.degraded, fail_reason=excluded.fail_reason,
			source_count=excluded.source_count, sources=excluded.sources,
			bibliography=excluded.bibliography, warnings=excluded.warnings`,
		resp.SessionID, resp.Query, resp.Answer,
		time.Now().UTC().Format(time.RFC3339Nano), degraded, resp.FailReason,
		len(resp.Sources), string(sourcesJSON), resp.Bibliography, string(warningsJSON),
	)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

// SessionSummary is one row of a session listing.
type SessionSummary struct {
	ID          string    `json:"id" yaml:"id"`
	Query       string    `json:"query" yaml:"query"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	Degraded    bool      `json:"degraded" yaml:"degraded"`
	FailReason  string    `json:"fail_reason,omitempty" yaml:"fail_reason,omitempty"`
	SourceCount int       `json:"source_count" yaml:"source_count"`
}

// List returns session summaries, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]SessionSummary, error) {
	if limit <= 0 {
		limit = s.maxResults
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query, created_at, degraded, fail_reason, source_count
		 FROM sessions ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	return scanSummaries(rows)
}

// Show returns the full stored response for one session ID.
func (s *Store) Show(ctx context.Context, id string) (*types.ResearchResponse, error) {
	var (
		resp         types.ResearchResponse
		degraded     int
		failReason   sql.NullString
		sourcesJSON  sql.NullString
		bibliography sql.NullString
		warningsJSON sql.NullString
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT id, query, answer, degraded, fail_reason, sources, bibliography, warnings
		 FROM sessions WHERE id = ?`, id,
	).Scan(&resp.SessionID, &resp.Query, &resp.Answer, &degraded,
		&failReason, &sourcesJSON, &bibliography, &warningsJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("session %s not found", id)
		}
		return nil, fmt.Errorf("looking up session: %w", err)
	}

	resp.Degraded = degraded != 0
	if failReason.Valid {
		resp.FailReason = failReason.String
	}
	if sourcesJSON.Valid {
		if err := json.Unmarshal([]byte(sourcesJSON.String), &resp.Sources); err != nil {
			return nil, fmt.Errorf("decoding stored sources for session %s: %w", id, err)
		}
	}
	if bibliography.Valid {
		resp.Bibliography = bibliography.String
	}
	if warningsJSON.Valid {
		if err := json.Unmarshal([]byte(warningsJSON.String), &resp.Warnings); err != nil {
			return nil, fmt.Errorf("decoding stored warnings for session %s: %w", id, err)
		}
	}

	return &resp, nil
}

// Search runs an FTS5 full-text query over stored queries and answers,
// ranked by relevance.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]SessionSummary, error) {
	if limit <= 0 {
		limit = s.maxResults
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT sess.id, sess.query, sess.created_at, sess.degraded, sess.fail_reason, sess.source_count
		 FROM sessions_fts
		 JOIN sessions sess ON sess.rowid = sessions_fts.rowid
		 WHERE sessions_fts MATCH ?
		 ORDER BY sessions_fts.rank LIMIT ?`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching sessions: %w", err)
	}
	defer rows.Close()

	return scanSummaries(rows)
}

func scanSummaries(rows *sql.Rows) ([]SessionSummary, error) {
	var out []SessionSummary
	for rows.Next() {
		var (
			sum        SessionSummary
			createdAt  string
			degraded   int
			failReason sql.NullString
		)
		if err := rows.Scan(&sum.ID, &sum.Query, &createdAt, &degraded, &failReason, &sum.SourceCount); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		sum.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		sum.Degraded = degraded != 0
		if failReason.Valid {
			sum.FailReason = failReason.String
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}
