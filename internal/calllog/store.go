// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package calllog persists one row per tool invocation in a local SQLite
// database. The log is optional; nothing in the tool path reads it back.
package calllog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"
)

const (
	defaultListLimit = 50
	timeLayout       = time.RFC3339Nano
)

// Entry is one recorded tool call.
type Entry struct {
	ID         int64     `json:"id" yaml:"id"`
	RequestID  string    `json:"request_id" yaml:"request_id"`
	Tool       string    `json:"tool" yaml:"tool"`
	OK         bool      `json:"ok" yaml:"ok"`
	Code       string    `json:"code,omitempty" yaml:"code,omitempty"`
	Message    string    `json:"message,omitempty" yaml:"message,omitempty"`
	Input      string    `json:"input" yaml:"input"`
	DurationMS int64     `json:"duration_ms" yaml:"duration_ms"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
}

// Filter narrows List results.
type Filter struct {
	// Tool matches tool names containing this substring.
	Tool       string
	FailedOnly bool

	// Limit caps the number of rows (default 50). Newest rows come first.
	Limit int
}

// Store is the call log database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the call log at path, creating parent directories
// and the schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating call log directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s := &Store{db: db}
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
		`CREATE TABLE IF NOT EXISTS calls (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			request_id TEXT NOT NULL,
			tool TEXT NOT NULL,
			ok INTEGER NOT NULL,
			code TEXT,
			message TEXT,
			input TEXT,
			duration_ms INTEGER NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_calls_tool ON calls(tool)`,
		`CREATE INDEX IF NOT EXISTS idx_calls_created_at ON calls(created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record inserts e. A zero CreatedAt is set to now.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO calls (request_id, tool, ok, code, message, input, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RequestID, e.Tool, e.OK, e.Code, e.Message, e.Input, e.DurationMS,
		e.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("recording call %s: %w", e.Tool, err)
	}
	return nil
}

// List returns recorded calls matching f, newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	if f.Tool != "" {
		where = append(where, "tool LIKE ?")
		args = append(args, "%"+f.Tool+"%")
	}
	if f.FailedOnly {
		where = append(where, "ok = 0")
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	q := `SELECT id, request_id, tool, ok, code, message, input, duration_ms, created_at FROM calls`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying calls: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var code, message, input sql.NullString
		var created string
		if err := rows.Scan(&e.ID, &e.RequestID, &e.Tool, &e.OK, &code, &message, &input, &e.DurationMS, &created); err != nil {
			return nil, fmt.Errorf("scanning call: %w", err)
		}
		e.Code = code.String
		e.Message = message.String
		e.Input = input.String
		if t, err := time.Parse(timeLayout, created); err == nil {
			e.CreatedAt = t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ExportYAML writes entries as a YAML list.
func ExportYAML(entries []Entry, w io.Writer) error {
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// ExportJSON writes entries as an indented JSON array.
func ExportJSON(entries []Entry, w io.Writer) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}
