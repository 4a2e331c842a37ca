// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists one row per document conversion in a local
// SQLite database and exports it as YAML or JSON.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdf2md/pkg/types"
)

const defaultListLimit = 50

// timeLayout is fixed-width so converted_at sorts correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Entry is one recorded conversion.
type Entry struct {
	ID string `json:"id" yaml:"id"`
	types.Document `yaml:",inline"`
}

// Store manages the history SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at path and creates the
// schema if it does not exist.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
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
		`CREATE TABLE IF NOT EXISTS conversions (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			sha256 TEXT,
			bytes INTEGER NOT NULL DEFAULT 0,
			engine TEXT,
			status TEXT NOT NULL,
			error TEXT,
			converted_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_sha256 ON conversions(sha256)`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_converted_at ON conversions(converted_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores doc under a fresh id. A zero ConvertedAt is stamped with
// the current time.
func (s *Store) Record(ctx context.Context, doc types.Document) error {
	if doc.ConvertedAt.IsZero() {
		doc.ConvertedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversions (id, source, sha256, bytes, engine, status, error, converted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), doc.Source, doc.SHA256, doc.Bytes, doc.Engine,
		string(doc.Status), doc.Error, doc.ConvertedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("recording conversion of %s: %w", doc.Source, err)
	}
	return nil
}

// List returns the most recent entries, newest first. limit <= 0 selects
// the default of 50.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, sha256, bytes, engine, status, error, converted_at
		 FROM conversions ORDER BY converted_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                   Entry
			sha, engine, msg    sql.NullString
			status, convertedAt string
		)
		if err := rows.Scan(&e.ID, &e.Source, &sha, &e.Bytes, &engine, &status, &msg, &convertedAt); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		e.SHA256 = sha.String
		e.Engine = engine.String
		e.Error = msg.String
		e.Status = types.ConversionStatus(status)
		e.ConvertedAt, err = time.Parse(timeLayout, convertedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing converted_at %q: %w", convertedAt, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LastBySHA256 returns the newest successful conversion of the document with
// the given digest, or nil when there is none.
func (s *Store) LastBySHA256(ctx context.Context, sum string) (*Entry, error) {
	var (
		e           Entry
		engine      sql.NullString
		convertedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, source, bytes, engine, converted_at FROM conversions
		 WHERE sha256 = ? AND status = ? ORDER BY converted_at DESC LIMIT 1`,
		sum, string(types.ConversionDone),
	).Scan(&e.ID, &e.Source, &e.Bytes, &engine, &convertedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up %s: %w", sum, err)
	}
	e.SHA256 = sum
	e.Engine = engine.String
	e.Status = types.ConversionDone
	e.ConvertedAt, _ = time.Parse(timeLayout, convertedAt)
	return &e, nil
}

// ExportYAML writes up to limit recent entries to w as a YAML list.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer, limit int) error {
	entries, err := s.List(ctx, limit)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// ExportJSON writes up to limit recent entries to w as an indented JSON
// array.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer, limit int) error {
	entries, err := s.List(ctx, limit)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []Entry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}
