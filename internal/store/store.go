// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package store keeps a SQLite history of completed analyses. Each row holds
// the summary columns used for listing plus the full result as JSON.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"legallens/internal/core"
)

// ErrNotFound is returned when no analysis has the requested ID.
var ErrNotFound = errors.New("analysis not found")

// DefaultListLimit bounds List when no limit is given.
const DefaultListLimit = 50

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Record is the listing view of a stored analysis.
type Record struct {
	ID            string    `json:"id"`
	Title         string    `json:"document_title"`
	DocumentType  string    `json:"document_type"`
	Score         int       `json:"fairness_score"`
	Rating        string    `json:"rating"`
	RiskFindings  int       `json:"risk_findings"`
	Source        string    `json:"source,omitempty"`
	ContentLength int       `json:"content_length"`
	CreatedAt     time.Time `json:"created_at"`
}

// ListOptions filters List.
type ListOptions struct {
	Limit        int
	DocumentType string
	Rating       string
}

// Stats aggregates the stored history.
type Stats struct {
	Total        int            `json:"total"`
	AverageScore float64        `json:"average_score"`
	ByRating     map[string]int `json:"by_rating"`
}

// Store is the analysis history backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open creates the parent directory if needed, opens the database in WAL
// mode and runs migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("store: create data dir: %w", err)
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS analyses (
			id             TEXT PRIMARY KEY,
			title          TEXT    NOT NULL,
			document_type  TEXT    NOT NULL,
			score          INTEGER NOT NULL,
			rating         TEXT    NOT NULL,
			risk_findings  INTEGER NOT NULL DEFAULT 0,
			source         TEXT    NOT NULL DEFAULT '',
			content_length INTEGER NOT NULL DEFAULT 0,
			payload        TEXT    NOT NULL,
			created_at     TEXT    NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_analyses_created ON analyses(created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_analyses_type    ON analyses(document_type);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save stores a result, replacing any previous row with the same ID.
func (s *Store) Save(ctx context.Context, r *core.Result) error {
	if r == nil || r.ID == "" {
		return errors.New("store: result without id")
	}
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("store: encode result: %w", err)
	}
	created := r.AnalyzedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO analyses
			(id, title, document_type, score, rating, risk_findings, source, content_length, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Title, string(r.DocumentType), r.FairnessScore, string(r.Rating), r.RiskCount(),
		r.Source, r.ContentLength, string(payload), created.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("store: save %s: %w", r.ID, err)
	}
	return nil
}

// Get returns the full stored result.
func (s *Store) Get(ctx context.Context, id string) (*core.Result, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM analyses WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get %s: %w", id, err)
	}

	var r core.Result
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return nil, fmt.Errorf("store: decode %s: %w", id, err)
	}
	return &r, nil
}

// List returns the most recent analyses first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Record, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `SELECT id, title, document_type, score, rating, risk_findings, source, content_length, created_at
		FROM analyses WHERE 1=1`
	var args []any
	if opts.DocumentType != "" {
		query += ` AND document_type = ?`
		args = append(args, opts.DocumentType)
	}
	if opts.Rating != "" {
		query += ` AND rating = ?`
		args = append(args, opts.Rating)
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var rec Record
		var created string
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.DocumentType, &rec.Score, &rec.Rating,
			&rec.RiskFindings, &rec.Source, &rec.ContentLength, &created); err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Delete removes one analysis.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM analyses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats aggregates score and rating counts.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{ByRating: make(map[string]int)}
	var avg sql.NullFloat64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*), AVG(score) FROM analyses`).Scan(&st.Total, &avg); err != nil {
		return nil, fmt.Errorf("store: stats: %w", err)
	}
	st.AverageScore = avg.Float64

	rows, err := s.db.QueryContext(ctx, `SELECT rating, COUNT(*) FROM analyses GROUP BY rating`)
	if err != nil {
		return nil, fmt.Errorf("store: stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var rating string
		var n int
		if err := rows.Scan(&rating, &n); err != nil {
			return nil, fmt.Errorf("store: stats: %w", err)
		}
		st.ByRating[rating] = n
	}
	return st, rows.Err()
}
