// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog indexes the pipeline's outputs (deduplicated records
// and their downloaded artifacts) into a SQLite database, and renders a
// human-readable listing. It only reads what earlier stages wrote.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/lit-pipeline/internal/identity"
	"github.com/pdiddy/lit-pipeline/pkg/types"
)

// Entry is one cataloged work.
type Entry struct {
	ID           string
	Title        string
	DOI          string
	Source       string
	URL          string
	ArtifactPath string
}

// Store manages the catalog SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the catalog database at dbPath, creating the
// schema and parent directories as needed.
func NewStore(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating catalog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening catalog database: %w", err)
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
		`CREATE TABLE IF NOT EXISTS works (
			id TEXT PRIMARY KEY,
			title TEXT,
			doi TEXT,
			source TEXT,
			url TEXT,
			artifact_path TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_works_source ON works(source)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// IngestSummary holds counts from a catalog indexing run.
type IngestSummary struct {
	Indexed       int
	WithArtifacts int
}

// Ingest upserts every record, joining each against its artifact under
// artifactsDir when the file exists. Re-running over the same input is
// idempotent: the artifact ID is the primary key.
func (s *Store) Ingest(ctx context.Context, records []types.Record, artifactsDir string) (IngestSummary, error) {
	var summary IngestSummary
	for _, rec := range records {
		entry := Entry{
			ID:     identity.ArtifactID(rec),
			Title:  rec.Title(),
			DOI:    rec.DOI(),
			Source: rec.Source(),
			URL:    rec.PDFURL(),
		}
		if artifactsDir != "" {
			path := identity.ArtifactPath(artifactsDir, rec)
			if _, err := os.Stat(path); err == nil {
				entry.ArtifactPath = path
				summary.WithArtifacts++
			}
		}

		_, err := s.db.ExecContext(ctx,
			`INSERT INTO works (id, title, doi, source, url, artifact_path)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
				title = excluded.title,
				doi = excluded.doi,
				source = excluded.source,
				url = excluded.url,
				artifact_path = excluded.artifact_path`,
			entry.ID, entry.Title, entry.DOI, entry.Source, entry.URL, entry.ArtifactPath)
		if err != nil {
			return summary, fmt.Errorf("upserting %s: %w", entry.ID, err)
		}
		summary.Indexed++
	}
	return summary, nil
}

// List returns all entries ordered by source then title.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, doi, source, url, artifact_path FROM works ORDER BY source, title`)
	if err != nil {
		return nil, fmt.Errorf("querying works: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Title, &e.DOI, &e.Source, &e.URL, &e.ArtifactPath); err != nil {
			return nil, fmt.Errorf("scanning work: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountBySource returns per-source entry counts.
func (s *Store) CountBySource(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source, count(*) FROM works GROUP BY source`)
	if err != nil {
		return nil, fmt.Errorf("counting works: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var source string
		var n int
		if err := rows.Scan(&source, &n); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		counts[source] = n
	}
	return counts, rows.Err()
}
