// Package history persists completed assessments to a local SQLite store so
// past runs can be reviewed and exported.
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
	_ "modernc.org/sqlite"

	"github.com/tumorboard/tumorboard/internal/domain"
)

// Entry is one stored assessment together with its storage metadata.
type Entry struct {
	ID         string                          `json:"id"`
	Gene       string                          `json:"gene"`
	Variant    string                          `json:"variant"`
	TumorType  string                          `json:"tumor_type"`
	Tier       domain.ActionabilityTier        `json:"tier"`
	Confidence float64                         `json:"confidence"`
	Assessment *domain.ActionabilityAssessment `json:"assessment"`
	CreatedAt  time.Time                       `json:"created_at"`
}

// Export is the JSON envelope produced by ExportJSON.
type Export struct {
	Version    string    `json:"version"`
	ExportedAt time.Time `json:"exported_at"`
	Count      int       `json:"count"`
	Entries    []*Entry  `json:"entries"`
}

// SQLiteStore records assessment history in a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens (or creates) the history database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL mode for better concurrency during batch runs
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS assessments (
		id TEXT PRIMARY KEY,
		gene TEXT NOT NULL,
		variant TEXT NOT NULL,
		tumor_type TEXT DEFAULT '',
		tier TEXT NOT NULL,
		confidence REAL NOT NULL,
		payload TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_assessments_gene_variant ON assessments(gene, variant);
	CREATE INDEX IF NOT EXISTS idx_assessments_tier ON assessments(tier);
	CREATE INDEX IF NOT EXISTS idx_assessments_created_at ON assessments(created_at);
	`

	_, err := db.Exec(schema)
	return err
}

// Record stores one completed assessment. Every call appends a new entry;
// repeat assessments of the same variant are distinct history rows.
func (s *SQLiteStore) Record(ctx context.Context, assessment *domain.ActionabilityAssessment) error {
	payload, err := json.Marshal(assessment)
	if err != nil {
		return fmt.Errorf("failed to encode assessment: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO assessments (id, gene, variant, tumor_type, tier, confidence, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		uuid.New().String(),
		assessment.Gene,
		assessment.Variant,
		assessment.TumorType,
		string(assessment.Tier),
		assessment.ConfidenceScore,
		string(payload),
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert assessment: %w", err)
	}
	return nil
}

// scanner is an interface for sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(s scanner) (*Entry, error) {
	entry := &Entry{}
	var tier, payload string

	err := s.Scan(
		&entry.ID, &entry.Gene, &entry.Variant, &entry.TumorType,
		&tier, &entry.Confidence, &payload, &entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Tier = domain.ActionabilityTier(tier)
	if err := json.Unmarshal([]byte(payload), &entry.Assessment); err != nil {
		return nil, fmt.Errorf("failed to decode stored assessment: %w", err)
	}
	return entry, nil
}

// List returns history entries newest first, with pagination.
func (s *SQLiteStore) List(ctx context.Context, limit, offset int) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, gene, variant, tumor_type, tier, confidence, payload, created_at
		FROM assessments
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// ListByVariant returns all history entries for one gene+variant pair,
// newest first.
func (s *SQLiteStore) ListByVariant(ctx context.Context, gene, variant string) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, gene, variant, tumor_type, tier, confidence, payload, created_at
		FROM assessments
		WHERE gene = ? AND variant = ?
		ORDER BY created_at DESC
	`, gene, variant)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Count returns the total number of stored assessments.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM assessments").Scan(&count)
	return count, err
}

// maxExportLimit bounds a single export.
const maxExportLimit = 1000000

// ExportJSON writes the whole history as an indented JSON envelope.
func (s *SQLiteStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	all, err := s.List(ctx, maxExportLimit, 0)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	export := &Export{
		Version:    "1.0",
		ExportedAt: time.Now(),
		Count:      len(all),
		Entries:    all,
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}

// Close closes the store and releases resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
