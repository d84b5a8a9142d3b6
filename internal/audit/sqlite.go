package audit

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/checkup-report-server/internal/domain"
)

// fixed width keeps lexicographic order equal to time order
const sqliteTimeFormat = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite audit store.
// It creates the database file and schema if they don't exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

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

// Path returns the database file location.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSQLiteView(s scanner) (*domain.ReportView, error) {
	view := &domain.ReportView{}
	var viewedAt string

	err := s.Scan(
		&view.ID, &view.HN, &view.Year, &view.AbnormalCount,
		&view.Advisory, &view.RequestID, &view.Source, &viewedAt,
	)
	if err != nil {
		return nil, err
	}

	view.ViewedAt, err = time.Parse(sqliteTimeFormat, viewedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse viewed_at: %w", err)
	}
	return view, nil
}

// createSchema creates the database tables and indexes.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS report_views (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		hn TEXT NOT NULL DEFAULT '',
		year INTEGER NOT NULL,
		abnormal_count INTEGER NOT NULL DEFAULT 0,
		advisory TEXT NOT NULL DEFAULT '',
		request_id TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT '',
		viewed_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_report_views_viewed_at ON report_views(viewed_at);
	CREATE INDEX IF NOT EXISTS idx_report_views_hn ON report_views(hn);
	`

	_, err := db.Exec(schema)
	return err
}

// RecordView appends one audit entry.
func (s *SQLiteStore) RecordView(ctx context.Context, view *domain.ReportView) error {
	prepareView(view)

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO report_views (
			hn, year, abnormal_count, advisory, request_id, source, viewed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		view.HN,
		view.Year,
		view.AbnormalCount,
		view.Advisory,
		view.RequestID,
		view.Source,
		view.ViewedAt.Format(sqliteTimeFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to insert: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get insert ID: %w", err)
	}
	view.ID = id

	return nil
}

// List returns entries newest first with pagination.
func (s *SQLiteStore) List(ctx context.Context, limit, offset int) ([]*domain.ReportView, error) {
	limit, offset = normalizePage(limit, offset)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, hn, year, abnormal_count, advisory, request_id, source, viewed_at
		FROM report_views
		ORDER BY viewed_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	var result []*domain.ReportView
	for rows.Next() {
		view, err := scanSQLiteView(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, view)
	}
	return result, rows.Err()
}

// Count returns the total number of entries.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM report_views").Scan(&count)
	return count, err
}

// Purge deletes entries viewed before the cutoff.
func (s *SQLiteStore) Purge(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM report_views WHERE viewed_at < ?",
		before.UTC().Format(sqliteTimeFormat),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to purge: %w", err)
	}
	return result.RowsAffected()
}

// ExportJSON exports all entries to a JSON writer.
func (s *SQLiteStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	return exportJSON(ctx, s, writer)
}

// Close closes the store and releases resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
