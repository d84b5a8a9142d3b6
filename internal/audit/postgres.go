package audit

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	_ "github.com/lib/pq"

	"github.com/checkup-report-server/internal/domain"
)

// PostgresStore implements the Store interface using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL audit store.
// It expects the report_views table to already exist (created via migrations).
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromURL creates a new PostgreSQL audit store from a connection URL.
func NewPostgresStoreFromURL(databaseURL string) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("postgres URL is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	store, err := NewPostgresStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// RecordView appends one audit entry.
func (s *PostgresStore) RecordView(ctx context.Context, view *domain.ReportView) error {
	prepareView(view)

	query := `
		INSERT INTO report_views (
			hn, year, abnormal_count, advisory, request_id, source, viewed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := s.db.QueryRowContext(ctx, query,
		view.HN,
		view.Year,
		view.AbnormalCount,
		view.Advisory,
		view.RequestID,
		view.Source,
		view.ViewedAt,
	).Scan(&view.ID)
	if err != nil {
		return fmt.Errorf("failed to record report view: %w", err)
	}

	return nil
}

// List returns entries newest first with pagination.
func (s *PostgresStore) List(ctx context.Context, limit, offset int) ([]*domain.ReportView, error) {
	limit, offset = normalizePage(limit, offset)

	query := `
		SELECT id, hn, year, abnormal_count, advisory, request_id, source, viewed_at
		FROM report_views
		ORDER BY viewed_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list report views: %w", err)
	}
	defer rows.Close()

	var result []*domain.ReportView
	for rows.Next() {
		view := &domain.ReportView{}
		err := rows.Scan(
			&view.ID, &view.HN, &view.Year, &view.AbnormalCount,
			&view.Advisory, &view.RequestID, &view.Source, &view.ViewedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, view)
	}

	return result, rows.Err()
}

// Count returns the total number of entries.
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM report_views").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count report views: %w", err)
	}
	return count, nil
}

// Purge deletes entries viewed before the cutoff.
func (s *PostgresStore) Purge(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM report_views WHERE viewed_at < $1", before)
	if err != nil {
		return 0, fmt.Errorf("failed to purge report views: %w", err)
	}
	return result.RowsAffected()
}

// ExportJSON exports all entries to a JSON writer.
func (s *PostgresStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	return exportJSON(ctx, s, writer)
}

// Close closes the store and releases resources.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
