package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/checkup-report-server/internal/domain"
)

// RecordRepository stores imported checkup rows in PostgreSQL
type RecordRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// ImportResult summarizes one import run
type ImportResult struct {
	BatchID    uuid.UUID     `json:"batch_id"`
	Rows       int           `json:"rows"`
	Duration   time.Duration `json:"duration"`
	ImportedAt time.Time     `json:"imported_at"`
}

// NewRecordRepository creates a new record repository
func NewRecordRepository(db *pgxpool.Pool, logger *logrus.Logger) *RecordRepository {
	return &RecordRepository{
		db:  db,
		log: logger,
	}
}

// Name implements domain.RecordSource
func (r *RecordRepository) Name() string {
	return domain.DataSourcePostgres
}

// ReplaceAll swaps the stored record set for recs in one transaction
func (r *RecordRepository) ReplaceAll(ctx context.Context, recs []domain.Record) (*ImportResult, error) {
	start := time.Now()
	batchID := uuid.New()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning import: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM checkup_records`); err != nil {
		return nil, fmt.Errorf("clearing previous records: %w", err)
	}

	query := `
		INSERT INTO checkup_records (
			batch_id, row_number, national_id, hn, full_name, columns
		) VALUES (
			$1, $2, $3, $4, $5, $6::jsonb
		)`

	batch := &pgx.Batch{}
	for i, rec := range recs {
		columns, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("encoding row %d: %w", i+1, err)
		}
		batch.Queue(query,
			batchID,
			i+1,
			strings.TrimSpace(rec.Get(domain.ColumnNationalID)),
			strings.TrimSpace(rec.Get(domain.ColumnHN)),
			strings.TrimSpace(rec.Get(domain.ColumnName)),
			string(columns),
		)
	}

	results := tx.SendBatch(ctx, batch)
	for i := range recs {
		if _, err := results.Exec(); err != nil {
			results.Close()
			r.log.WithFields(logrus.Fields{
				"batch_id": batchID,
				"row":      i + 1,
			}).WithError(err).Error("Failed to import record")
			return nil, fmt.Errorf("importing row %d: %w", i+1, err)
		}
	}
	if err := results.Close(); err != nil {
		return nil, fmt.Errorf("finishing import batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing import: %w", err)
	}

	result := &ImportResult{
		BatchID:    batchID,
		Rows:       len(recs),
		Duration:   time.Since(start),
		ImportedAt: time.Now(),
	}

	r.log.WithFields(logrus.Fields{
		"batch_id":    batchID,
		"rows":        result.Rows,
		"duration_ms": result.Duration.Milliseconds(),
	}).Info("Checkup records imported successfully")

	return result, nil
}

// FetchRecords implements domain.RecordSource
func (r *RecordRepository) FetchRecords(ctx context.Context) ([]domain.Record, error) {
	rows, err := r.db.Query(ctx, `SELECT columns FROM checkup_records ORDER BY row_number`)
	if err != nil {
		return nil, fmt.Errorf("querying checkup records: %w", err)
	}
	defer rows.Close()

	var recs []domain.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating checkup records: %w", err)
	}

	return recs, nil
}

// Find implements domain.RecordFinder directly against the table
func (r *RecordRepository) Find(ctx context.Context, q domain.PatientQuery) (domain.Record, error) {
	if q.IsEmpty() {
		return nil, domain.NewValidationError("query", "at least one of national_id, hn or name is required", "")
	}

	var conds []string
	var args []interface{}
	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("national_id", q.NationalID)
	add("hn", q.HN)
	add("full_name", q.Name)

	query := `SELECT columns FROM checkup_records WHERE ` + strings.Join(conds, " AND ") +
		` ORDER BY row_number LIMIT 1`

	rec, err := scanRecord(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("checkup record not found: %w", domain.ErrNotFound)
		}
		return nil, err
	}
	return rec, nil
}

// Count returns the number of stored rows
func (r *RecordRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM checkup_records`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting checkup records: %w", err)
	}
	return count, nil
}

func scanRecord(row pgx.Row) (domain.Record, error) {
	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning checkup record: %w", err)
	}
	rec := domain.Record{}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decoding checkup record: %w", err)
	}
	return rec, nil
}
