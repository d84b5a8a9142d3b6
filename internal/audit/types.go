// Package audit records which reports were rendered, without patient identity.
// Entries carry the HN, year, abnormal count and advisory text only.
package audit

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/checkup-report-server/internal/domain"
)

// Store defines the interface for report-view audit storage.
type Store interface {
	// RecordView appends one audit entry and assigns its ID.
	RecordView(ctx context.Context, view *domain.ReportView) error

	// List returns entries newest first with pagination.
	List(ctx context.Context, limit, offset int) ([]*domain.ReportView, error)

	// Count returns the total number of entries.
	Count(ctx context.Context) (int64, error)

	// Purge deletes entries viewed before the cutoff and returns how many were removed.
	Purge(ctx context.Context, before time.Time) (int64, error)

	// ExportJSON writes every entry to writer.
	ExportJSON(ctx context.Context, writer io.Writer) error

	// Close closes the store and releases resources.
	Close() error
}

// Export is the JSON export format.
type Export struct {
	Version    string               `json:"version"`
	ExportedAt time.Time            `json:"exported_at"`
	Count      int                  `json:"count"`
	Views      []*domain.ReportView `json:"views"`
}

// maxExportLimit caps a single export.
const maxExportLimit = 1000000

// Open creates the store selected by cfg. Backend "none" returns a nil store.
func Open(cfg domain.AuditConfig) (Store, error) {
	switch cfg.Backend {
	case "", domain.AuditNone:
		return nil, nil
	case domain.AuditSQLite:
		store, err := NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	case domain.AuditPostgres:
		store, err := NewPostgresStoreFromURL(cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown audit backend %q", cfg.Backend)
	}
}

func prepareView(view *domain.ReportView) {
	if view.ViewedAt.IsZero() {
		view.ViewedAt = time.Now()
	}
	view.ViewedAt = view.ViewedAt.UTC()
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
