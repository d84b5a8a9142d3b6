package records

import (
	"context"
	"fmt"
	"time"

	"github.com/checkup-report-server/internal/domain"
)

// Snapshot is an immutable copy of the whole record set taken at one point in time
type Snapshot struct {
	records   []domain.Record
	source    string
	fetchedAt time.Time
}

// NewSnapshot wraps a fetched record set
func NewSnapshot(recs []domain.Record, source string, fetchedAt time.Time) *Snapshot {
	return &Snapshot{
		records:   recs,
		source:    source,
		fetchedAt: fetchedAt,
	}
}

// Len returns the number of rows
func (s *Snapshot) Len() int {
	return len(s.records)
}

// Source names the data source the snapshot came from
func (s *Snapshot) Source() string {
	return s.source
}

// FetchedAt returns when the snapshot was taken
func (s *Snapshot) FetchedAt() time.Time {
	return s.fetchedAt
}

// Records returns the rows of the snapshot. Callers must not modify them.
func (s *Snapshot) Records() []domain.Record {
	return s.records
}

// Find returns the first row matching every provided filter of q.
func (s *Snapshot) Find(_ context.Context, q domain.PatientQuery) (domain.Record, error) {
	if q.IsEmpty() {
		return nil, domain.NewValidationError("query", "at least one of national_id, hn or name is required", "")
	}
	for _, rec := range s.records {
		if q.Matches(rec) {
			return rec, nil
		}
	}
	return nil, fmt.Errorf("searching %d records: %w", len(s.records), domain.ErrNotFound)
}
