package records

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/checkup-report-server/internal/domain"
)

// FileSource reads records from a local CSV export
type FileSource struct {
	path string
}

// NewFileSource creates a file-backed record source
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name implements domain.RecordSource
func (s *FileSource) Name() string {
	return "file:" + s.path
}

// FetchRecords implements domain.RecordSource
func (s *FileSource) FetchRecords(ctx context.Context) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", s.path, err)
	}
	defer f.Close()

	recs, err := ParseCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	return recs, nil
}

// CSVFetcher downloads a CSV export over the network
type CSVFetcher interface {
	FetchCSV(ctx context.Context) ([]byte, error)
}

// SheetSource reads records from a published spreadsheet CSV export
type SheetSource struct {
	fetcher CSVFetcher
}

// NewSheetSource creates a sheet-backed record source
func NewSheetSource(fetcher CSVFetcher) *SheetSource {
	return &SheetSource{fetcher: fetcher}
}

// Name implements domain.RecordSource
func (s *SheetSource) Name() string {
	return domain.DataSourceSheet
}

// FetchRecords implements domain.RecordSource
func (s *SheetSource) FetchRecords(ctx context.Context) ([]domain.Record, error) {
	body, err := s.fetcher.FetchCSV(ctx)
	if err != nil {
		return nil, err
	}
	recs, err := ParseCSV(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse sheet export: %w", err)
	}
	return recs, nil
}
