package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/checkup-report-server/internal/domain"
)

// ParseQuery trims the search filters and requires at least one of them.
func ParseQuery(nationalID, hn, name string) (domain.PatientQuery, error) {
	q := domain.PatientQuery{
		NationalID: strings.TrimSpace(nationalID),
		HN:         strings.TrimSpace(hn),
		Name:       strings.TrimSpace(name),
	}
	if q.IsEmpty() {
		return q, fmt.Errorf("parsing query: %w",
			domain.NewValidationError("query", "at least one of national_id, hn or name is required", ""))
	}
	return q, nil
}

// ParseYear accepts a two-digit year code ("68") or a full Buddhist-era year ("2568").
// An empty value selects the current year.
func ParseYear(raw string, cfg domain.ReportConfig) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return cfg.CurrentYear, nil
	}
	raw = strings.TrimPrefix(raw, "พ.ศ.")
	raw = strings.TrimSpace(raw)

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parsing year: %w",
			domain.NewValidationError("year", "year must be numeric", raw))
	}
	if n >= 2500 && n < 2600 {
		n -= 2500
	}
	if !cfg.HasYear(n) {
		return 0, fmt.Errorf("%w: %s (available %02d-%02d)", domain.ErrInvalidYear, raw, cfg.FirstYear, cfg.CurrentYear)
	}
	return n, nil
}
