// Package setup provides the standalone command-line tooling for the checkup report server.
package setup

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/checkup-report-server/internal/audit"
	"github.com/checkup-report-server/internal/config"
	"github.com/checkup-report-server/internal/domain"
	"github.com/checkup-report-server/internal/records"
	"github.com/checkup-report-server/internal/service"
)

// Issue severities
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Issue is one finding of a status or validation check.
type Issue struct {
	Severity string
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Severity, i.Message)
}

// requiredColumns must exist on the sheet for lookups to work.
var requiredColumns = []string{domain.ColumnNationalID, domain.ColumnHN, domain.ColumnName}

// Status represents the current standalone setup.
type Status struct {
	DataDir       string
	DataDirExists bool
	CSVPath       string
	CSVExists     bool
	Rows          int
	AuditBackend  string
	AuditPath     string
	AuditEntries  int64
	Issues        []Issue
}

// GetStatus inspects the data directory, the CSV export and the audit database.
func GetStatus(ctx context.Context, cfg *config.LiteConfig) *Status {
	status := &Status{
		DataDir:      cfg.DataDir,
		CSVPath:      cfg.DataPath(),
		AuditBackend: cfg.AuditBackend,
		AuditEntries: -1,
	}

	if _, err := os.Stat(cfg.DataDir); err == nil {
		status.DataDirExists = true
	} else {
		status.Issues = append(status.Issues, Issue{SeverityWarning,
			fmt.Sprintf("Data directory will be created on first run: %s", cfg.DataDir)})
	}

	if _, err := os.Stat(status.CSVPath); err == nil {
		status.CSVExists = true
		recs, err := records.NewFileSource(status.CSVPath).FetchRecords(ctx)
		if err != nil {
			status.Issues = append(status.Issues, Issue{SeverityError, err.Error()})
		} else {
			status.Rows = len(recs)
		}
	} else {
		status.Issues = append(status.Issues, Issue{SeverityError,
			fmt.Sprintf("Checkup CSV not found: %s", status.CSVPath)})
	}

	if cfg.AuditBackend == domain.AuditSQLite {
		status.AuditPath = cfg.AuditDBPath()
		if _, err := os.Stat(status.AuditPath); err == nil {
			store, err := audit.NewSQLiteStore(status.AuditPath)
			if err != nil {
				status.Issues = append(status.Issues, Issue{SeverityError, err.Error()})
			} else {
				defer store.Close()
				if n, err := store.Count(ctx); err == nil {
					status.AuditEntries = n
				}
			}
		}
	}

	return status
}

// Validate checks the report settings and the CSV export. It reports false only when an
// error-severity issue was found.
func Validate(ctx context.Context, cfg *config.LiteConfig) (bool, []Issue) {
	var issues []Issue

	reportCfg := cfg.ReportConfig()
	if reportCfg.CurrentYear > 99 || reportCfg.FirstYear > reportCfg.CurrentYear {
		issues = append(issues, Issue{SeverityError,
			fmt.Sprintf("Year window %d-%d must use two-digit codes, oldest first", reportCfg.FirstYear, reportCfg.CurrentYear)})
	}
	if _, err := service.NewPanelInterpreter(service.DefaultAnalyteTable(), reportCfg, quietLogger()); err != nil {
		issues = append(issues, Issue{SeverityError, err.Error()})
	}
	switch cfg.AuditBackend {
	case domain.AuditNone, domain.AuditSQLite:
	default:
		issues = append(issues, Issue{SeverityError,
			fmt.Sprintf("Audit backend %q is not available standalone (use sqlite or none)", cfg.AuditBackend)})
	}

	recs, err := records.NewFileSource(cfg.DataPath()).FetchRecords(ctx)
	if err != nil {
		issues = append(issues, Issue{SeverityError, err.Error()})
		return !hasErrors(issues), issues
	}
	if len(recs) == 0 {
		issues = append(issues, Issue{SeverityError, domain.ErrEmptyDataSource.Error()})
		return false, issues
	}

	for _, col := range requiredColumns {
		if !hasColumn(recs, col) {
			issues = append(issues, Issue{SeverityError, fmt.Sprintf("Missing column %q", col)})
		}
	}
	issues = append(issues, yearCoverage(recs, reportCfg)...)

	return !hasErrors(issues), issues
}

// yearCoverage warns about selectable years whose lab columns are all absent.
func yearCoverage(recs []domain.Record, cfg domain.ReportConfig) []Issue {
	var issues []Issue
	table := service.DefaultAnalyteTable()
	for _, year := range cfg.Years() {
		found := 0
		for _, a := range table {
			col, ok := a.Column.Resolve(year, cfg.CurrentYear)
			if ok && hasColumn(recs, col) {
				found++
			}
		}
		if found == 0 {
			issues = append(issues, Issue{SeverityWarning,
				fmt.Sprintf("No lab columns for %s; reports for that year will show dashes", domain.YearLabel(year))})
		}
	}
	return issues
}

func hasColumn(recs []domain.Record, col string) bool {
	for _, rec := range recs {
		if _, ok := rec.Lookup(col); ok {
			return true
		}
	}
	return false
}

func hasErrors(issues []Issue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}
