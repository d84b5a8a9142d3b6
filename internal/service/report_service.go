package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/checkup-report-server/internal/domain"
)

// ReportRequest is one request-scoped report lookup. Nothing about the patient outlives it.
type ReportRequest struct {
	Query     domain.PatientQuery
	Year      int
	RequestID string
	Source    string
}

// ReportService runs the fetch, interpret, compose and audit pipeline for one report.
type ReportService struct {
	logger    *logrus.Logger
	finder    domain.RecordFinder
	assembler *ReportAssembler
	recorder  domain.ViewRecorder
	cfg       domain.ReportConfig
}

// NewReportService creates a new report service. recorder may be nil to disable auditing.
func NewReportService(finder domain.RecordFinder, assembler *ReportAssembler, recorder domain.ViewRecorder, cfg domain.ReportConfig, logger *logrus.Logger) *ReportService {
	return &ReportService{
		logger:    logger,
		finder:    finder,
		assembler: assembler,
		recorder:  recorder,
		cfg:       cfg,
	}
}

// NewDefaultReportService wires the built-in analyte table, advisory rules and assembler.
func NewDefaultReportService(finder domain.RecordFinder, recorder domain.ViewRecorder, cfg domain.ReportConfig, logger *logrus.Logger) (*ReportService, error) {
	interpreter, err := NewPanelInterpreter(DefaultAnalyteTable(), cfg, logger)
	if err != nil {
		return nil, err
	}
	assembler := NewReportAssembler(interpreter, NewAdvisoryEngine(logger), cfg, logger)
	return NewReportService(finder, assembler, recorder, cfg, logger), nil
}

// Years lists the selectable checkup years, newest first.
func (s *ReportService) Years() []int {
	return s.cfg.Years()
}

// ReportConfig returns the report settings.
func (s *ReportService) ReportConfig() domain.ReportConfig {
	return s.cfg
}

// Render finds the record matching req.Query and assembles its report for req.Year.
func (s *ReportService) Render(ctx context.Context, req ReportRequest) (*domain.Report, error) {
	if req.Query.IsEmpty() {
		return nil, fmt.Errorf("rendering report: %w",
			domain.NewValidationError("query", "at least one of national_id, hn or name is required", ""))
	}
	startTime := time.Now()
	year := req.Year
	if year == 0 {
		year = s.cfg.CurrentYear
	}
	s.logger.WithFields(logrus.Fields{
		"request_id": req.RequestID,
		"year":       year,
		"source":     req.Source,
	}).Info("Starting report render")

	rec, err := s.finder.Find(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("finding record: %w", err)
	}

	report, err := s.assembler.Assemble(rec, year)
	if err != nil {
		return nil, fmt.Errorf("assembling report: %w", err)
	}

	s.recordView(ctx, req, report)

	s.logger.WithFields(logrus.Fields{
		"request_id":         req.RequestID,
		"year":               year,
		"abnormal_count":     report.AbnormalCount,
		"processing_time_ms": time.Since(startTime).Milliseconds(),
	}).Info("Report rendered")
	return report, nil
}

func (s *ReportService) recordView(ctx context.Context, req ReportRequest, report *domain.Report) {
	if s.recorder == nil {
		return
	}
	view := &domain.ReportView{
		HN:            report.Patient.HN,
		Year:          report.Year,
		AbnormalCount: report.AbnormalCount,
		Advisory:      strings.Join(report.Advisory, "\n"),
		RequestID:     req.RequestID,
		Source:        req.Source,
		ViewedAt:      time.Now().UTC(),
	}
	if err := s.recorder.RecordView(ctx, view); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"request_id": req.RequestID,
			"year":       report.Year,
		}).Warn("Failed to record report view")
	}
}
