package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/checkup-report-server/internal/domain"
	"github.com/checkup-report-server/internal/health"
	"github.com/checkup-report-server/internal/middleware"
	"github.com/checkup-report-server/internal/render"
	"github.com/checkup-report-server/internal/service"
)

// Report output formats
const (
	FormatJSON = "json"
	FormatText = "text"
	FormatHTML = "html"
)

// YearResponse is one selectable checkup year
type YearResponse struct {
	Code  int    `json:"code"`
	Label string `json:"label"`
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.health == nil {
		c.JSON(http.StatusOK, gin.H{
			"status":    health.StateHealthy,
			"timestamp": time.Now().UTC(),
			"version":   Version,
		})
		return
	}

	status := s.health.Run(c.Request.Context())
	code := http.StatusOK
	if status.Overall == health.StateUnhealthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}

func (s *Server) handleYears(c *gin.Context) {
	years := s.service.Years()
	out := make([]YearResponse, 0, len(years))
	for _, y := range years {
		out = append(out, YearResponse{Code: y, Label: domain.YearLabel(y)})
	}
	c.JSON(http.StatusOK, gin.H{
		"current": s.service.ReportConfig().CurrentYear,
		"years":   out,
	})
}

// reportRequest parses the lookup filters and year shared by the API and the page
func (s *Server) reportRequest(c *gin.Context, source string) (service.ReportRequest, error) {
	q, err := service.ParseQuery(c.Query("national_id"), c.Query("hn"), c.Query("name"))
	if err != nil {
		return service.ReportRequest{}, err
	}
	year, err := service.ParseYear(c.Query("year"), s.service.ReportConfig())
	if err != nil {
		return service.ReportRequest{}, err
	}
	return service.ReportRequest{
		Query:     q,
		Year:      year,
		RequestID: c.GetString(middleware.CorrelationIDKey),
		Source:    source,
	}, nil
}

func (s *Server) handleReport(c *gin.Context) {
	format := c.DefaultQuery("format", FormatJSON)
	var renderer domain.ReportRenderer
	switch format {
	case FormatJSON:
	case FormatText:
		renderer = s.text
	case FormatHTML:
		renderer = s.html
	default:
		s.writeError(c, domain.NewValidationError("format", "format must be json, text or html", format))
		return
	}

	req, err := s.reportRequest(c, "api")
	if err != nil {
		s.writeError(c, err)
		return
	}

	report, err := s.service.Render(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}

	if renderer == nil {
		c.JSON(http.StatusOK, report)
		return
	}
	body, err := renderer.Render(report)
	if err != nil {
		s.writeError(c, fmt.Errorf("rendering %s report: %w", format, err))
		return
	}
	c.Data(http.StatusOK, renderer.ContentType(), body)
}

// handleReportPage serves the lookup screen. Every request stands alone: the filters come
// from the query string and nothing is remembered between requests.
func (s *Server) handleReportPage(c *gin.Context) {
	cfg := s.service.ReportConfig()
	page := &render.Page{
		Action: "/report",
		Query: domain.PatientQuery{
			NationalID: c.Query("national_id"),
			HN:         c.Query("hn"),
			Name:       c.Query("name"),
		},
	}
	selected := cfg.CurrentYear
	status := http.StatusOK

	if !page.Query.IsEmpty() || c.Query("year") != "" {
		req, err := s.reportRequest(c, "web")
		if err == nil {
			selected = req.Year
			page.Report, err = s.service.Render(c.Request.Context(), req)
		}
		if err != nil {
			status, page.Message = s.pageMessage(c, err)
		}
	}
	page.Years = render.YearOptions(s.service.Years(), selected)

	body, err := s.html.RenderPage(page)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Data(status, s.html.ContentType(), body)
}

// Messages shown on the lookup screen
const (
	MessageMissingQuery = "กรุณาระบุเลขบัตรประชาชน HN หรือชื่อ-สกุล"
	MessageInvalidYear  = "ปีที่เลือกไม่ถูกต้อง"
	MessageUnavailable  = "ไม่สามารถดึงข้อมูลได้ในขณะนี้ กรุณาลองใหม่อีกครั้ง"
)

func (s *Server) pageMessage(c *gin.Context, err error) (int, string) {
	status, _, _ := classify(err)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return status, domain.NotFoundMessage
	case errors.Is(err, domain.ErrInvalidYear):
		return status, MessageInvalidYear
	case status == http.StatusBadRequest:
		return status, MessageMissingQuery
	}
	s.logger.WithError(err).WithField("correlation_id", c.GetString(middleware.CorrelationIDKey)).
		Error("Report page failed")
	return status, MessageUnavailable
}

func (s *Server) handleAuditViews(c *gin.Context) {
	if s.audit == nil {
		c.JSON(http.StatusNotFound, domain.NewServiceError(domain.CodeNotFound, "audit trail is disabled", "",
			c.GetString(middleware.CorrelationIDKey)))
		return
	}

	limit, err := queryInt(c, "limit", 50)
	if err != nil {
		s.writeError(c, err)
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		s.writeError(c, err)
		return
	}

	ctx := c.Request.Context()
	views, err := s.audit.List(ctx, limit, offset)
	if err != nil {
		s.writeError(c, fmt.Errorf("listing report views: %w", err))
		return
	}
	total, err := s.audit.Count(ctx)
	if err != nil {
		s.writeError(c, fmt.Errorf("counting report views: %w", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"views":  views,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (s *Server) handleAuditExport(c *gin.Context) {
	if s.audit == nil {
		c.JSON(http.StatusNotFound, domain.NewServiceError(domain.CodeNotFound, "audit trail is disabled", "",
			c.GetString(middleware.CorrelationIDKey)))
		return
	}

	filename := fmt.Sprintf("report-views-%s.json", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Type", "application/json")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)
	if err := s.audit.ExportJSON(c.Request.Context(), c.Writer); err != nil {
		s.logger.WithError(err).Error("Audit export failed")
	}
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, domain.NewValidationError(key, "must be a non-negative integer", raw)
	}
	return n, nil
}
