package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/checkup-report-server/internal/audit"
	"github.com/checkup-report-server/internal/domain"
	"github.com/checkup-report-server/internal/health"
	"github.com/checkup-report-server/internal/middleware"
	"github.com/checkup-report-server/internal/render"
	"github.com/checkup-report-server/internal/service"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// Server represents the HTTP server
type Server struct {
	cfg     domain.ServerConfig
	service *service.ReportService
	health  *health.Checker
	audit   audit.Store
	html    *render.HTMLRenderer
	text    *render.TextRenderer
	logger  *logrus.Logger
	router  *gin.Engine
	server  *http.Server
}

// NewServer creates a new HTTP server instance. checker and store may be nil.
func NewServer(cfg domain.ServerConfig, svc *service.ReportService, checker *health.Checker, store audit.Store, logger *logrus.Logger) (*Server, error) {
	html, err := render.NewHTMLRenderer()
	if err != nil {
		return nil, err
	}

	// Set Gin mode based on log level
	if logger.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.AccessLogger(logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	s := &Server{
		cfg:     cfg,
		service: svc,
		health:  checker,
		audit:   store,
		html:    html,
		text:    render.NewTextRenderer(),
		logger:  logger,
		router:  router,
	}

	s.setupRoutes()

	return s, nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		var err error
		if s.cfg.TLSEnabled {
			err = s.server.ListenAndServeTLS(s.cfg.CertFile, s.cfg.KeyFile)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("starting server on %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, "/report") })
	s.router.GET("/report", s.handleReportPage)

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/years", s.handleYears)
		v1.GET("/reports", s.handleReport)
		v1.GET("/audit/views", s.handleAuditViews)
		v1.GET("/audit/export", s.handleAuditExport)
	}
}

// writeError maps err onto a status code and a ServiceError body
func (s *Server) writeError(c *gin.Context, err error) {
	requestID := c.GetString(middleware.CorrelationIDKey)
	status, code, message := classify(err)

	entry := s.logger.WithError(err).WithFields(logrus.Fields{
		"correlation_id": requestID,
		"status":         status,
	})
	if status >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Debug("Request rejected")
	}

	details := ""
	if status < http.StatusInternalServerError {
		details = err.Error()
	}
	c.AbortWithStatusJSON(status, domain.NewServiceError(code, message, details, requestID))
}

func classify(err error) (int, string, string) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, domain.CodeValidation, ve.Message
	case errors.Is(err, domain.ErrInvalidYear):
		return http.StatusBadRequest, domain.CodeInvalidInput, "checkup year is outside the available range"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, domain.CodeNotFound, domain.NotFoundMessage
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, domain.CodeDataSourceError, "data source did not respond in time"
	case errors.Is(err, domain.ErrDataSourceUnavailable), errors.Is(err, domain.ErrEmptyDataSource):
		return http.StatusServiceUnavailable, domain.CodeDataSourceError, "checkup records are temporarily unavailable"
	default:
		return http.StatusInternalServerError, domain.CodeInternalServer, "internal server error"
	}
}
