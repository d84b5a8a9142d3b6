package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/checkup-report-server/internal/api"
	"github.com/checkup-report-server/internal/audit"
	"github.com/checkup-report-server/internal/config"
	"github.com/checkup-report-server/internal/database"
	"github.com/checkup-report-server/internal/domain"
	"github.com/checkup-report-server/internal/health"
	"github.com/checkup-report-server/internal/logging"
	"github.com/checkup-report-server/internal/records"
	"github.com/checkup-report-server/internal/repository"
	"github.com/checkup-report-server/internal/service"
	"github.com/checkup-report-server/pkg/sheets"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down")
		cancel()
	}()

	if err := run(ctx, configManager, logger); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Server stopped")
}

func run(ctx context.Context, configManager *config.Manager, logger *logrus.Logger) error {
	cfg := configManager.GetConfig()

	source, checks, closeSource, err := newRecordSource(ctx, configManager, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	// The first fetch must succeed; a server without records cannot answer anything.
	snapshots := records.NewSnapshotCache(source, cfg.Cache.SnapshotTTL, logger)
	if err := snapshots.Warm(ctx); err != nil {
		return err
	}

	store, err := audit.Open(configManager.GetAuditConfig())
	if err != nil {
		return fmt.Errorf("opening audit store: %w", err)
	}
	var recorder domain.ViewRecorder
	if store != nil {
		defer store.Close()
		recorder = store
	}

	svc, err := service.NewDefaultReportService(snapshots, recorder, cfg.Report, logger)
	if err != nil {
		return err
	}

	checker := health.NewChecker(api.Version, 5*time.Second, logger)
	checker.Register(health.NewSnapshotCheck(snapshots))
	for _, check := range checks {
		checker.Register(check)
	}
	if store != nil {
		checker.Register(health.NewPingCheck("audit", false, func(ctx context.Context) error {
			_, err := store.Count(ctx)
			return err
		}))
	}

	server, err := api.NewServer(cfg.Server, svc, checker, store, logger)
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"environment":  cfg.Environment,
		"source":       source.Name(),
		"audit":        configManager.GetAuditConfig().Backend,
		"current_year": cfg.Report.CurrentYear,
	}).Info("Starting checkup report server")

	return server.Start(ctx)
}

// newRecordSource builds the configured record source, the health checks of its
// dependencies and a func releasing its resources.
func newRecordSource(ctx context.Context, configManager *config.Manager, logger *logrus.Logger) (domain.RecordSource, []health.Check, func(), error) {
	cfg := configManager.GetConfig()
	noop := func() {}

	switch cfg.DataSource.Type {
	case domain.DataSourceFile:
		return records.NewFileSource(cfg.DataSource.FilePath), nil, noop, nil

	case domain.DataSourcePostgres:
		databaseURL := configManager.GetDatabaseURL()
		if err := database.Migrate(ctx, databaseURL, cfg.Database.MigrationsPath, logger); err != nil {
			return nil, nil, nil, err
		}
		db, err := database.NewConnection(ctx, database.ConfigFrom(cfg.Database), logger)
		if err != nil {
			return nil, nil, nil, err
		}
		checks := []health.Check{health.NewPingCheck("database", true, db.Health)}
		return repository.NewRecordRepository(db.Pool, logger), checks, db.Close, nil

	default:
		client, err := sheets.NewClient(cfg.DataSource, logger)
		if err != nil {
			return nil, nil, nil, err
		}

		var cache *sheets.CacheClient
		closeCache := noop
		if cfg.Cache.RedisURL != "" {
			cache, err = sheets.NewCacheClient(cfg.Cache)
			if err != nil {
				// The shared cache is optional; fetch directly when Redis is down.
				logger.WithError(err).Warn("Redis unavailable, sheet cache disabled")
				cache = nil
			} else {
				closeCache = func() { cache.Close() }
			}
		}
		resilient := sheets.NewResilientClient(client, cache, logger)
		checks := []health.Check{health.NewBreakerCheck("sheet_breaker", resilient.State)}
		if cache != nil {
			checks = append(checks, health.NewPingCheck("redis", false, cache.Ping))
		}
		return records.NewSheetSource(resilient), checks, closeCache, nil
	}
}
