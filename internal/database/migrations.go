package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"
)

// SchemaVersion is the migration state recorded in schema_migrations
type SchemaVersion struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
	// Applied is false on a database no migration has touched yet
	Applied bool `json:"applied"`
}

func (v SchemaVersion) String() string {
	switch {
	case !v.Applied:
		return "no migrations applied"
	case v.Dirty:
		return fmt.Sprintf("version %d (dirty)", v.Version)
	default:
		return fmt.Sprintf("version %d", v.Version)
	}
}

// Migrator applies the checkup_records and report_views schema
type Migrator struct {
	m      *migrate.Migrate
	logger *logrus.Logger
}

// NewMigrator opens the migration source directory against databaseURL
func NewMigrator(databaseURL, migrationsPath string, logger *logrus.Logger) (*Migrator, error) {
	m, err := migrate.New("file://"+migrationsPath, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening migrations in %s: %w", migrationsPath, err)
	}
	return &Migrator{m: m, logger: logger}, nil
}

// Up applies every pending migration. An up-to-date schema is not an error.
func (mg *Migrator) Up(ctx context.Context) (SchemaVersion, error) {
	return mg.apply(ctx, "up", mg.m.Up)
}

// Down reverts the given number of migrations, at least one
func (mg *Migrator) Down(ctx context.Context, steps int) (SchemaVersion, error) {
	if steps < 1 {
		steps = 1
	}
	return mg.apply(ctx, "down", func() error { return mg.m.Steps(-steps) })
}

// Version reports the current schema version
func (mg *Migrator) Version() (SchemaVersion, error) {
	version, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return SchemaVersion{}, nil
	}
	if err != nil {
		return SchemaVersion{}, fmt.Errorf("reading schema version: %w", err)
	}
	return SchemaVersion{Version: version, Dirty: dirty, Applied: true}, nil
}

// Close releases the source and database handles
func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}

func (mg *Migrator) apply(ctx context.Context, direction string, step func() error) (SchemaVersion, error) {
	// golang-migrate takes no context; only refuse to start once ctx is done
	if err := ctx.Err(); err != nil {
		return SchemaVersion{}, err
	}

	err := step()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return SchemaVersion{}, fmt.Errorf("migrating %s: %w", direction, err)
	}

	version, verr := mg.Version()
	if verr != nil {
		return SchemaVersion{}, verr
	}
	mg.logger.WithFields(logrus.Fields{
		"direction": direction,
		"version":   version.Version,
		"dirty":     version.Dirty,
		"changed":   err == nil,
	}).Info("Schema migration finished")
	return version, nil
}

// Migrate brings the schema at databaseURL up to date
func Migrate(ctx context.Context, databaseURL, migrationsPath string, logger *logrus.Logger) error {
	mg, err := NewMigrator(databaseURL, migrationsPath, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := mg.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close migrator")
		}
	}()
	_, err = mg.Up(ctx)
	return err
}
