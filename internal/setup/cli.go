package setup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/checkup-report-server/internal/audit"
	"github.com/checkup-report-server/internal/config"
	"github.com/checkup-report-server/internal/database"
	"github.com/checkup-report-server/internal/domain"
	"github.com/checkup-report-server/internal/records"
	"github.com/checkup-report-server/internal/render"
	"github.com/checkup-report-server/internal/repository"
	"github.com/checkup-report-server/internal/service"
)

// CLI provides the standalone command-line interface.
type CLI struct {
	cfg    *config.LiteConfig
	logger *logrus.Logger
	out    io.Writer
}

// NewCLI creates a new CLI instance writing to out.
func NewCLI(cfg *config.LiteConfig, logger *logrus.Logger, out io.Writer) *CLI {
	return &CLI{
		cfg:    cfg,
		logger: logger,
		out:    out,
	}
}

// Run executes the command named by args[0].
func (c *CLI) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return c.showHelp()
	}

	switch args[0] {
	case "render":
		return c.render(ctx, args[1:])
	case "years":
		return c.years()
	case "status":
		return c.showStatus(ctx)
	case "validate":
		return c.validate(ctx)
	case "import":
		return c.importRecords(ctx, args[1:])
	case "migrate":
		return c.migrate(ctx, args[1:])
	case "audit":
		return c.auditCommand(ctx, args[1:])
	case "help", "--help", "-h":
		return c.showHelp()
	default:
		fmt.Fprintf(c.out, "Unknown command: %s\n\n", args[0])
		c.showHelp()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// showHelp displays usage information.
func (c *CLI) showHelp() error {
	help := `
Checkup Report (standalone)

Usage:
  checkup-lite <command> [options]

Commands:
  render    Render one patient's report from the local CSV export
  years     List the selectable checkup years
  status    Show data directory, CSV and audit status
  validate  Check the CSV export and report settings
  import    Load the CSV export into Postgres
  migrate   Apply, revert or show the Postgres schema version
  audit     Export or purge the report-view audit trail

Options:
  render  --hn <hn> | --id <national id> | --name <full name>  [--year 68] [--html] [--output <file>]
  import  --database-url <postgres://...> [--migrations <dir>]
  migrate up|down|version --database-url <postgres://...> [--migrations <dir>] [--steps 1]
  audit   export [--output <file>]
  audit   purge --older-than <duration, e.g. 2160h>

Environment:
  CHECKUP_DATA_DIR, CHECKUP_CSV_PATH, CHECKUP_CURRENT_YEAR, CHECKUP_FIRST_YEAR,
  CHECKUP_BMI_SCALE, CHECKUP_AUDIT, CHECKUP_LOG_LEVEL

Examples:
  checkup-lite render --hn 650001
  checkup-lite render --id 1509900000001 --year 2567 --html --output report.html
  checkup-lite import --database-url postgres://report@localhost/checkup_report
  checkup-lite migrate version --database-url postgres://report@localhost/checkup_report
`
	fmt.Fprintln(c.out, help)
	return nil
}

// flagValues parses "--name value" pairs and bare "--switch" flags.
func flagValues(args []string, switches ...string) (map[string]string, error) {
	isSwitch := make(map[string]bool, len(switches))
	for _, s := range switches {
		isSwitch[s] = true
	}
	values := make(map[string]string)
	for i := 0; i < len(args); i++ {
		name := args[i]
		if len(name) < 3 || name[:2] != "--" {
			return nil, fmt.Errorf("unexpected argument %q", name)
		}
		if isSwitch[name] {
			values[name] = "true"
			continue
		}
		if i+1 >= len(args) {
			return nil, fmt.Errorf("flag %s needs a value", name)
		}
		values[name] = args[i+1]
		i++
	}
	return values, nil
}

func (c *CLI) render(ctx context.Context, args []string) error {
	flags, err := flagValues(args, "--html")
	if err != nil {
		return err
	}
	q, err := service.ParseQuery(flags["--id"], flags["--hn"], flags["--name"])
	if err != nil {
		return err
	}
	reportCfg := c.cfg.ReportConfig()
	year, err := service.ParseYear(flags["--year"], reportCfg)
	if err != nil {
		return err
	}

	cache := records.NewSnapshotCache(records.NewFileSource(c.cfg.DataPath()), c.cfg.SnapshotTTL, c.logger)
	if err := cache.Warm(ctx); err != nil {
		return err
	}

	var recorder domain.ViewRecorder
	if c.cfg.AuditBackend == domain.AuditSQLite {
		if err := c.cfg.EnsureDataDir(); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
		store, err := audit.Open(c.cfg.AuditConfig())
		if err != nil {
			return err
		}
		defer store.Close()
		recorder = store
	}

	svc, err := service.NewDefaultReportService(cache, recorder, reportCfg, c.logger)
	if err != nil {
		return err
	}
	report, err := svc.Render(ctx, service.ReportRequest{
		Query:     q,
		Year:      year,
		RequestID: uuid.New().String(),
		Source:    "cli",
	})
	if err != nil {
		return err
	}

	var renderer domain.ReportRenderer = render.NewTextRenderer()
	if flags["--html"] != "" {
		if renderer, err = render.NewHTMLRenderer(); err != nil {
			return err
		}
	}
	body, err := renderer.Render(report)
	if err != nil {
		return err
	}

	if path := flags["--output"]; path != "" {
		if err := os.WriteFile(path, body, 0o600); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		fmt.Fprintf(c.out, "Report written to %s\n", path)
		return nil
	}
	_, err = c.out.Write(body)
	return err
}

func (c *CLI) years() error {
	for _, y := range c.cfg.ReportConfig().Years() {
		marker := ""
		if y == c.cfg.CurrentYear {
			marker = " (current)"
		}
		fmt.Fprintf(c.out, "%02d  %s%s\n", y, domain.YearLabel(y), marker)
	}
	return nil
}

// showStatus displays the current setup status.
func (c *CLI) showStatus(ctx context.Context) error {
	status := GetStatus(ctx, c.cfg)

	fmt.Fprintln(c.out, "Checkup Report Status")
	fmt.Fprintln(c.out, "=====================")
	fmt.Fprintln(c.out)

	fmt.Fprintln(c.out, "Data Directory:")
	fmt.Fprintf(c.out, "  Path: %s\n", status.DataDir)
	if status.DataDirExists {
		fmt.Fprintln(c.out, "  Status: ✓ Exists")
	} else {
		fmt.Fprintln(c.out, "  Status: - Will be created on first run")
	}
	fmt.Fprintln(c.out)

	fmt.Fprintln(c.out, "Checkup CSV:")
	fmt.Fprintf(c.out, "  Path: %s\n", status.CSVPath)
	if status.CSVExists {
		fmt.Fprintf(c.out, "  Rows: %d\n", status.Rows)
	} else {
		fmt.Fprintln(c.out, "  Status: ✗ Not found")
	}
	fmt.Fprintln(c.out)

	fmt.Fprintln(c.out, "Audit:")
	fmt.Fprintf(c.out, "  Backend: %s\n", status.AuditBackend)
	if status.AuditPath != "" {
		fmt.Fprintf(c.out, "  Path: %s\n", status.AuditPath)
		if status.AuditEntries >= 0 {
			fmt.Fprintf(c.out, "  Entries: %d\n", status.AuditEntries)
		} else {
			fmt.Fprintln(c.out, "  Entries: - Not created yet")
		}
	}
	fmt.Fprintln(c.out)

	if len(status.Issues) > 0 {
		fmt.Fprintln(c.out, "Issues:")
		for _, issue := range status.Issues {
			fmt.Fprintf(c.out, "  ⚠ %s\n", issue)
		}
		fmt.Fprintln(c.out)
	}

	return nil
}

// validate checks the current configuration and CSV export.
func (c *CLI) validate(ctx context.Context) error {
	fmt.Fprintln(c.out, "Validating configuration...")
	fmt.Fprintln(c.out)

	valid, issues := Validate(ctx, c.cfg)
	for _, issue := range issues {
		fmt.Fprintf(c.out, "  - %s\n", issue)
	}
	if !valid {
		fmt.Fprintln(c.out, "✗ Configuration has errors")
		return fmt.Errorf("validation failed with %d issue(s)", len(issues))
	}
	fmt.Fprintln(c.out, "✓ Configuration is valid!")
	return nil
}

func (c *CLI) importRecords(ctx context.Context, args []string) error {
	flags, err := flagValues(args)
	if err != nil {
		return err
	}
	databaseURL, migrationsPath, err := postgresTarget("import", flags)
	if err != nil {
		return err
	}

	recs, err := records.NewFileSource(c.cfg.DataPath()).FetchRecords(ctx)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return domain.ErrEmptyDataSource
	}

	if err := database.Migrate(ctx, databaseURL, migrationsPath, c.logger); err != nil {
		return err
	}
	db, err := database.NewConnectionFromURL(ctx, databaseURL, c.logger)
	if err != nil {
		return err
	}
	defer db.Close()

	result, err := repository.NewRecordRepository(db.Pool, c.logger).ReplaceAll(ctx, recs)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Imported %d rows as batch %s in %s\n", result.Rows, result.BatchID, result.Duration.Round(time.Millisecond))
	return nil
}

// postgresTarget resolves the database URL and migrations directory for cmd.
func postgresTarget(cmd string, flags map[string]string) (string, string, error) {
	databaseURL := flags["--database-url"]
	if databaseURL == "" {
		databaseURL = os.Getenv("CHECKUP_DATABASE_URL")
	}
	if databaseURL == "" {
		return "", "", fmt.Errorf("%s needs --database-url or CHECKUP_DATABASE_URL", cmd)
	}
	migrationsPath := flags["--migrations"]
	if migrationsPath == "" {
		migrationsPath = "migrations"
	}
	return databaseURL, migrationsPath, nil
}

func (c *CLI) migrate(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("migrate needs a subcommand: up, down or version")
	}
	action := args[0]
	if action != "up" && action != "down" && action != "version" {
		return fmt.Errorf("unknown migrate subcommand %q", action)
	}
	flags, err := flagValues(args[1:])
	if err != nil {
		return err
	}
	steps := 1
	if raw := flags["--steps"]; raw != "" {
		steps, err = strconv.Atoi(raw)
		if err != nil || steps < 1 {
			return fmt.Errorf("invalid --steps %q", raw)
		}
	}
	databaseURL, migrationsPath, err := postgresTarget("migrate", flags)
	if err != nil {
		return err
	}

	mg, err := database.NewMigrator(databaseURL, migrationsPath, c.logger)
	if err != nil {
		return err
	}
	defer mg.Close()

	var version database.SchemaVersion
	switch action {
	case "up":
		version, err = mg.Up(ctx)
	case "down":
		version, err = mg.Down(ctx, steps)
	default:
		version, err = mg.Version()
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Schema: %s\n", version)
	return nil
}

func (c *CLI) auditCommand(ctx context.Context, args []string) error {
	if c.cfg.AuditBackend != domain.AuditSQLite {
		return fmt.Errorf("audit trail is disabled (CHECKUP_AUDIT=%s)", c.cfg.AuditBackend)
	}
	if len(args) == 0 {
		return fmt.Errorf("audit needs a subcommand: export or purge")
	}
	flags, err := flagValues(args[1:])
	if err != nil {
		return err
	}
	if err := c.cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	store, err := audit.NewSQLiteStore(c.cfg.AuditDBPath())
	if err != nil {
		return err
	}
	defer store.Close()

	switch args[0] {
	case "export":
		path := flags["--output"]
		if path == "" {
			path = filepath.Join(c.cfg.ExportDir(), fmt.Sprintf("report-views-%s.json", time.Now().UTC().Format("20060102-150405")))
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
		if err != nil {
			return fmt.Errorf("creating export file: %w", err)
		}
		defer f.Close()
		if err := store.ExportJSON(ctx, f); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Audit trail exported to %s\n", path)
		return nil
	case "purge":
		raw := flags["--older-than"]
		if raw == "" {
			return fmt.Errorf("purge needs --older-than")
		}
		age, err := time.ParseDuration(raw)
		if err != nil || age <= 0 {
			return fmt.Errorf("invalid --older-than %q", raw)
		}
		n, err := store.Purge(ctx, time.Now().Add(-age))
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Purged %d audit entries\n", n)
		return nil
	default:
		return fmt.Errorf("unknown audit subcommand %q", args[0])
	}
}
