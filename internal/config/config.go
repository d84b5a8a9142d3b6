package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"

	"github.com/checkup-report-server/internal/domain"
)

var _ domain.ConfigManager = (*Manager)(nil)

// Manager implements the ConfigManager interface using Viper
type Manager struct {
	v          *viper.Viper
	configFile string
	config     *domain.Config
}

// NewManager creates a new configuration manager
func NewManager() (*Manager, error) {
	return NewManagerFromFile("")
}

// NewManagerFromFile creates a configuration manager that reads an explicit config file.
// An empty path searches the default locations.
func NewManagerFromFile(path string) (*Manager, error) {
	m := &Manager{configFile: path}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig() error {
	v := viper.New()

	if m.configFile != "" {
		v.SetConfigFile(m.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/checkup-report/")
	}

	v.SetEnvPrefix("CHECKUP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// the file is optional; defaults and environment variables still apply
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.v = v
	m.config = config
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "30s")
	v.SetDefault("server.tls_enabled", false)

	// Data source defaults
	v.SetDefault("data_source.type", domain.DataSourceSheet)
	v.SetDefault("data_source.sheet_url", "")
	v.SetDefault("data_source.file_path", "data/checkup.csv")
	v.SetDefault("data_source.timeout", "30s")
	v.SetDefault("data_source.rate_limit", 2)
	v.SetDefault("data_source.retry_count", 3)

	// Cache defaults
	v.SetDefault("cache.snapshot_ttl", "5m")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.redis_ttl", "5m")
	v.SetDefault("cache.max_retries", 3)
	v.SetDefault("cache.pool_size", 10)
	v.SetDefault("cache.pool_timeout", "4s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "checkup_report")
	v.SetDefault("database.username", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "5m")
	v.SetDefault("database.migrations_path", "migrations")

	// Audit defaults
	v.SetDefault("audit.backend", domain.AuditNone)
	v.SetDefault("audit.sqlite_path", "data/audit.db")
	v.SetDefault("audit.postgres_url", "")

	// Report defaults
	v.SetDefault("report.current_year", 68)
	v.SetDefault("report.first_year", 61)
	v.SetDefault("report.bmi_scale", domain.BMIScaleAsiaPacific)
	v.SetDefault("report.hospital_name", "โรงพยาบาลสันทราย")
	v.SetDefault("report.hospital_address",
		"201 หมู่ที่ 11 ถนน เชียงใหม่ - พร้าว ตำบลหนองหาร อำเภอสันทราย เชียงใหม่ 50290 โทร 053 921 199 ต่อ 167")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.privacy_mode", true)
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetDatabaseConfig returns database configuration
func (m *Manager) GetDatabaseConfig() *domain.DatabaseConfig {
	return &m.config.Database
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	return Validate(m.config)
}

// Validate checks a configuration for values the service cannot run with
func Validate(config *domain.Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	switch config.DataSource.Type {
	case domain.DataSourceSheet:
		if strings.TrimSpace(config.DataSource.SheetURL) == "" {
			return fmt.Errorf("data_source.sheet_url is required for the sheet data source")
		}
		if _, err := url.ParseRequestURI(config.DataSource.SheetURL); err != nil {
			return fmt.Errorf("invalid data_source.sheet_url: %w", err)
		}
	case domain.DataSourceFile:
		if strings.TrimSpace(config.DataSource.FilePath) == "" {
			return fmt.Errorf("data_source.file_path is required for the file data source")
		}
	case domain.DataSourcePostgres:
		if err := validateDatabase(config.Database); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid data source type: %q", config.DataSource.Type)
	}

	if config.DataSource.RateLimit < 0 {
		return fmt.Errorf("data_source.rate_limit must not be negative")
	}

	switch config.Audit.Backend {
	case "", domain.AuditNone:
	case domain.AuditSQLite:
		if config.Audit.SQLitePath == "" {
			return fmt.Errorf("audit.sqlite_path is required for the sqlite audit backend")
		}
	case domain.AuditPostgres:
		if config.Audit.PostgresURL == "" {
			if err := validateDatabase(config.Database); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("invalid audit backend: %q", config.Audit.Backend)
	}

	report := config.Report
	if report.CurrentYear < 0 || report.CurrentYear > 99 || report.FirstYear < 0 || report.FirstYear > 99 {
		return fmt.Errorf("report years must be two-digit Buddhist-era codes")
	}
	if report.FirstYear > report.CurrentYear {
		return fmt.Errorf("report.first_year %d is after report.current_year %d", report.FirstYear, report.CurrentYear)
	}
	if report.BMIScale != domain.BMIScaleAsiaPacific && report.BMIScale != domain.BMIScaleWHO {
		return fmt.Errorf("invalid report.bmi_scale: %q", report.BMIScale)
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}

func validateDatabase(db domain.DatabaseConfig) error {
	if db.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if db.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if db.Username == "" {
		return fmt.Errorf("database username is required")
	}
	return nil
}

// GetDatabaseConnectionString returns a formatted database connection string
func (m *Manager) GetDatabaseConnectionString() string {
	db := m.config.Database
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		db.Host, db.Port, db.Username, db.Password, db.Database, db.SSLMode)
}

// GetDatabaseURL returns the database settings as a postgres:// URL
func (m *Manager) GetDatabaseURL() string {
	db := m.config.Database
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(db.Username, db.Password),
		Host:     fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:     "/" + db.Database,
		RawQuery: url.Values{"sslmode": {db.SSLMode}}.Encode(),
	}
	return u.String()
}

// GetAuditConfig returns audit settings, pointing the postgres backend at the main
// database when no dedicated URL is configured
func (m *Manager) GetAuditConfig() domain.AuditConfig {
	audit := m.config.Audit
	if audit.Backend == domain.AuditPostgres && audit.PostgresURL == "" {
		audit.PostgresURL = m.GetDatabaseURL()
	}
	return audit
}

// GetRedisConnectionString returns the Redis connection string
func (m *Manager) GetRedisConnectionString() string {
	return m.config.Cache.RedisURL
}

// IsProduction returns true if running in production mode
func (m *Manager) IsProduction() bool {
	return strings.ToLower(m.config.Environment) == "production"
}

// IsDevelopment returns true if running in development mode
func (m *Manager) IsDevelopment() bool {
	env := strings.ToLower(m.config.Environment)
	return env == "development" || env == "dev" || env == ""
}
