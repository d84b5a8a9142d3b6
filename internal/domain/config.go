package domain

import (
	"time"
)

// Config represents the main application configuration
type Config struct {
	Environment string           `mapstructure:"environment"`
	Server      ServerConfig     `mapstructure:"server"`
	DataSource  DataSourceConfig `mapstructure:"data_source"`
	Cache       CacheConfig      `mapstructure:"cache"`
	Database    DatabaseConfig   `mapstructure:"database"`
	Audit       AuditConfig      `mapstructure:"audit"`
	Report      ReportConfig     `mapstructure:"report"`
	Logging     LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	TLSEnabled     bool          `mapstructure:"tls_enabled"`
	CertFile       string        `mapstructure:"cert_file"`
	KeyFile        string        `mapstructure:"key_file"`
}

// Data source types
const (
	DataSourceSheet    = "sheet"
	DataSourceFile     = "file"
	DataSourcePostgres = "postgres"
)

// DataSourceConfig selects and configures the backing record set
type DataSourceConfig struct {
	Type       string        `mapstructure:"type"`      // "sheet", "file", "postgres"
	SheetURL   string        `mapstructure:"sheet_url"` // published CSV export URL
	FilePath   string        `mapstructure:"file_path"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RateLimit  int           `mapstructure:"rate_limit"` // requests per second
	RetryCount int           `mapstructure:"retry_count"`
}

// CacheConfig represents cache configuration
type CacheConfig struct {
	SnapshotTTL time.Duration `mapstructure:"snapshot_ttl"`
	RedisURL    string        `mapstructure:"redis_url"` // empty disables the shared cache
	RedisTTL    time.Duration `mapstructure:"redis_ttl"`
	MaxRetries  int           `mapstructure:"max_retries"`
	PoolSize    int           `mapstructure:"pool_size"`
	PoolTimeout time.Duration `mapstructure:"pool_timeout"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// Audit backends
const (
	AuditNone     = "none"
	AuditSQLite   = "sqlite"
	AuditPostgres = "postgres"
)

// AuditConfig configures the report-view audit trail
type AuditConfig struct {
	Backend     string `mapstructure:"backend"` // "none", "sqlite", "postgres"
	SQLitePath  string `mapstructure:"sqlite_path"`
	PostgresURL string `mapstructure:"postgres_url"`
}

// BMI scale variants
const (
	BMIScaleAsiaPacific = "asia_pacific"
	BMIScaleWHO         = "who"
)

// ReportConfig holds report content settings
type ReportConfig struct {
	CurrentYear     int    `mapstructure:"current_year"` // two-digit Buddhist-era code
	FirstYear       int    `mapstructure:"first_year"`
	BMIScale        string `mapstructure:"bmi_scale"`
	HospitalName    string `mapstructure:"hospital_name"`
	HospitalAddress string `mapstructure:"hospital_address"`
}

// Years lists the selectable checkup years, newest first.
func (r ReportConfig) Years() []int {
	if r.FirstYear > r.CurrentYear {
		return nil
	}
	years := make([]int, 0, r.CurrentYear-r.FirstYear+1)
	for y := r.CurrentYear; y >= r.FirstYear; y-- {
		years = append(years, y)
	}
	return years
}

// HasYear reports whether year lies in the configured window.
func (r ReportConfig) HasYear(year int) bool {
	return year >= r.FirstYear && year <= r.CurrentYear
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Format      string `mapstructure:"format"`
	Output      string `mapstructure:"output"`
	Filename    string `mapstructure:"filename"`
	PrivacyMode bool   `mapstructure:"privacy_mode"`
}
