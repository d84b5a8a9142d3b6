// Package config provides configuration management for the checkup report server.
// This file contains the lightweight configuration for standalone operation.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/checkup-report-server/internal/domain"
)

// LiteConfig is a simplified configuration for standalone operation.
// It reads a local CSV export and needs no database or network.
type LiteConfig struct {
	// Data storage
	DataDir string // Base directory for data files
	CSVPath string // Checkup sheet export

	// Report settings
	CurrentYear     int
	FirstYear       int
	BMIScale        string
	HospitalName    string
	HospitalAddress string

	// Audit
	AuditBackend string // "sqlite" or "none"

	SnapshotTTL time.Duration

	// Logging
	LogLevel  string // Log level: debug, info, warn, error
	LogFormat string // Log format: json, text
}

// DefaultLiteConfig returns a configuration with sensible defaults.
func DefaultLiteConfig() *LiteConfig {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".checkup-report")

	return &LiteConfig{
		DataDir:         dataDir,
		CurrentYear:     68,
		FirstYear:       61,
		BMIScale:        domain.BMIScaleAsiaPacific,
		HospitalName:    "โรงพยาบาลสันทราย",
		HospitalAddress: "201 หมู่ที่ 11 ถนน เชียงใหม่ - พร้าว ตำบลหนองหาร อำเภอสันทราย เชียงใหม่ 50290",
		AuditBackend:    domain.AuditSQLite,
		SnapshotTTL:     5 * time.Minute,
		LogLevel:        "warn",
		LogFormat:       "text",
	}
}

// LoadLiteConfig loads configuration from environment variables.
// Falls back to defaults if not set.
func LoadLiteConfig() *LiteConfig {
	cfg := DefaultLiteConfig()

	if v := os.Getenv("CHECKUP_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	cfg.CSVPath = os.Getenv("CHECKUP_CSV_PATH")

	if v := os.Getenv("CHECKUP_CURRENT_YEAR"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CurrentYear = n
		}
	}
	if v := os.Getenv("CHECKUP_FIRST_YEAR"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.FirstYear = n
		}
	}
	if v := os.Getenv("CHECKUP_BMI_SCALE"); v != "" {
		cfg.BMIScale = v
	}
	if v := os.Getenv("CHECKUP_HOSPITAL_NAME"); v != "" {
		cfg.HospitalName = v
	}
	if v := os.Getenv("CHECKUP_HOSPITAL_ADDRESS"); v != "" {
		cfg.HospitalAddress = v
	}
	if v := os.Getenv("CHECKUP_AUDIT"); v != "" {
		cfg.AuditBackend = v
	}
	if v := os.Getenv("CHECKUP_SNAPSHOT_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.SnapshotTTL = d
		}
	}

	if v := os.Getenv("CHECKUP_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("CHECKUP_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	return cfg
}

// DataPath returns the CSV export to read, defaulting to checkup.csv in the data directory.
func (c *LiteConfig) DataPath() string {
	if c.CSVPath != "" {
		return c.CSVPath
	}
	return filepath.Join(c.DataDir, "checkup.csv")
}

// AuditDBPath returns the path to the audit SQLite database.
func (c *LiteConfig) AuditDBPath() string {
	return filepath.Join(c.DataDir, "audit.db")
}

// ExportDir returns the directory for JSON exports.
func (c *LiteConfig) ExportDir() string {
	return filepath.Join(c.DataDir, "exports")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c *LiteConfig) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		return err
	}
	return os.MkdirAll(c.ExportDir(), 0o755)
}

// ReportConfig returns the report settings.
func (c *LiteConfig) ReportConfig() domain.ReportConfig {
	return domain.ReportConfig{
		CurrentYear:     c.CurrentYear,
		FirstYear:       c.FirstYear,
		BMIScale:        c.BMIScale,
		HospitalName:    c.HospitalName,
		HospitalAddress: c.HospitalAddress,
	}
}

// AuditConfig returns the audit settings.
func (c *LiteConfig) AuditConfig() domain.AuditConfig {
	return domain.AuditConfig{
		Backend:    c.AuditBackend,
		SQLitePath: c.AuditDBPath(),
	}
}

// LoggingConfig returns the logging settings. CLI logs go to stderr so stdout stays clean.
func (c *LiteConfig) LoggingConfig() domain.LoggingConfig {
	return domain.LoggingConfig{
		Level:       c.LogLevel,
		Format:      c.LogFormat,
		Output:      "stderr",
		PrivacyMode: true,
	}
}
