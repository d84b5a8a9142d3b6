package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/checkup-report-server/internal/domain"
)

func TestDefaultLiteConfig(t *testing.T) {
	cfg := DefaultLiteConfig()

	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, 68, cfg.CurrentYear)
	assert.Equal(t, 61, cfg.FirstYear)
	assert.Equal(t, domain.BMIScaleAsiaPacific, cfg.BMIScale)
	assert.Equal(t, domain.AuditSQLite, cfg.AuditBackend)
	assert.Equal(t, 5*time.Minute, cfg.SnapshotTTL)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoadLiteConfig_Defaults(t *testing.T) {
	clearEnvVars(t)

	cfg := LoadLiteConfig()

	assert.NotEmpty(t, cfg.DataDir)
	assert.Empty(t, cfg.CSVPath)
	assert.Equal(t, filepath.Join(cfg.DataDir, "checkup.csv"), cfg.DataPath())
}

func TestLoadLiteConfig_EnvironmentOverrides(t *testing.T) {
	clearEnvVars(t)

	t.Setenv("CHECKUP_DATA_DIR", "/tmp/test-checkup")
	t.Setenv("CHECKUP_CSV_PATH", "/srv/export.csv")
	t.Setenv("CHECKUP_CURRENT_YEAR", "69")
	t.Setenv("CHECKUP_FIRST_YEAR", "65")
	t.Setenv("CHECKUP_BMI_SCALE", domain.BMIScaleWHO)
	t.Setenv("CHECKUP_AUDIT", domain.AuditNone)
	t.Setenv("CHECKUP_SNAPSHOT_TTL", "1m")
	t.Setenv("CHECKUP_LOG_LEVEL", "debug")

	cfg := LoadLiteConfig()

	assert.Equal(t, "/tmp/test-checkup", cfg.DataDir)
	assert.Equal(t, "/srv/export.csv", cfg.DataPath())
	assert.Equal(t, time.Minute, cfg.SnapshotTTL)
	assert.Equal(t, "debug", cfg.LogLevel)

	report := cfg.ReportConfig()
	assert.Equal(t, 69, report.CurrentYear)
	assert.Equal(t, 65, report.FirstYear)
	assert.Equal(t, domain.BMIScaleWHO, report.BMIScale)

	assert.Equal(t, domain.AuditNone, cfg.AuditConfig().Backend)
	assert.Equal(t, "stderr", cfg.LoggingConfig().Output)
}

func TestLiteConfig_Paths(t *testing.T) {
	cfg := &LiteConfig{DataDir: "/home/user/.checkup-report"}

	assert.Equal(t, "/home/user/.checkup-report/audit.db", cfg.AuditDBPath())
	assert.Equal(t, "/home/user/.checkup-report/exports", cfg.ExportDir())
	assert.Equal(t, "/home/user/.checkup-report/audit.db", cfg.AuditConfig().SQLitePath)
}

func TestLiteConfig_EnsureDataDir(t *testing.T) {
	cfg := &LiteConfig{DataDir: filepath.Join(t.TempDir(), "checkup")}

	require.NoError(t, cfg.EnsureDataDir())

	_, err := os.Stat(cfg.DataDir)
	assert.NoError(t, err)
	_, err = os.Stat(cfg.ExportDir())
	assert.NoError(t, err)
}

func clearEnvVars(t *testing.T) {
	t.Helper()
	vars := []string{
		"CHECKUP_DATA_DIR",
		"CHECKUP_CSV_PATH",
		"CHECKUP_CURRENT_YEAR",
		"CHECKUP_FIRST_YEAR",
		"CHECKUP_BMI_SCALE",
		"CHECKUP_HOSPITAL_NAME",
		"CHECKUP_HOSPITAL_ADDRESS",
		"CHECKUP_AUDIT",
		"CHECKUP_SNAPSHOT_TTL",
		"CHECKUP_LOG_LEVEL",
		"CHECKUP_LOG_FORMAT",
	}
	for _, v := range vars {
		t.Setenv(v, "")
		os.Unsetenv(v)
	}
}
