package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/checkup-report-server/internal/domain"
)

func TestNew(t *testing.T) {
	logger, err := New(domain.LoggingConfig{Level: "debug", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	logger, err = New(domain.LoggingConfig{Level: "nonsense", Format: "text"})
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "server.log")
	_, err := New(domain.LoggingConfig{Level: "info", Output: "file", Filename: path})
	require.NoError(t, err)
	assert.FileExists(t, path)

	_, err = New(domain.LoggingConfig{Output: "file"})
	assert.Error(t, err)

	_, err = New(domain.LoggingConfig{Output: "syslog"})
	assert.Error(t, err)
}

func TestMaskNationalIDs(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"lookup 1509900000001 failed", "lookup *********0001 failed"},
		{"id 1-5099-00000-01-2", "id *********0012"},
		{"hn 650001 only", "hn 650001 only"},
		{"long 15099000000012345", "long 15099000000012345"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, MaskNationalIDs(tt.in))
	}
}

func TestPrivacyHook(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.AddHook(NewPrivacyHook())

	logger.WithFields(logrus.Fields{
		"national_id":  "1509900000001",
		"patient_name": "สมชาย ใจดี",
		"hn":           "650001",
		"query":        "id=1509900000001",
	}).WithError(errors.New("no row for 1509900000001")).Info("Lookup for 1509900000001")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, redacted, entry["national_id"])
	assert.Equal(t, redacted, entry["patient_name"])
	assert.Equal(t, "650001", entry["hn"])
	assert.Equal(t, "id=*********0001", entry["query"])
	assert.Equal(t, "no row for *********0001", entry["error"])
	assert.Equal(t, "Lookup for *********0001", entry["msg"])
	assert.NotContains(t, buf.String(), "1509900000001")
}
