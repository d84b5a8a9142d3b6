package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/checkup-report-server/internal/domain"
)

const redacted = "[REDACTED]"

// sensitiveFields are substrings of field names that carry patient identity
var sensitiveFields = []string{"national_id", "name", "patient", "citizen"}

// thirteen digits, optionally grouped 1-4-5-2-1 with dashes or spaces
var nationalIDPattern = regexp.MustCompile(`\b\d[- ]?\d{4}[- ]?\d{5}[- ]?\d{2}[- ]?\d\b`)

// New builds the process logger from configuration
func New(config domain.LoggingConfig) (*logrus.Logger, error) {
	logger := logrus.New()

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if config.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
		})
	}

	out, err := openOutput(config)
	if err != nil {
		return nil, err
	}
	logger.SetOutput(out)

	if config.PrivacyMode {
		logger.AddHook(NewPrivacyHook())
	}

	return logger, nil
}

func openOutput(config domain.LoggingConfig) (io.Writer, error) {
	switch config.Output {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	case "file":
		if config.Filename == "" {
			return nil, fmt.Errorf("logging.filename is required for file output")
		}
		if err := os.MkdirAll(filepath.Dir(config.Filename), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(config.Filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("unknown log output %q", config.Output)
	}
}

// PrivacyHook scrubs patient identifiers from entries before they are written
type PrivacyHook struct{}

// NewPrivacyHook creates a privacy hook
func NewPrivacyHook() *PrivacyHook {
	return &PrivacyHook{}
}

// Levels implements logrus.Hook
func (h *PrivacyHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire implements logrus.Hook
func (h *PrivacyHook) Fire(entry *logrus.Entry) error {
	entry.Message = MaskNationalIDs(entry.Message)

	for key, value := range entry.Data {
		if isSensitiveField(key) {
			entry.Data[key] = redacted
			continue
		}
		switch v := value.(type) {
		case string:
			entry.Data[key] = MaskNationalIDs(v)
		case error:
			entry.Data[key] = MaskNationalIDs(v.Error())
		}
	}
	return nil
}

// MaskNationalIDs replaces every 13-digit national ID number in s
func MaskNationalIDs(s string) string {
	return nationalIDPattern.ReplaceAllStringFunc(s, func(id string) string {
		digits := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, id)
		if len(digits) != 13 {
			return id
		}
		return "*********" + digits[9:]
	})
}

func isSensitiveField(field string) bool {
	field = strings.ToLower(field)
	if field == logrus.ErrorKey {
		return false
	}
	for _, sensitive := range sensitiveFields {
		if strings.Contains(field, sensitive) {
			return true
		}
	}
	return false
}
