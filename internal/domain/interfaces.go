package domain

import (
	"context"
)

// RecordSource fetches the complete checkup record set
type RecordSource interface {
	FetchRecords(ctx context.Context) ([]Record, error)
	Name() string
}

// RecordFinder looks up a single record by exact-match filters
type RecordFinder interface {
	Find(ctx context.Context, q PatientQuery) (Record, error)
}

// ReportRenderer turns a report model into display output
type ReportRenderer interface {
	Render(report *Report) ([]byte, error)
	ContentType() string
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetDatabaseConfig() *DatabaseConfig
	GetServerConfig() *ServerConfig
	Reload() error
	Validate() error
	GetDatabaseConnectionString() string
	GetRedisConnectionString() string
	IsProduction() bool
	IsDevelopment() bool
}

// ViewRecorder persists report-view audit entries
type ViewRecorder interface {
	RecordView(ctx context.Context, view *ReportView) error
}
