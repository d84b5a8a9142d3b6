package health

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/checkup-report-server/internal/records"
)

type fixedStats records.CacheStats

func (f fixedStats) Stats() records.CacheStats { return records.CacheStats(f) }

func newTestChecker() *Checker {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewChecker("test", time.Second, logger)
}

func ok(context.Context) error { return nil }

func TestChecker_AllHealthy(t *testing.T) {
	h := newTestChecker()
	h.Register(NewSnapshotCheck(fixedStats{Source: "sheet", Rows: 10, Loaded: true, FetchedAt: time.Now()}))
	h.Register(NewPingCheck("database", true, ok))
	h.Register(NewBreakerCheck("sheet_breaker", func() gobreaker.State { return gobreaker.StateClosed }))

	status := h.Run(context.Background())

	assert.Equal(t, StateHealthy, status.Overall)
	assert.Equal(t, "test", status.Version)
	require.Len(t, status.Components, 3)
	assert.Equal(t, 10, status.Components["snapshot"].Metadata["rows"])
	assert.Empty(t, status.Failing())
	assert.Equal(t, []string{"snapshot", "database", "sheet_breaker"}, h.Names())
}

func TestChecker_Aggregation(t *testing.T) {
	tests := []struct {
		name     string
		checks   []Check
		expected State
		failing  []string
	}{
		{
			name: "optional dependency down is a warning",
			checks: []Check{
				NewPingCheck("redis", false, func(context.Context) error { return errors.New("refused") }),
				NewPingCheck("database", true, ok),
			},
			expected: StateWarning,
			failing:  []string{"redis"},
		},
		{
			name: "critical dependency down is unhealthy",
			checks: []Check{
				NewPingCheck("redis", false, func(context.Context) error { return errors.New("refused") }),
				NewPingCheck("database", true, func(context.Context) error { return errors.New("refused") }),
			},
			expected: StateUnhealthy,
			failing:  []string{"database", "redis"},
		},
		{
			name:     "expired snapshot is a warning",
			checks:   []Check{NewSnapshotCheck(fixedStats{Source: "sheet"})},
			expected: StateWarning,
			failing:  []string{"snapshot"},
		},
		{
			name:     "empty snapshot is unhealthy",
			checks:   []Check{NewSnapshotCheck(fixedStats{Source: "sheet", Loaded: true, FetchedAt: time.Now()})},
			expected: StateUnhealthy,
			failing:  []string{"snapshot"},
		},
		{
			name:     "open breaker is a warning",
			checks:   []Check{NewBreakerCheck("sheet_breaker", func() gobreaker.State { return gobreaker.StateOpen })},
			expected: StateWarning,
			failing:  []string{"sheet_breaker"},
		},
		{
			name:     "no checks",
			expected: StateHealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestChecker()
			for _, c := range tt.checks {
				h.Register(c)
			}
			status := h.Run(context.Background())
			assert.Equal(t, tt.expected, status.Overall)
			assert.Equal(t, tt.failing, status.Failing())
		})
	}
}

func TestChecker_Timeout(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	h := NewChecker("test", 20*time.Millisecond, logger)
	h.Register(NewPingCheck("slow", true, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	status := h.Run(context.Background())

	assert.Equal(t, StateUnhealthy, status.Overall)
	assert.Equal(t, context.DeadlineExceeded.Error(), status.Components["slow"].Error)
}
