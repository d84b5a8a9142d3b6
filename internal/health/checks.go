package health

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"github.com/checkup-report-server/internal/records"
)

// StatsProvider reports what the record snapshot currently holds
type StatsProvider interface {
	Stats() records.CacheStats
}

// SnapshotCheck reports the in-memory record snapshot
type SnapshotCheck struct {
	stats StatsProvider
}

// NewSnapshotCheck creates a snapshot check
func NewSnapshotCheck(stats StatsProvider) *SnapshotCheck {
	return &SnapshotCheck{stats: stats}
}

// Name implements Check
func (s *SnapshotCheck) Name() string {
	return "snapshot"
}

// Check implements Check. An expired snapshot is only a warning: the next lookup refetches.
func (s *SnapshotCheck) Check(_ context.Context) ComponentHealth {
	st := s.stats.Stats()
	meta := map[string]interface{}{
		"source": st.Source,
		"rows":   st.Rows,
	}
	if !st.Loaded {
		return ComponentHealth{
			Status:   StateWarning,
			Message:  "Snapshot expired, refreshed on next lookup",
			Metadata: meta,
		}
	}
	meta["fetched_at"] = st.FetchedAt
	meta["age_seconds"] = int64(time.Since(st.FetchedAt).Seconds())
	if st.Rows == 0 {
		return ComponentHealth{Status: StateUnhealthy, Message: "Snapshot holds no records", Metadata: meta}
	}
	return ComponentHealth{Status: StateHealthy, Message: "Snapshot loaded", Metadata: meta}
}

// PingCheck probes a dependency with a ping function
type PingCheck struct {
	name     string
	ping     func(ctx context.Context) error
	critical bool
}

// NewPingCheck creates a ping check. A failing critical dependency makes the service
// unhealthy; a failing optional one is a warning.
func NewPingCheck(name string, critical bool, ping func(ctx context.Context) error) *PingCheck {
	return &PingCheck{name: name, ping: ping, critical: critical}
}

// Name implements Check
func (p *PingCheck) Name() string {
	return p.name
}

// Check implements Check
func (p *PingCheck) Check(ctx context.Context) ComponentHealth {
	if err := p.ping(ctx); err != nil {
		status := StateWarning
		if p.critical {
			status = StateUnhealthy
		}
		return ComponentHealth{Status: status, Message: p.name + " unreachable", Error: err.Error()}
	}
	return ComponentHealth{Status: StateHealthy, Message: p.name + " reachable"}
}

// BreakerCheck reports a circuit breaker guarding an upstream
type BreakerCheck struct {
	name  string
	state func() gobreaker.State
}

// NewBreakerCheck creates a circuit breaker check
func NewBreakerCheck(name string, state func() gobreaker.State) *BreakerCheck {
	return &BreakerCheck{name: name, state: state}
}

// Name implements Check
func (b *BreakerCheck) Name() string {
	return b.name
}

// Check implements Check. An open breaker is a warning while the snapshot still serves.
func (b *BreakerCheck) Check(_ context.Context) ComponentHealth {
	st := b.state()
	meta := map[string]interface{}{"state": st.String()}
	switch st {
	case gobreaker.StateClosed:
		return ComponentHealth{Status: StateHealthy, Message: "Upstream reachable", Metadata: meta}
	case gobreaker.StateHalfOpen:
		return ComponentHealth{Status: StateWarning, Message: "Upstream recovering", Metadata: meta}
	default:
		return ComponentHealth{Status: StateWarning, Message: "Upstream failing, requests short-circuited", Metadata: meta}
	}
}
