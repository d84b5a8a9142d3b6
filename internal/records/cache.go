package records

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"

	"github.com/checkup-report-server/internal/domain"
)

const (
	snapshotKey        = "snapshot"
	DefaultSnapshotTTL = 5 * time.Minute
)

// SnapshotCache keeps one shared snapshot of the record source and refreshes it after the TTL
type SnapshotCache struct {
	source domain.RecordSource
	lru    *expirable.LRU[string, *Snapshot]
	logger *logrus.Logger
	now    func() time.Time

	// serializes refreshes
	mu sync.Mutex
}

// CacheStats describes the snapshot currently held
type CacheStats struct {
	Source    string    `json:"source"`
	Rows      int       `json:"rows"`
	FetchedAt time.Time `json:"fetched_at,omitempty"`
	Loaded    bool      `json:"loaded"`
}

// NewSnapshotCache creates a snapshot cache over source
func NewSnapshotCache(source domain.RecordSource, ttl time.Duration, logger *logrus.Logger) *SnapshotCache {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &SnapshotCache{
		source: source,
		lru:    expirable.NewLRU[string, *Snapshot](1, nil, ttl),
		logger: logger,
		now:    time.Now,
	}
}

// Warm loads the first snapshot. An error or an empty record set means the service cannot start.
func (c *SnapshotCache) Warm(ctx context.Context) error {
	if _, err := c.refresh(ctx); err != nil {
		return fmt.Errorf("warming snapshot cache: %w", err)
	}
	return nil
}

// Get returns the live snapshot, fetching a new one when the previous has expired
func (c *SnapshotCache) Get(ctx context.Context) (*Snapshot, error) {
	if snap, ok := c.lru.Get(snapshotKey); ok {
		return snap, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// another caller may have refreshed while we waited
	if snap, ok := c.lru.Get(snapshotKey); ok {
		return snap, nil
	}
	return c.fetchLocked(ctx)
}

// Find looks a record up in the live snapshot
func (c *SnapshotCache) Find(ctx context.Context, q domain.PatientQuery) (domain.Record, error) {
	snap, err := c.Get(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Find(ctx, q)
}

// Invalidate drops the held snapshot so the next Get refetches
func (c *SnapshotCache) Invalidate() {
	c.lru.Purge()
}

// Stats reports on the held snapshot without triggering a fetch
func (c *SnapshotCache) Stats() CacheStats {
	stats := CacheStats{Source: c.source.Name()}
	if snap, ok := c.lru.Peek(snapshotKey); ok {
		stats.Loaded = true
		stats.Rows = snap.Len()
		stats.FetchedAt = snap.FetchedAt()
	}
	return stats
}

func (c *SnapshotCache) refresh(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetchLocked(ctx)
}

func (c *SnapshotCache) fetchLocked(ctx context.Context) (*Snapshot, error) {
	start := c.now()

	recs, err := c.source.FetchRecords(ctx)
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"source": c.source.Name(),
		}).WithError(err).Error("Failed to fetch record snapshot")
		return nil, fmt.Errorf("fetching from %s: %w: %w", c.source.Name(), domain.ErrDataSourceUnavailable, err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("fetching from %s: %w", c.source.Name(), domain.ErrEmptyDataSource)
	}

	snap := NewSnapshot(recs, c.source.Name(), c.now())
	c.lru.Add(snapshotKey, snap)

	c.logger.WithFields(logrus.Fields{
		"source":   c.source.Name(),
		"rows":     snap.Len(),
		"fetch_ms": c.now().Sub(start).Milliseconds(),
	}).Info("Record snapshot refreshed")

	return snap, nil
}
