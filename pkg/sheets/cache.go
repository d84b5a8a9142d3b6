package sheets

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/checkup-report-server/internal/domain"
)

const keyPrefix = "checkup:sheet:"

// CacheClient shares downloaded sheet exports between server instances through Redis
type CacheClient struct {
	redis      *redis.Client
	defaultTTL time.Duration
}

// CachedSheet is a cached CSV export with metadata
type CachedSheet struct {
	Body      []byte    `json:"body"`
	CachedAt  time.Time `json:"cached_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewCacheClient creates a new cache client
func NewCacheClient(config domain.CacheConfig) (*CacheClient, error) {
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	if config.PoolSize > 0 {
		opts.PoolSize = config.PoolSize
	}
	if config.PoolTimeout > 0 {
		opts.PoolTimeout = config.PoolTimeout
	}
	opts.MaxRetries = config.MaxRetries

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	ttl := config.RedisTTL
	if ttl == 0 {
		ttl = config.SnapshotTTL
	}

	return &CacheClient{
		redis:      client,
		defaultTTL: ttl,
	}, nil
}

// GetSheet retrieves a cached export for the given sheet URL
func (c *CacheClient) GetSheet(ctx context.Context, sheetURL string) ([]byte, bool, error) {
	key := SheetKey(sheetURL)

	val, err := c.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get sheet cache: %w", err)
	}

	body, ok := decodeCachedSheet(val, time.Now())
	if !ok {
		// corrupted or stale
		c.redis.Del(ctx, key)
		return nil, false, nil
	}

	return body, true, nil
}

// SetSheet caches an export for the given sheet URL
func (c *CacheClient) SetSheet(ctx context.Context, sheetURL string, body []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}

	jsonData, err := encodeCachedSheet(body, time.Now(), ttl)
	if err != nil {
		return err
	}

	return c.redis.Set(ctx, SheetKey(sheetURL), jsonData, ttl).Err()
}

// InvalidateSheet drops the cached export for the given sheet URL
func (c *CacheClient) InvalidateSheet(ctx context.Context, sheetURL string) error {
	return c.redis.Del(ctx, SheetKey(sheetURL)).Err()
}

// Ping checks the Redis connection
func (c *CacheClient) Ping(ctx context.Context) error {
	return c.redis.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *CacheClient) Close() error {
	return c.redis.Close()
}

// SheetKey derives the Redis key for a sheet URL
func SheetKey(sheetURL string) string {
	sum := sha256.Sum256([]byte(sheetURL))
	return fmt.Sprintf("%s%x", keyPrefix, sum[:8])
}

func encodeCachedSheet(body []byte, now time.Time, ttl time.Duration) ([]byte, error) {
	cached := CachedSheet{
		Body:      body,
		CachedAt:  now,
		ExpiresAt: now.Add(ttl),
	}

	jsonData, err := json.Marshal(cached)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sheet cache data: %w", err)
	}
	return jsonData, nil
}

func decodeCachedSheet(raw []byte, now time.Time) ([]byte, bool) {
	var cached CachedSheet
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, false
	}
	if now.After(cached.ExpiresAt) {
		return nil, false
	}
	return cached.Body, true
}
