package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vietddude/salvage/internal/core/domain"
)

const defaultSnapshotTTL = 24 * time.Hour

// Client wraps Redis as the fast snapshot cache.
type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

// Config holds Redis connection configuration.
type Config struct {
	URL                string `yaml:"url"`
	Password           string `yaml:"password"`
	SnapshotTTLSeconds int    `yaml:"snapshot_ttl_seconds"`
}

// NewClient creates a new Redis client.
func NewClient(cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ttl := time.Duration(cfg.SnapshotTTLSeconds) * time.Second
	if ttl == 0 {
		ttl = defaultSnapshotTTL
	}

	return &Client{rdb: rdb, ttl: ttl}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Health checks if Redis is reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func snapshotKey(batchID string) string {
	return fmt.Sprintf("batch_snapshot:%s", batchID)
}

// Restore retrieves the cached snapshot for a batch, (nil, nil) on a miss.
func (c *Client) Restore(ctx context.Context, batchID string) (*domain.PersistedSnapshot, error) {
	data, err := c.rdb.Get(ctx, snapshotKey(batchID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get failed: %w", err)
	}

	var snap domain.PersistedSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("corrupt cached snapshot: %w", err)
	}
	return &snap, nil
}

// Save caches a snapshot under the configured TTL.
func (c *Client) Save(ctx context.Context, snap *domain.PersistedSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := c.rdb.Set(ctx, snapshotKey(snap.BatchID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set failed: %w", err)
	}
	return nil
}

// Delete evicts the cached snapshot for a batch.
func (c *Client) Delete(ctx context.Context, batchID string) error {
	return c.rdb.Del(ctx, snapshotKey(batchID)).Err()
}
