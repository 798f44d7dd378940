package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultLedgerTTL bounds how stale a cached ledger may be
const DefaultLedgerTTL = 5 * time.Minute

// ErrMiss is returned when a key is absent or expired
var ErrMiss = errors.New("cache miss")

// RedisCache stores JSON documents in Redis with a fixed TTL
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a cache over an existing client
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultLedgerTTL
	}
	return &RedisCache{
		client: client,
		ttl:    ttl,
	}
}

// LedgerKey is the key a ledger from the named source is stored under.
// location tells apart sheets, files or tables of the same source.
func LedgerKey(source, location string) string {
	if location == "" {
		return fmt.Sprintf("ledger:%s", source)
	}
	return fmt.Sprintf("ledger:%s:%s", source, location)
}

// WriteJSON stores v under key
func (c *RedisCache) WriteJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", key, err)
	}

	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// ReadJSON decodes the document under key into v
func (c *RedisCache) ReadJSON(ctx context.Context, key string, v any) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", key, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshaling %s: %w", key, err)
	}

	return nil
}

// Ping checks Redis connectivity
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
