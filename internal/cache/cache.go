// Package cache implements the fingerprint-keyed response cache that sits in
// front of the upstream gateway. Caching is strictly best-effort: a cache
// backend failure is logged and swallowed, never surfaced, and never
// prevents the underlying operation from completing.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/avidalm/iptvgate/internal/logging"
)

const keyPrefix = "cache:"

// Cache is a TTL cache backed by redis.
type Cache struct {
	client *goredis.Client
	logger logging.Logger
}

// New connects to redis and verifies the connection with a short ping, so a
// misconfigured backend is caught at startup rather than on first request.
func New(addr, password string, logger logging.Logger) (*Cache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Cache{client: client, logger: logger.With("module", "cache")}, nil
}

func (c *Cache) Close() error {
	return c.client.Close()
}

// Fingerprint derives the cache key for a logical operation: the route plus
// the canonical JSON form of its input. Identical inputs always map to the
// same key regardless of who sends them.
func Fingerprint(route string, body any) string {
	payload, err := json.Marshal(body)
	if err != nil {
		payload = []byte("{}")
	}
	sum := sha256.Sum256(append([]byte(route+":"), payload...))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// GetOrCompute returns the cached value for key if present and fresh;
// otherwise it invokes producer, stores the result with the given TTL
// (best-effort) and returns it. A nil *Cache disables caching entirely.
func GetOrCompute[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, producer func(ctx context.Context) (T, error)) (T, error) {
	if c == nil {
		return producer(ctx)
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		c.logger.Warn(ctx, "discarding undecodable cache entry", "key", key)
	} else if err != goredis.Nil {
		c.logger.Warn(ctx, "cache read failed", "key", key, "error", err.Error())
	}

	value, err := producer(ctx)
	if err != nil {
		return value, err
	}

	if data, err := json.Marshal(value); err == nil {
		if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
			c.logger.Warn(ctx, "cache write failed", "key", key, "error", err.Error())
		}
	}

	return value, nil
}
