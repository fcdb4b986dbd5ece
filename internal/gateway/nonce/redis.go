package nonce

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures the shared registry.
type RedisConfig struct {
	// Client is the Redis client instance.
	Client redis.UniversalClient

	// KeyPrefix is the prefix for all nonce keys.
	// Default: "gateway:nonce:"
	KeyPrefix string
}

// Redis is a Registry shared by every gateway instance. Each record is a
// key written with SET NX, so the first writer wins cluster-wide; Redis key
// expiry does the pruning.
type Redis struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedis creates a Redis-backed registry.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "gateway:nonce:"
	}
	return &Redis{client: cfg.Client, keyPrefix: cfg.KeyPrefix}, nil
}

// NewRedisFromURL parses a redis:// URL and builds the client for it.
func NewRedisFromURL(url, keyPrefix string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("cant parse redis url: %w", err)
	}
	return NewRedis(RedisConfig{Client: redis.NewClient(opts), KeyPrefix: keyPrefix})
}

// key length-prefixes the partner id so ids and nonces containing ":"
// cannot collide across partners.
func (r *Redis) key(partnerID, nonce string) string {
	return r.keyPrefix + strconv.Itoa(len(partnerID)) + ":" + partnerID + ":" + nonce
}

// CheckAndConsume implements Registry.
func (r *Redis) CheckAndConsume(ctx context.Context, partnerID, nonce string, expiresAt, now time.Time) error {
	if partnerID == "" || nonce == "" {
		return ErrInvalid
	}

	// Keep the key at least one second past exp: redis expiry has second
	// granularity on some deployments and the record must stay live while
	// expiresAt >= now.
	ttl := expiresAt.Sub(now) + time.Second
	if ttl < time.Second {
		ttl = time.Second
	}

	ok, err := r.client.SetNX(ctx, r.key(partnerID, nonce), expiresAt.Unix(), ttl).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !ok {
		return ErrReplayed
	}
	return nil
}

// Prune implements Registry. Redis expires keys on its own.
func (r *Redis) Prune(context.Context, time.Time) (int, error) { return 0, nil }

// Ping implements Registry.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Close closes the underlying client.
func (r *Redis) Close() error { return r.client.Close() }
