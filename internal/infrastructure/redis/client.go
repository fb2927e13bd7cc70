package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ClientOptions tunes the connection on top of what the URL carries.
type ClientOptions struct {
	DialTimeout time.Duration
	PoolSize    int
}

// NewClient creates a Redis client from a redis:// URL and verifies it answers PING.
func NewClient(ctx context.Context, redisURL string, opts ClientOptions) (*redis.Client, error) {
	parsed, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	if opts.DialTimeout > 0 {
		parsed.DialTimeout = opts.DialTimeout
	}
	if opts.PoolSize > 0 {
		parsed.PoolSize = opts.PoolSize
	}

	client := redis.NewClient(parsed)

	if err := HealthCheck(ctx, client); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

// HealthCheck pings the server.
func HealthCheck(ctx context.Context, client *redis.Client) error {
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}
	return nil
}
