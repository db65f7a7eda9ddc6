package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Client wraps the few redis commands the pricer needs: byte values with
// a TTL for the quote cache and counters for rate limiting.
type Client struct {
	client *redis.Client
}

func New(addr, password string, db int) *Client {
	return &Client{
		client: redis.NewClient(&redis.Options{
			Addr:         addr,
			Password:     password,
			DB:           db,
			PoolSize:     100,
			MinIdleConns: 10,
		}),
	}
}

// Connect creates a client and waits until the server answers PING.
func Connect(ctx context.Context, addr, password string, db int, logger *zap.Logger) (*Client, error) {
	const operation = "redis.Connect"

	c := New(addr, password, db)

	retryPolicy := backoff.NewExponentialBackOff()
	retryPolicy.MaxElapsedTime = time.Minute
	retryPolicy.MaxInterval = 10 * time.Second

	attempts := 0
	err := backoff.RetryNotify(
		func() error {
			attempts++
			return c.Ping(ctx)
		},
		backoff.WithContext(retryPolicy, ctx),
		func(err error, duration time.Duration) {
			logger.Warn("Redis ping failed, retrying...",
				zap.String("addr", addr),
				zap.Int("attempt", attempts),
				zap.Error(err),
				zap.Duration("next_attempt_in", duration))
		},
	)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("%s: %s unreachable after %d attempts: %w", operation, addr, attempts, err)
	}

	logger.Info("Connected to Redis", zap.String("addr", addr), zap.Int("db", db))
	return c, nil
}

// IsNil reports whether err means the key does not exist.
func IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Get returns redis.Nil for a missing key; test it with IsNil.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	return c.client.Get(ctx, key).Bytes()
}

func (c *Client) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, data, ttl).Err()
}

// RateLimit counts one hit for key in a fixed window starting at the first
// hit and reports whether the count now exceeds limit.
func (c *Client) RateLimit(ctx context.Context, key string, limit int64, window time.Duration) (bool, error) {
	count, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	if count == 1 {
		if err := c.client.Expire(ctx, key, window).Err(); err != nil {
			return false, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	return count > limit, nil
}

func (c *Client) Close() {
	if c.client != nil {
		_ = c.client.Close()
	}
}
