package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisTracker implements Tracker on a Redis sorted set per endpoint key,
// scored by attempt time. Suitable when several client processes should
// share one advisory window (e.g. kiosk deployments behind one account).
type RedisTracker struct {
	client    *redis.Client
	window    time.Duration
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisTracker creates a Redis-backed tracker and verifies the connection.
func NewRedisTracker(cfg RedisConfig, window time.Duration) (*RedisTracker, error) {
	if window <= 0 {
		window = DefaultWindow
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisTracker{
		client:    client,
		window:    window,
		keyPrefix: "ratelimit:attempts:",
	}, nil
}

// NewRedisTrackerWithClient creates a tracker with an existing Redis client.
// This is useful for testing or when sharing a client across components.
func NewRedisTrackerWithClient(client *redis.Client, window time.Duration, keyPrefix string) *RedisTracker {
	if window <= 0 {
		window = DefaultWindow
	}
	if keyPrefix == "" {
		keyPrefix = "ratelimit:attempts:"
	}
	return &RedisTracker{client: client, window: window, keyPrefix: keyPrefix}
}

// RecordAttempt adds the current timestamp to the endpoint's sorted set and
// prunes entries older than the window in the same pipeline.
func (t *RedisTracker) RecordAttempt(ctx context.Context, endpointKey string) error {
	key := t.keyPrefix + endpointKey
	now := time.Now()
	cutoff := now.Add(-t.window)

	pipe := t.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: strconv.FormatInt(now.UnixNano(), 10),
	})
	pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(cutoff.UnixNano(), 10))
	pipe.Expire(ctx, key, t.window)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}
	return nil
}

// IsLimited prunes the window, then compares the remaining cardinality
// against the limit.
func (t *RedisTracker) IsLimited(ctx context.Context, endpointKey string, limit int) (bool, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	key := t.keyPrefix + endpointKey
	cutoff := time.Now().Add(-t.window)

	if err := t.client.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(cutoff.UnixNano(), 10)).Err(); err != nil {
		return false, fmt.Errorf("failed to prune attempt window: %w", err)
	}

	count, err := t.client.ZCard(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to count attempts: %w", err)
	}
	return count >= int64(limit), nil
}

// Close closes the Redis client.
func (t *RedisTracker) Close() error {
	return t.client.Close()
}

var _ Tracker = (*RedisTracker)(nil)
