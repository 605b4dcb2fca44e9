package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Pesokrava/perfume_storefront/internal/config"
	"github.com/Pesokrava/perfume_storefront/internal/pkg/logger"
)

const pingTimeout = 5 * time.Second

// NewRedisClient creates a Redis client and verifies it answers PING
func NewRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.GetRedisAddr(), err)
	}

	return client, nil
}

// WaitForRedis retries NewRedisClient until it succeeds, attempts run out or ctx ends
func WaitForRedis(ctx context.Context, cfg *config.Config, attempts int, delay time.Duration, log *logger.Logger) (*redis.Client, error) {
	var lastErr error

	for i := 1; i <= attempts; i++ {
		client, err := NewRedisClient(ctx, cfg)
		if err == nil {
			return client, nil
		}
		lastErr = err

		if i == attempts {
			break
		}
		log.Warnf("Redis not ready (attempt %d/%d): %v", i, attempts, err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("redis unavailable after %d attempts: %w", attempts, lastErr)
}
