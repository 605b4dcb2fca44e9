package cache

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/Pesokrava/perfume_storefront/internal/domain"
)

const stateKeyPrefix = "state:"

// RedisStateStore implements domain.StateStore on Redis strings without expiry
type RedisStateStore struct {
	client *redis.Client
}

// NewRedisStateStore creates a new Redis-backed state store
func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{client: client}
}

// Get retrieves the value stored under key
func (s *RedisStateStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, stateKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return val, nil
}

// Set stores value under key
func (s *RedisStateStore) Set(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, stateKeyPrefix+key, value, 0).Err()
}

// Delete removes key
func (s *RedisStateStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, stateKeyPrefix+key).Err()
}
