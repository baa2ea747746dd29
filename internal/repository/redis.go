package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"spotbnb/internal/config"

	"github.com/redis/go-redis/v9"
)

const (
	revokedKeyPrefix   = "spotbnb:revoked:"
	rateLimitKeyPrefix = "spotbnb:rate_limit:"
)

// RedisSessionStore keeps session state in Redis so it survives restarts
// and is shared between API instances.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisClient builds a Redis client from configuration.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

var errNilClient = errors.New("redis client is nil")

func (r *RedisSessionStore) RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if r.client == nil {
		return errNilClient
	}
	if ttl <= 0 {
		// already expired, nothing to remember
		return nil
	}
	if err := r.client.Set(ctx, revokedKeyPrefix+tokenID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token in redis: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if r.client == nil {
		return false, errNilClient
	}
	n, err := r.client.Exists(ctx, revokedKeyPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check revoked token: %w", err)
	}
	return n > 0, nil
}

// CheckRateLimit counts one attempt for key and reports whether it is within limit.
func (r *RedisSessionStore) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.client == nil {
		return false, errNilClient
	}
	redisKey := rateLimitKeyPrefix + key
	count, err := r.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}

	if count == 1 {
		if err := r.client.Expire(ctx, redisKey, window).Err(); err != nil {
			return false, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	return count <= int64(limit), nil
}

func (r *RedisSessionStore) ResetRateLimit(ctx context.Context, key string) error {
	if r.client == nil {
		return errNilClient
	}
	if err := r.client.Del(ctx, rateLimitKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to reset rate limit: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
