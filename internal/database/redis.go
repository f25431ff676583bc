package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ieraasyl/StreamLink/internal/models"
	"github.com/ieraasyl/StreamLink/pkg/cache"
	"github.com/ieraasyl/StreamLink/pkg/config"
	"github.com/ieraasyl/StreamLink/pkg/utils"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisDB wraps a Redis client. It stores the server-side session records
// that carry OAuth tokens, and the rate limit counters.
//
// Key patterns are defined in pkg/cache (SessionKey, RateLimitKey).
type RedisDB struct {
	client *redis.Client
}

// NewRedisDB connects to Redis, retrying with exponential backoff.
//
// Example:
//
//	redisDB, err := database.NewRedisDB(&cfg.Redis)
//	if err != nil {
//	    log.Fatal().Err(err).Msg("Redis connection failed")
//	}
//	defer redisDB.Close()
func NewRedisDB(cfg *config.RedisConfig) (*RedisDB, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := utils.Retry(ctx, utils.ConnectRetryConfig(), func() error {
		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		defer pingCancel()

		if err := client.Ping(pingCtx).Err(); err != nil {
			log.Warn().Err(err).Msg("Failed to ping Redis, retrying...")
			return err
		}
		return nil
	})
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info().Msg("Successfully connected to Redis")

	return &RedisDB{client: client}, nil
}

// NewRedisDBFromClient wraps an existing client (miniredis in tests).
func NewRedisDBFromClient(client *redis.Client) *RedisDB {
	return &RedisDB{client: client}
}

// Close closes the Redis connection.
func (r *RedisDB) Close() error {
	return r.client.Close()
}

// Client returns the underlying client, shared with pkg/cache.
func (r *RedisDB) Client() *redis.Client {
	return r.client
}

// Ping checks that Redis is reachable.
func (r *RedisDB) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// SaveSessionRecord stores the server-side part of a session. The record
// expires together with the session cookie.
//
// Key pattern: "session:{sessionID}"
func (r *RedisDB) SaveSessionRecord(ctx context.Context, sessionID string, record *models.SessionRecord, ttl time.Duration) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal session record: %w", err)
	}

	if err := r.client.Set(ctx, cache.SessionKey(sessionID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session record: %w", err)
	}
	return nil
}

// GetSessionRecord returns the stored record, or (nil, nil) when it has
// expired or was revoked.
func (r *RedisDB) GetSessionRecord(ctx context.Context, sessionID string) (*models.SessionRecord, error) {
	data, err := r.client.Get(ctx, cache.SessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session record: %w", err)
	}

	var record models.SessionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session record: %w", err)
	}
	return &record, nil
}

// DeleteSessionRecord removes a session record. Deleting a missing record
// is not an error.
func (r *RedisDB) DeleteSessionRecord(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, cache.SessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session record: %w", err)
	}
	return nil
}

// IncrementRateLimit increments the counter for an IP and endpoint and
// returns the new value. The window starts with the first request.
//
// Key pattern: "ratelimit:{ip}:{endpoint}"
func (r *RedisDB) IncrementRateLimit(ctx context.Context, ip, endpoint string, window time.Duration) (int64, error) {
	key := cache.RateLimitKey(ip, endpoint)

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment rate limit: %w", err)
	}

	if count == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return count, fmt.Errorf("failed to set rate limit expiry: %w", err)
		}
	}

	return count, nil
}
