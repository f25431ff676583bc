// Package cache provides a small Redis-backed cache with JSON serialization.
// StreamLink uses it for data that is expensive to fetch and safe to serve
// slightly stale, such as a user's YouTube stream history.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Cache wraps a Redis client and stores values as JSON.
type Cache struct {
	client *redis.Client
}

// NewCache creates a cache on top of an existing Redis client.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Get unmarshals the cached value at key into target.
// Returns ErrCacheMiss if the key doesn't exist.
//
// Example:
//
//	var videos []models.Video
//	err := c.Get(ctx, cache.VideoHistoryKey(userID), &videos)
//	if errors.Is(err, cache.ErrCacheMiss) {
//	    // fetch from YouTube
//	}
func (c *Cache) Get(ctx context.Context, key string, target interface{}) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		log.Error().Err(err).Str("key", key).Msg("Failed to get from cache")
		return fmt.Errorf("cache get error: %w", err)
	}

	if err := json.Unmarshal(data, target); err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to unmarshal cached data")
		return fmt.Errorf("unmarshal error: %w", err)
	}

	return nil
}

// Set stores value as JSON with the given TTL.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to set cache")
		return fmt.Errorf("cache set error: %w", err)
	}

	log.Debug().Str("key", key).Dur("ttl", ttl).Msg("Cached data")
	return nil
}

// Delete removes keys. Deleting a missing key is not an error.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		log.Error().Err(err).Strs("keys", keys).Msg("Failed to delete from cache")
		return fmt.Errorf("%w: %w", ErrCacheInvalidation, err)
	}

	return nil
}

// GetOrSet is the cache-aside helper: on a miss it calls loader, caches the
// result and decodes it into target. Loader errors are returned unwrapped so
// callers can still match their sentinel errors. A failing cache never hides
// a successful load.
//
// Example:
//
//	var videos []models.Video
//	err := c.GetOrSet(ctx, cache.VideoHistoryKey(userID), 5*time.Minute, &videos, func() (interface{}, error) {
//	    return fetchFromYouTube(ctx)
//	})
func (c *Cache) GetOrSet(ctx context.Context, key string, ttl time.Duration, target interface{}, loader func() (interface{}, error)) error {
	err := c.Get(ctx, key, target)
	if err == nil {
		log.Debug().Str("key", key).Msg("Cache hit")
		return nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		log.Warn().Err(err).Str("key", key).Msg("Cache unavailable, loading directly")
	}

	data, err := loader()
	if err != nil {
		return err
	}

	if err := c.Set(ctx, key, data, ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to cache loaded data")
	}

	// Round-trip through JSON so target has the same shape as a cache hit.
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("unmarshal error: %w", err)
	}

	return nil
}
