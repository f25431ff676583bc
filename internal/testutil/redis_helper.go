package testutil

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/ieraasyl/StreamLink/internal/database"
	"github.com/redis/go-redis/v9"
)

// SetupMiniRedis starts a miniredis server that is stopped when the test ends.
func SetupMiniRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	return miniredis.RunT(t)
}

// NewTestRedisClient creates a Redis client connected to miniredis.
func NewTestRedisClient(t *testing.T, mr *miniredis.Miniredis) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return client
}

// NewTestRedisDB creates a RedisDB connected to miniredis.
func NewTestRedisDB(t *testing.T, mr *miniredis.Miniredis) *database.RedisDB {
	t.Helper()
	return database.NewRedisDBFromClient(NewTestRedisClient(t, mr))
}
