package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/PaywallBridge/internal/pkg/env"
)

var (
	client *redis.Client
	ctx    = context.Background()
)

// SetupCache initializes the connection to the Redis snapshot cache
func SetupCache() {
	host := env.GetEnv("CACHE_HOST", "localhost")
	port := env.GetEnv("CACHE_PORT", "6379")
	db, err := strconv.Atoi(env.GetEnv("CACHE_DB", "0"))
	if err != nil {
		db = 0
	}

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		DB:       db,
	})

	// Test the connection
	pong, err := client.Ping(ctx).Result()
	if err != nil {
		log.Warnf("[SnapshotCache] Could not connect to Redis: %v", err)
	} else {
		log.Infof("[SnapshotCache] Successfully connected to Redis: %s", pong)
	}
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	if client == nil {
		SetupCache()
	}
	return client
}

// Enabled reports whether snapshots should be kept in Redis instead of
// process memory.
func Enabled() bool {
	return env.GetEnv("CACHE_ENABLED", "false") == "true"
}

// Ready reports whether the cache is enabled and answers within timeout. An
// enabled cache that does not answer is closed again, so callers fall back to
// process memory.
func Ready(timeout time.Duration) bool {
	if !Enabled() {
		return false
	}
	c, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := Ping(c); err != nil {
		log.Warnf("[SnapshotCache] Cache enabled but unreachable, keeping state in memory: %v", err)
		_ = Close()
		return false
	}
	return true
}

// Connected reports whether a client is set up and not closed.
func Connected() bool {
	return client != nil
}

// Ping checks that the cache answers.
func Ping(c context.Context) error {
	return GetClient().Ping(c).Err()
}

// Close releases the shared client.
func Close() error {
	if client == nil {
		return nil
	}
	err := client.Close()
	client = nil
	return err
}
