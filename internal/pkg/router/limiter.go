package router

import (
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/storage/redis"

	"github.com/ManuelReschke/PaywallBridge/internal/pkg/cache"
	"github.com/ManuelReschke/PaywallBridge/internal/pkg/env"
)

const (
	defaultRateLimitMax    = 120
	defaultRateLimitWindow = time.Minute
	// rate limit counters live apart from the snapshot database
	limiterDatabase = 2
)

// limiterConfig builds the per-IP limiter for the API group. Counters are
// shared through Redis when the cache is enabled so every instance sees the
// same window.
func limiterConfig() limiter.Config {
	limit, err := strconv.Atoi(env.GetEnv("RATE_LIMIT_MAX", strconv.Itoa(defaultRateLimitMax)))
	if err != nil || limit <= 0 {
		limit = defaultRateLimitMax
	}
	window, err := time.ParseDuration(env.GetEnv("RATE_LIMIT_WINDOW", defaultRateLimitWindow.String()))
	if err != nil || window <= 0 {
		window = defaultRateLimitWindow
	}

	cfg := limiter.Config{
		Max:        limit,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"code":    "rate_limited",
				"message": "too many requests",
			})
		},
	}
	if cache.Enabled() && cache.Connected() {
		cfg.Storage = limiterStorage()
	}
	return cfg
}

func limiterStorage() fiber.Storage {
	// Get Redis client configuration from existing cache setup
	cacheClient := cache.GetClient()
	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")

	addr := cacheClient.Options().Addr
	if h, p, err := net.SplitHostPort(addr); err == nil {
		host = h
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}
	// Prefer password from the underlying client if present
	if p := cacheClient.Options().Password; p != "" {
		password = p
	}

	log.Infof("[Router] Rate limiter backed by Redis at %s:%d/%d", host, port, limiterDatabase)
	return redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: limiterDatabase,
		Reset:    false,
	})
}
