package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go-form-mailer/internal/delivery/http/response"
	"go-form-mailer/pkg/logger"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	// Requests per window
	Limit int
	// Time window duration
	Window time.Duration
	// Custom key extractor (default: IP-based)
	KeyFunc func(*gin.Context) string
	// Key prefix for Redis (default: "rl:submit:")
	KeyPrefix string
	// Whether to fail closed (reject) when Redis errors
	FailClosed bool
}

// rateLimitEntry tracks request count for a key (in-memory fallback)
type rateLimitEntry struct {
	count   int
	resetAt time.Time
	removed bool // set by sweep; holders of a stale pointer must reload
	mu      sync.Mutex
}

// Lua script for atomic increment with TTL on first set
// KEYS[1] = counter key
// ARGV[1] = TTL in seconds
// Returns: [current_count, ttl_remaining]
const rateLimitLuaScript = `
local count = redis.call('INCR', KEYS[1])
if count == 1 then
    redis.call('EXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('TTL', KEYS[1])
return {count, ttl}
`

// SubmitRateLimitConfig returns the per-IP limit for the public submission endpoints
func SubmitRateLimitConfig(limit int, window time.Duration) RateLimitConfig {
	if limit <= 0 {
		limit = 20
	}
	if window <= 0 {
		window = time.Minute
	}
	return RateLimitConfig{
		Limit:      limit,
		Window:     window,
		KeyPrefix:  "rl:submit:",
		FailClosed: false, // Fail open: a Redis outage must not take the forms down
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	}
}

// RateLimiter counts requests per key in Redis, or in memory when no client is given
type RateLimiter struct {
	config    RateLimitConfig
	redis     *goredis.Client
	entries   sync.Map
	sweepMu   sync.Mutex
	nextSweep time.Time
	onLimited func(endpoint string)
}

// NewRateLimiter creates a limiter; client may be nil
func NewRateLimiter(config RateLimitConfig, client *goredis.Client) *RateLimiter {
	if config.KeyFunc == nil {
		config.KeyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}
	return &RateLimiter{config: config, redis: client}
}

// OnLimited registers a callback invoked for every rejected request
func (rl *RateLimiter) OnLimited(f func(endpoint string)) *RateLimiter {
	rl.onLimited = f
	return rl
}

// Middleware enforces the limit and sets X-RateLimit-* headers
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		fullKey := rl.config.KeyPrefix + rl.config.KeyFunc(c)
		now := time.Now()

		var count int
		var resetAt time.Time

		if rl.redis != nil {
			var err error
			count, resetAt, err = rl.checkRedis(c.Request.Context(), fullKey)
			if err != nil {
				logger.Log.Warn("Rate limit backend error", "error", err, "fail_closed", rl.config.FailClosed)
				if rl.config.FailClosed {
					response.Error(c, http.StatusServiceUnavailable, "Service temporarily unavailable. Please try again.")
					c.Abort()
					return
				}
				count, resetAt = rl.checkInMemory(fullKey, now)
			}
		} else {
			count, resetAt = rl.checkInMemory(fullKey, now)
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.config.Limit))
		c.Header("X-RateLimit-Reset", resetAt.Format(time.RFC3339))

		if count > rl.config.Limit {
			retryAfter := int(time.Until(resetAt).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			logger.Log.Warn("Rate limit exceeded", "ip", c.ClientIP(), "endpoint", c.FullPath())
			if rl.onLimited != nil {
				rl.onLimited(c.FullPath())
			}

			response.Error(c, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(max(rl.config.Limit-count, 0)))
		c.Next()
	}
}

// checkRedis checks rate limit using Redis with atomic Lua script
func (rl *RateLimiter) checkRedis(ctx context.Context, key string) (int, time.Time, error) {
	ttlSeconds := int(rl.config.Window.Seconds())

	result, err := rl.redis.Eval(ctx, rateLimitLuaScript, []string{key}, ttlSeconds).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis rate limit eval failed: %w", err)
	}

	arr, ok := result.([]interface{})
	if !ok || len(arr) < 2 {
		return 0, time.Time{}, fmt.Errorf("unexpected redis result format")
	}

	count, _ := arr[0].(int64)
	ttl, _ := arr[1].(int64)

	return int(count), time.Now().Add(time.Duration(ttl) * time.Second), nil
}

// checkInMemory checks rate limit using the in-memory store (fallback)
func (rl *RateLimiter) checkInMemory(key string, now time.Time) (int, time.Time) {
	rl.sweep(now)

	for {
		entryI, _ := rl.entries.LoadOrStore(key, &rateLimitEntry{
			resetAt: now.Add(rl.config.Window),
		})
		entry := entryI.(*rateLimitEntry)

		entry.mu.Lock()
		if entry.removed {
			entry.mu.Unlock()
			rl.entries.CompareAndDelete(key, entry)
			continue
		}

		// Reset if window expired
		if now.After(entry.resetAt) {
			entry.count = 0
			entry.resetAt = now.Add(rl.config.Window)
		}

		entry.count++
		count, resetAt := entry.count, entry.resetAt
		entry.mu.Unlock()
		return count, resetAt
	}
}

// sweep drops expired entries at most once per window
func (rl *RateLimiter) sweep(now time.Time) {
	rl.sweepMu.Lock()
	if now.Before(rl.nextSweep) {
		rl.sweepMu.Unlock()
		return
	}
	rl.nextSweep = now.Add(rl.config.Window)
	rl.sweepMu.Unlock()

	rl.entries.Range(func(key, value interface{}) bool {
		entry := value.(*rateLimitEntry)
		entry.mu.Lock()
		if now.After(entry.resetAt) {
			entry.removed = true
			rl.entries.CompareAndDelete(key, entry)
		}
		entry.mu.Unlock()
		return true
	})
}
