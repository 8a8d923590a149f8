package middleware

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
)

// RateLimiter counts requests per client IP in fixed Redis windows.
type RateLimiter struct {
	rdb    *redis.Client
	limit  int64
	window time.Duration
}

// NewRateLimiter creates a rate limiter allowing limit requests per window
// seconds. A nil rdb or a non-positive limit disables limiting.
func NewRateLimiter(rdb *redis.Client, limit, windowSec int) *RateLimiter {
	return &RateLimiter{
		rdb:    rdb,
		limit:  int64(limit),
		window: time.Duration(windowSec) * time.Second,
	}
}

// Handler limits requests in the named bucket. Buckets are counted
// independently, so login attempts do not eat into the register allowance.
func (rl *RateLimiter) Handler(bucket string) fiber.Handler {
	return func(c fiber.Ctx) error {
		if rl.rdb == nil || rl.limit <= 0 {
			return c.Next()
		}

		key := "ratelimit:" + bucket + ":" + c.IP()
		ctx := c.Context()

		var hits *redis.IntCmd
		var ttl *redis.DurationCmd
		_, err := rl.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			hits = pipe.Incr(ctx, key)
			ttl = pipe.TTL(ctx, key)
			return nil
		})
		if err != nil {
			slog.Warn("rate limiter unavailable, allowing request", "bucket", bucket, "error", err)
			return c.Next()
		}

		// A key without a TTL opens a new window, including one whose
		// EXPIRE was lost after a failed request.
		window := ttl.Val()
		if window < 0 {
			if err := rl.rdb.Expire(ctx, key, rl.window).Err(); err != nil {
				slog.Warn("failed to start rate limit window", "key", key, "error", err)
			}
			window = rl.window
		}

		count := hits.Val()
		reset := strconv.Itoa(int(window.Seconds()))
		c.Set("X-RateLimit-Limit", strconv.FormatInt(rl.limit, 10))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(max(0, rl.limit-count), 10))
		c.Set("X-RateLimit-Reset", reset)

		if count > rl.limit {
			c.Set(fiber.HeaderRetryAfter, reset)
			return fiber.NewError(fiber.StatusTooManyRequests, "rate limit exceeded")
		}
		return c.Next()
	}
}
