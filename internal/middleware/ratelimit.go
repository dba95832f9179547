package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/eventix/internal/metrics"
	"github.com/redis/go-redis/v9"
)

const rateLimitKeyPrefix = "ratelimit:"

// RateLimitStore is the subset of the Redis client the limiter needs.
type RateLimitStore interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RateLimit allows limit requests per window for each caller, keyed by user
// when authenticated and by client IP otherwise. Counters live in Redis so
// every replica shares them.
func RateLimit(store RateLimitStore, scope string, limit int, window time.Duration, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit <= 0 {
			c.Next()
			return
		}

		identity := "ip:" + c.ClientIP()
		if user, ok := CurrentUser(c); ok {
			identity = "user:" + user.UserID
		}
		key := rateLimitKeyPrefix + scope + ":" + identity
		ctx := c.Request.Context()

		count, err := store.Incr(ctx, key).Result()
		if err != nil {
			logger.Warn("Rate limiter unavailable", "scope", scope, "error", err)
			c.Next()
			return
		}
		if count == 1 {
			if err := store.Expire(ctx, key, window).Err(); err != nil {
				logger.Warn("Failed to set rate limit window", "key", key, "error", err)
			}
		}

		remaining := int64(limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(limit) {
			metrics.RateLimited(scope)
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}
