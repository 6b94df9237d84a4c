package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/wanderlust/wanderlust/logger"
	"github.com/wanderlust/wanderlust/util/common"
)

const rateLimitMessage = "Too many attempts. Please try again later."

// RateLimitConfig configures rate limiting
type RateLimitConfig struct {
	Client            *redis.Client
	RequestsPerMinute int
	KeyFunc           func(c *gin.Context) string
}

// DefaultRateLimitConfig limits by client IP.
func DefaultRateLimitConfig(client *redis.Client, requestsPerMinute int) RateLimitConfig {
	return RateLimitConfig{
		Client:            client,
		RequestsPerMinute: requestsPerMinute,
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	}
}

// RateLimitMiddleware counts requests per key and path in fixed one-minute
// windows. Over the limit the request is aborted with a RateLimitError for
// the error handler. Redis failures let the request through.
func RateLimitMiddleware(config RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if config.Client == nil || config.RequestsPerMinute <= 0 {
			c.Next()
			return
		}

		key := config.KeyFunc(c)
		rateLimitKey := "ratelimit:" + key + ":" + c.Request.URL.Path
		ctx := c.Request.Context()

		count, err := config.Client.Incr(ctx, rateLimitKey).Result()
		if err != nil {
			logger.Warning("Rate limit increment failed:", err)
			c.Next()
			return
		}
		if count == 1 {
			if err := config.Client.Expire(ctx, rateLimitKey, time.Minute).Err(); err != nil {
				logger.Warning("Rate limit expire failed:", err)
			}
		}

		remaining := int64(config.RequestsPerMinute) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(config.RequestsPerMinute))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(config.RequestsPerMinute) {
			logger.Warningf("Rate limit exceeded for %s on %s (count: %d)", key, c.Request.URL.Path, count)
			_ = c.Error(common.NewRateLimitError(rateLimitMessage))
			c.Abort()
			return
		}

		c.Next()
	}
}
