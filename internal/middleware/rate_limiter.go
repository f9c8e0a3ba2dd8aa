package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/Baaaki/community-hub/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type RateLimiterConfig struct {
	MaxRequests int
	Window      time.Duration
	// Scope namespaces the counters so route groups keep separate budgets
	Scope string
}

// RateLimiter is a fixed-window counter per client IP, kept in Redis so every
// server instance shares the budget.
type RateLimiter struct {
	redis  *redis.Client
	config RateLimiterConfig
}

func NewRateLimiter(redisClient *redis.Client, config RateLimiterConfig) *RateLimiter {
	if config.Scope == "" {
		config.Scope = "default"
	}
	return &RateLimiter{redis: redisClient, config: config}
}

func (rl *RateLimiter) key(ip string) string {
	return "ratelimit:" + rl.config.Scope + ":" + ip
}

// Middleware rejects over-budget clients with 429. Redis errors let the request through.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		allowed, retryAfter, err := rl.CheckLimit(c.Request.Context(), ip)
		switch {
		case err != nil:
			logger.Log.Warn("Rate limiter unavailable", zap.String("ip", ip), zap.Error(err))
		case !allowed:
			seconds := int(retryAfter.Round(time.Second) / time.Second)
			if seconds < 1 {
				seconds = 1
			}
			logger.Log.Warn("Rate limit exceeded",
				zap.String("ip", ip),
				zap.String("scope", rl.config.Scope),
				zap.Int("retry_after", seconds),
			)
			c.Header("Retry-After", strconv.Itoa(seconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many requests. Please try again later.",
				"retry_after": seconds,
			})
			return
		}
		c.Next()
	}
}

// CheckLimit records one request from ip and reports whether it fits the
// window. When it does not, the second value is the time left in the window.
// The counter is created with its expiry in the same transaction that
// increments it, so no key can outlive its window.
func (rl *RateLimiter) CheckLimit(ctx context.Context, ip string) (bool, time.Duration, error) {
	key := rl.key(ip)

	var (
		count *redis.IntCmd
		ttl   *redis.DurationCmd
	)
	if _, err := rl.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, rl.config.Window)
		count = pipe.Incr(ctx, key)
		ttl = pipe.PTTL(ctx, key)
		return nil
	}); err != nil {
		return false, 0, err
	}

	if count.Val() > int64(rl.config.MaxRequests) {
		remaining := ttl.Val()
		if remaining <= 0 {
			remaining = rl.config.Window
		}
		return false, remaining, nil
	}
	return true, 0, nil
}
