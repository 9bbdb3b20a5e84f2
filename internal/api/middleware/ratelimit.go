package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/openlease/lease-ledger/internal/logger"
)

// RateLimitConfig holds per-client request budget configuration
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained per-client rate; 0 disables limiting
	RequestsPerSecond int
	Burst             int
}

// RateLimit returns a gin middleware enforcing a per-client request budget
// backed by Redis, so the limit holds across API replicas. When the limiter
// backend is unreachable the middleware fails open: serving a request beats
// refusing all of them.
func RateLimit(rdb redis.UniversalClient, cfg RateLimitConfig) gin.HandlerFunc {
	if rdb == nil || cfg.RequestsPerSecond <= 0 {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	burst := cfg.Burst
	if burst < cfg.RequestsPerSecond {
		burst = cfg.RequestsPerSecond
	}

	limiter := redis_rate.NewLimiter(rdb)
	limit := redis_rate.Limit{
		Rate:   cfg.RequestsPerSecond,
		Burst:  burst,
		Period: time.Second,
	}

	return func(c *gin.Context) {
		res, err := limiter.Allow(c.Request.Context(), "api_rate:"+c.ClientIP(), limit)
		if err != nil {
			logger.Warn("Rate limiter unavailable, allowing request",
				zap.String("client_ip", c.ClientIP()),
				zap.Error(err))
			c.Next()
			return
		}

		if res.Allowed == 0 {
			c.Header("Retry-After", strconv.Itoa(int(res.RetryAfter/time.Second)+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests",
			})
			return
		}

		c.Next()
	}
}
