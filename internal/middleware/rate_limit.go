package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

// rateLimitKey buckets authenticated callers per user and anonymous callers
// per client IP, so one busy restaurant terminal cannot starve the rest of a
// shared NAT.
func rateLimitKey(c *gin.Context) string {
	if ident := IdentityFrom(c); ident != nil {
		return "rate_limit:user:" + strconv.FormatInt(ident.UserID, 10)
	}
	return "rate_limit:ip:" + c.ClientIP()
}

// RateLimit throttles callers with a fixed window in Redis.
func RateLimit(redisClient *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := rateLimitKey(c)

		pipe := redisClient.Pipeline()
		incr := pipe.Incr(c, key)
		pipe.Expire(c, key, window)
		if _, err := pipe.Exec(c); err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to execute redis pipeline"})
			return
		}

		if incr.Val() > int64(limit) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		c.Next()
	}
}
