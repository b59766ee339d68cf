package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimit gates how often one identity may perform an action, using a
// fixed-window Redis counter. Registered users are keyed by user id,
// anonymous ones by hashed IP. A nil client disables limiting (dev, tests).
func RateLimit(rdb *redis.Client, action string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}

		subject := ""
		if raw, exists := c.Get("user_id"); exists {
			subject = fmt.Sprintf("u:%v", raw)
		} else if hash, exists := c.Get("ip_hash"); exists {
			subject = fmt.Sprintf("a:%v", hash)
		} else {
			subject = "a:" + c.ClientIP()
		}
		key := fmt.Sprintf("rl:%s:%s", action, subject)

		ctx := c.Request.Context()
		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			// Limiter being down never blocks the request itself.
			c.Next()
			return
		}
		if count == 1 {
			rdb.Expire(ctx, key, window)
		}
		if count > int64(limit) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded, try again later"})
			c.Abort()
			return
		}
		c.Next()
	}
}
