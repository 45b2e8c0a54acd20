package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// RateLimit is a Redis fixed-window limiter keyed by the caller identity
// (user_id or phone from the request body is not parsed here; the key is the
// client IP, which is what the WhatsApp webhook relay presents).
func RateLimit(rdb *redis.Client, perMinute int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rdb == nil || perMinute <= 0 {
			return c.Next()
		}
		window := time.Now().Unix() / 60
		key := fmt.Sprintf("ratelimit:%s:%d", c.IP(), window)

		ctx := context.Background()
		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			// Redis trouble must not take the API down.
			return c.Next()
		}
		if count == 1 {
			rdb.Expire(ctx, key, time.Minute)
		}
		if count > int64(perMinute) {
			return response.Error(c, "Çok fazla istek gönderdiniz, lütfen biraz bekleyin.", fiber.StatusTooManyRequests, nil)
		}
		return c.Next()
	}
}
