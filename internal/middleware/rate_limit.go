package middleware

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/loom-academy/loom-go-api/internal/ratelimit"
	"github.com/loom-academy/loom-go-api/internal/utils"
)

// RateLimit guards a route group with the shared limiter. The identifier is
// the authenticated user id, falling back to the client IP for anonymous
// traffic. Rejections are generic: thresholds stay internal.
func RateLimit(scope string, limiter *ratelimit.Limiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identifier := fmt.Sprintf("%s:%s", scope, limitIdentifier(c))

		result := limiter.Allow(c.Context(), identifier)
		if !result.Allowed {
			return utils.SendError(c, fiber.StatusTooManyRequests, "too many requests")
		}

		return c.Next()
	}
}

func limitIdentifier(c *fiber.Ctx) string {
	if v := c.Locals("user_id"); v != nil {
		if id, ok := v.(uint); ok && id > 0 {
			return fmt.Sprintf("user:%d", id)
		}
	}
	return fmt.Sprintf("ip:%s", c.IP())
}
