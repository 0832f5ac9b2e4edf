package ratelimit

import (
	"strconv"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
)

// HandlerConfig configures the Fiber middleware.
type HandlerConfig struct {
	Limit  int
	Window time.Duration
	// KeyFunc derives the throttling key. Defaults to the client IP.
	KeyFunc func(c *fiber.Ctx) string
	// LimitReached writes the response for a throttled request.
	LimitReached fiber.Handler
}

// Handler returns Fiber middleware that enforces the limit per key. Redis
// failures let the request through and are logged.
func Handler(limiter *Limiter, cfg HandlerConfig, logger types.Logger) fiber.Handler {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(c *fiber.Ctx) string { return c.IP() }
	}
	if cfg.LimitReached == nil {
		cfg.LimitReached = func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "too many attempts, try again later")
		}
	}

	return func(c *fiber.Ctx) error {
		result, err := limiter.Allow(c.UserContext(), cfg.KeyFunc(c), cfg.Limit, cfg.Window)
		if err != nil {
			logger.Warn("Rate limiter unavailable, allowing request", "path", c.Path(), "error", err)
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			retryAfter := int(time.Until(result.ResetAt).Seconds()) + 1
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
			return cfg.LimitReached(c)
		}
		return c.Next()
	}
}
