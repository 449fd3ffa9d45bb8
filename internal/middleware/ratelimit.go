package middleware

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/congo-pay/tradepay/internal/logging"
)

// KeyFunc selects the bucket a request is counted against.
type KeyFunc func(c *fiber.Ctx) string

// ByIP buckets requests by client address.
func ByIP(c *fiber.Ctx) string { return c.IP() }

// ByUser buckets by authenticated user, falling back to the client address.
func ByUser(c *fiber.Ctx) string {
	if uid := UserID(c); uid != "" {
		return "user:" + uid
	}
	return c.IP()
}

// NewLimiter builds a limiter allowing limit requests per window. A nil cache
// selects the in-process memory store.
func NewLimiter(cache *redis.Client, prefix string, limit int64, window time.Duration) (*limiter.Limiter, error) {
	if limit < 1 || window <= 0 {
		return nil, fmt.Errorf("invalid rate %d per %s", limit, window)
	}
	rate := limiter.Rate{Limit: limit, Period: window}

	var (
		store limiter.Store
		err   error
	)
	if cache != nil {
		store, err = redisstore.NewStoreWithOptions(cache, limiter.StoreOptions{Prefix: "ratelimit:" + prefix})
		if err != nil {
			return nil, fmt.Errorf("rate limit store: %w", err)
		}
	} else {
		store = memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: "ratelimit:" + prefix})
	}
	return limiter.New(store, rate), nil
}

// RateLimit rejects requests over the limit with 429. Store errors fail open.
func RateLimit(l *limiter.Limiter, key KeyFunc, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		k := key(c)
		lctx, err := l.Get(c.UserContext(), k)
		if err != nil {
			logging.FromContext(c.UserContext(), logger).Error("rate limit check failed", slog.String("key", k), slog.String("error", err.Error()))
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

		if lctx.Reached {
			logging.FromContext(c.UserContext(), logger).Warn("rate limit exceeded", slog.String("key", k), slog.Int64("limit", lctx.Limit))
			return fiber.NewError(fiber.StatusTooManyRequests, "too many requests, try again later")
		}
		return c.Next()
	}
}
