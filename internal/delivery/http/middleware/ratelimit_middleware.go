package middleware

import (
	"context"
	"log/slog"
	"math"
	"strconv"

	deliverycontext "tienda/internal/delivery/context"
	domainerrors "tienda/internal/domain/errors"
	"tienda/internal/infra/cache"

	"github.com/labstack/echo/v4"
)

// RateLimiter takes one token for key.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (cache.RateDecision, error)
}

// RateLimitMiddleware throttles each client per route. A nil limiter lets everything through.
type RateLimitMiddleware struct {
	limiter RateLimiter
	logger  *slog.Logger
}

// NewRateLimitMiddleware wraps the Redis token bucket, which is nil when rate limiting is off.
func NewRateLimitMiddleware(bucket *cache.TokenBucket, logger *slog.Logger) *RateLimitMiddleware {
	m := &RateLimitMiddleware{logger: logger}
	if bucket != nil {
		m.limiter = bucket
	}

	return m
}

// Handle answers 429 once the caller's bucket for this route is empty.
func (m *RateLimitMiddleware) Handle(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if m.limiter == nil {
			return next(c)
		}

		ctx := c.Request().Context()
		decision, err := m.limiter.Allow(ctx, c.Path()+":"+c.RealIP())
		if err != nil {
			// fail open: Redis trouble must not lock customers out
			deliverycontext.GetLoggerOrDefault(ctx, m.logger).Warn("Rate limiter unavailable",
				slog.Any("error", err),
			)

			return next(c)
		}

		header := c.Response().Header()
		header.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		header.Set("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))
		if !decision.Allowed {
			retryAfter := int(math.Ceil(decision.RetryAfter.Seconds()))
			header.Set("Retry-After", strconv.Itoa(max(retryAfter, 1)))

			return domainerrors.ErrRateLimited
		}

		return next(c)
	}
}
