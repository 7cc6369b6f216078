package middleware

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"task-manager.com/task-manager/internal/limiter"
)

// RateLimiter rejects clients that exceed l, keyed by their real IP. A
// limiter backend failure lets the request through.
func RateLimiter(l limiter.Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.RealIP()

			ok, err := l.Allow(c.Request().Context(), key)
			if err != nil {
				log.Printf("rate limiter unavailable for %s: %v", key, err)
				return next(c)
			}

			if !ok {
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}

			return next(c)
		}
	}
}
