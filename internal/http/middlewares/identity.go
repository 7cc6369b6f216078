package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	UserIDHeader = "X-User-ID"
	userIDKey    = "userID"
)

// Identity takes the caller's user id from the X-User-ID header. The header
// is trusted as is.
func Identity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(UserIDHeader)
			if id == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "X-User-ID header is required")
			}

			if _, err := uuid.Parse(id); err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "X-User-ID must be a UUID")
			}

			c.Set(userIDKey, id)
			return next(c)
		}
	}
}

func UserID(c echo.Context) string {
	id, _ := c.Get(userIDKey).(string)
	return id
}
