package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"user-hub/utils/logger"
)

// LogContext puts the request id assigned by echo's RequestID middleware and
// the caller's session into the request context for logging. It must run
// after RequestID. sessionKey reports false for requests without a session.
func LogContext(sessionKey func(*http.Request) (string, bool)) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := logger.WithRequestID(req.Context(), c.Response().Header().Get(echo.HeaderXRequestID))
			if key, ok := sessionKey(req); ok {
				ctx = logger.WithSession(ctx, key)
			}
			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}
