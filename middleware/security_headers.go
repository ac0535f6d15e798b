package middleware

import "github.com/labstack/echo/v4"

// SecurityHeaders adds security headers suited to a JSON API. Identity
// responses are per-user and must never be stored by shared caches.
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Cache-Control", "no-store, private")
			h.Set("Vary", "Cookie")
			return next(c)
		}
	}
}
