package middleware

import "github.com/labstack/echo/v4"

// consoleHeaders are set on every response. Views carry patient identity,
// so nothing may be cached or framed.
var consoleHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
	{"Referrer-Policy", "no-referrer"},
	{"Cache-Control", "no-store"},
}

func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			for _, kv := range consoleHeaders {
				h.Set(kv[0], kv[1])
			}
			return next(c)
		}
	}
}
