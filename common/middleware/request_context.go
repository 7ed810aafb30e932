package middleware

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/lsst-sqre/exposurelog/common/logger"
)

// RequestContext copies the X-Request-ID response header (set by echo's
// RequestID middleware) into the request context, where logger.WithContext
// picks it up. It must be installed after middleware.RequestID.
func RequestContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Response().Header().Get(echo.HeaderXRequestID)
			if id == "" {
				id = c.Request().Header.Get(echo.HeaderXRequestID)
			}
			if id != "" {
				req := c.Request()
				c.SetRequest(req.WithContext(context.WithValue(req.Context(), logger.RequestIDKey, id)))
			}
			return next(c)
		}
	}
}
