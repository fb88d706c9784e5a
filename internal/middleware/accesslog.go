package middleware

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bloodbank/internal/logging"
)

// AccessLog writes one structured line per request.  It must run after
// echo's RequestID middleware so the id is on the response header.
func AccessLog(log logging.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// let the HTTP error handler write the response so the
				// logged status is the one the client sees
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			args := []any{
				"method", req.Method,
				"path", c.Path(),
				"uri", req.RequestURI,
				"status", res.Status,
				"latency_ms", time.Since(start).Milliseconds(),
				"request_id", res.Header().Get(echo.HeaderXRequestID),
				"user_id", userID(c),
				"remote_ip", c.RealIP(),
			}
			ctx := req.Context()
			switch {
			case res.Status >= 500:
				if err != nil {
					args = append(args, "err", err.Error())
				}
				log.Error(ctx, "http request", args...)
			case res.Status >= 400:
				log.Warn(ctx, "http request", args...)
			default:
				log.Info(ctx, "http request", args...)
			}
			return nil
		}
	}
}

// RequestTimeout bounds the request's context so store calls made with
// it are cancelled after d.
func RequestTimeout(d time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if d <= 0 {
			return next
		}
		return func(c echo.Context) error {
			ctx, cancel := context.WithTimeout(c.Request().Context(), d)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
