package middleware

import (
	"errors"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medscribe/medscribe/internal/platform/auth"
)

// Logger emits one structured line per request. The level tracks the outcome:
// handler errors and 5xx at error, 4xx at warn, everything else at info. The
// status of an unhandled echo.HTTPError is read off the error itself since the
// response is not yet written when the middleware observes it.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			rid, _ := c.Get("request_id").(string)

			err := next(c)

			status := c.Response().Status
			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				status = httpErr.Code
			}

			var evt *zerolog.Event
			switch {
			case status >= 500:
				evt = logger.Error().Err(err)
			case status >= 400:
				evt = logger.Warn()
			case err != nil:
				evt = logger.Error().Err(err)
			default:
				evt = logger.Info()
			}

			evt = evt.
				Str("request_id", rid).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", status).
				Dur("latency", time.Since(start)).
				Int64("bytes_out", c.Response().Size).
				Str("remote_ip", c.RealIP())
			if username := auth.UsernameFromContext(req.Context()); username != "" {
				evt = evt.Str("username", username)
			}
			evt.Msg("request")

			return err
		}
	}
}
