package middleware

import (
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// Logger writes one structured line per request with request_id, method, path,
// status, latency in milliseconds and, for signed-in callers, user_id.
//
// Errors are rendered through the app's ErrorHandler before logging so the
// recorded status is the one the client receives. Handlers get a logger carrying
// the request id through zerolog.Ctx on the user context.
func Logger(log zerolog.Logger) fiber.Handler {
	return requestLogger(log.With().Str("component", "http").Logger(), time.UTC)
}

// LoggerWithWriter logs to w with timestamps in loc. Used by tests and tools.
func LoggerWithWriter(w io.Writer, loc *time.Location) fiber.Handler {
	if loc == nil {
		loc = time.UTC
	}
	return requestLogger(zerolog.New(w), loc)
}

func requestLogger(log zerolog.Logger, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		rid := RequestIDFromCtx(c)

		reqLog := log.With().Str("request_id", rid).Logger()
		c.SetUserContext(reqLog.WithContext(c.UserContext()))

		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		ev := log.Info()
		switch {
		case status >= fiber.StatusInternalServerError:
			ev = log.Error()
		case status >= fiber.StatusBadRequest:
			ev = log.Warn()
		}

		ev = ev.
			Str("ts", start.In(loc).Format(time.RFC3339Nano)).
			Str("request_id", rid).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Float64("latency", float64(time.Since(start).Microseconds())/1000)
		if uid := UserID(c); uid != "" {
			ev = ev.Str("user_id", uid)
		}
		ev.Msg("request")
		return nil
	}
}
