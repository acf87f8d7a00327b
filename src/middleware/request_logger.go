package middleware

import (
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RequestLogger tags each request with a correlation id and logs it on
// completion. Disabled entirely via REQUEST_LOGGING_DISABLED=1 or when the
// global level filters out info logs.
func RequestLogger() fiber.Handler {
	disabled := os.Getenv("REQUEST_LOGGING_DISABLED") == "1"
	shouldLog := !disabled && zerolog.GlobalLevel() <= zerolog.InfoLevel

	return func(c *fiber.Ctx) error {
		if !shouldLog {
			return c.Next()
		}

		requestID := uuid.New().String()
		c.Set("X-Request-ID", requestID)

		start := time.Now()
		err := c.Next()

		log.Info().
			Str("request_id", requestID).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Str("ip", c.IP()).
			Int("status", c.Response().StatusCode()).
			Int64("latency_ms", time.Since(start).Milliseconds()).
			Msg("HTTP request")

		return err
	}
}
