package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/core/metrics"
)

// Logger attaches a request scoped logger to the user context, logs each
// request once it completes and records it on m. m may be nil.
func Logger(logger *zerolog.Logger, m *metrics.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		reqLogger := logger.With().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Str("remote_ip", c.IP()).
			Logger()
		c.SetUserContext(reqLogger.WithContext(c.UserContext()))

		err := c.Next()
		if err != nil {
			// let the app error handler pick the status before we read it
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		latency := time.Since(start)

		event := reqLogger.Info()
		if status >= fiber.StatusInternalServerError {
			event = reqLogger.Error()
		}
		event.Int("status", status).Dur("latency", latency).Msg("request")

		m.RecordHTTPRequest(c.Method(), c.Route().Path, strconv.Itoa(status), latency)
		return nil
	}
}
