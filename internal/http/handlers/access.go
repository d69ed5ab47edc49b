package handlers

import (
	"time"

	applog "shopfront/internal/log"
	"shopfront/internal/metrics"

	"github.com/gofiber/fiber/v2"
)

// AccessLog writes one structured entry per request after it has been
// handled and records it on m.
func AccessLog(m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// Let the error handler set the final status before logging.
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		took := time.Since(start)
		m.Request(c.Method(), c.Response().StatusCode(), took)
		applog.Info(c, "http.access", map[string]any{
			"latency_ms": took.Milliseconds(),
			"bytes":      len(c.Response().Body()),
		})
		return nil
	}
}
