package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"audiosales/web-gateway/internal/metrics"
)

// Metrics records request counts and latency by matched route.
func Metrics(m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}
		route := c.Route().Path
		if route == "" {
			route = "unmatched"
		}
		m.ObserveHTTP(c.Method(), route, status, time.Since(start))
		return err
	}
}
