package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/umalmyha/customers-kyc/internal/metrics"
)

// Metrics records request count and duration by route
func Metrics(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// error is handled here so response status is final
			if err := next(c); err != nil {
				c.Error(err)
			}

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			m.ObserveRequest(c.Request().Method, path, c.Response().Status, time.Since(start))
			return nil
		}
	}
}
