// Package middleware provides HTTP middleware for the page server.
package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
)

// ReadinessFunc reports whether the server can answer page requests.
type ReadinessFunc func() bool

// NewHealthCheck creates a Fiber healthcheck middleware with Kubernetes-style endpoints.
//
// Endpoints:
//   - GET /livez  - Liveness probe (app is running)
//   - GET /readyz - Readiness probe (datasets loaded)
//
// This middleware should be registered BEFORE other routes.
func NewHealthCheck(ready ReadinessFunc) fiber.Handler {
	return healthcheck.New(healthcheck.Config{
		LivenessEndpoint: "/livez",
		LivenessProbe: func(_ *fiber.Ctx) bool {
			return true
		},

		ReadinessEndpoint: "/readyz",
		ReadinessProbe: func(_ *fiber.Ctx) bool {
			if ready == nil {
				return true
			}

			return ready()
		},
	})
}
