package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger is a dependency the health check can probe
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler handles health check requests
type HealthHandler struct {
	checks map[string]Pinger
}

// NewHealthHandler creates a health handler over the named dependencies.
// Nil entries are reported as "disabled".
func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// HealthCheck returns the health status of the service and its dependencies
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	overallStatus := "healthy"
	statusCode := fiber.StatusOK

	results := fiber.Map{}
	for name, check := range h.checks {
		status := h.probe(c.UserContext(), check)
		results[name] = status
		if status == "unhealthy" {
			overallStatus = "degraded"
			statusCode = fiber.StatusServiceUnavailable
		}
	}

	return c.Status(statusCode).JSON(fiber.Map{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    results,
	})
}

func (h *HealthHandler) probe(ctx context.Context, check Pinger) string {
	if check == nil {
		return "disabled"
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := check.Ping(ctx); err != nil {
		return "unhealthy"
	}
	return "healthy"
}
