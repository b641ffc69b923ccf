package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/arihant-coaching/coaching_api/internal/middleware"
)

const (
	statusOK       = "ok"
	statusDown     = "down"
	statusDisabled = "disabled"
)

// RegisterHealthRoutes adds liveness/readiness style endpoints. Probe failures
// are logged; the response only says which dependency is down.
func RegisterHealthRoutes(app *fiber.App, d Deps) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		dbStatus := statusDisabled
		redisStatus := statusDisabled

		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if d.DB != nil {
			dbStatus = statusOK
			if err := d.DB.Ping(ctx); err != nil {
				d.Logger.Error("health check failed", "dependency", "postgres", "error", err)
				dbStatus = statusDown
			}
		}
		if d.Cache != nil {
			redisStatus = statusOK
			if err := d.Cache.Ping(ctx).Err(); err != nil {
				d.Logger.Error("health check failed", "dependency", "redis", "error", err)
				redisStatus = statusDown
			}
		}
		status := http.StatusOK
		if dbStatus == statusDown || redisStatus == statusDown {
			status = http.StatusServiceUnavailable
		}
		return c.Status(status).JSON(fiber.Map{
			"status":    fiber.Map{"postgres": dbStatus, "redis": redisStatus},
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		})
	})
}

func ping(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"status":     "ok",
		"request_id": middleware.RequestIDFrom(c),
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
	})
}
