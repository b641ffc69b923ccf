package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/arihant-coaching/coaching_api/internal/enrollment"
)

// RegisterPaymentRoutes wires the checkout flow. idempotency may be nil.
func RegisterPaymentRoutes(r fiber.Router, h *enrollment.Handler, idempotency fiber.Handler) {
	group := r.Group("/payment")
	if idempotency != nil {
		group.Use(idempotency)
	}
	group.Get("/config", h.Config)
	group.Post("/order", h.CreateOrder)
	group.Post("/verify", h.Verify)
	group.Post("/save", h.Save)
}
