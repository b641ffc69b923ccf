package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/arihant-coaching/coaching_api/internal/auth"
)

// RegisterAuthRoutes wires registration, OTP and session endpoints.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter, authenticate fiber.Handler) {
	r.Post("/register", h.Register)

	group := r.Group("/auth")
	group.Post("/register", h.Register)
	group.Post("/verify-otp", h.VerifyOTP)
	group.Post("/resend-otp", h.ResendOTP)
	if rateLimiter != nil {
		group.Post("/login", rateLimiter, h.Login)
	} else {
		group.Post("/login", h.Login)
	}
	group.Post("/change-password", authenticate, h.ChangePassword)
	group.Get("/me", authenticate, h.Me)
}
