package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/arihant-coaching/coaching_api/internal/courses"
	"github.com/arihant-coaching/coaching_api/internal/enrollment"
	"github.com/arihant-coaching/coaching_api/internal/identity"
)

// RegisterAdminRoutes wires the admin console endpoints behind gate.
func RegisterAdminRoutes(r fiber.Router, gate []fiber.Handler, users *identity.Handler, enroll *enrollment.Handler) {
	group := r.Group("/admin", gate...)
	group.Get("/users", users.ListUsers)
	group.Get("/payments", enroll.ListPayments)
	group.Get("/admissions", enroll.ListAdmissions)
	group.Put("/admissions/:id", enroll.UpdateAdmission)
	group.Delete("/admissions/:id", enroll.DeleteAdmission)
	group.Get("/admissions/:id/receipt", enroll.Receipt)
}

// RegisterCourseRoutes serves the catalogue publicly and guards edits with gate.
func RegisterCourseRoutes(r fiber.Router, gate []fiber.Handler, h *courses.Handler) {
	group := r.Group("/courses")
	group.Get("/", h.List)
	group.Get("/:id", h.Get)
	group.Post("/", guarded(gate, h.Create)...)
	group.Put("/:id", guarded(gate, h.Update)...)
	group.Delete("/:id", guarded(gate, h.Delete)...)
}

func guarded(gate []fiber.Handler, h fiber.Handler) []fiber.Handler {
	out := make([]fiber.Handler, 0, len(gate)+1)
	out = append(out, gate...)
	return append(out, h)
}
