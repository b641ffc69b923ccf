package identity

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes admin user endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs an identity HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// UserResponse is the public view of a user; the password hash never leaves the server.
type UserResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

// ToResponse converts a user for JSON output.
func ToResponse(u User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, EmailVerified: u.EmailVerified, CreatedAt: u.CreatedAt}
}

type listResponse struct {
	Users []UserResponse `json:"users"`
	Total int            `json:"total"`
	Page  int            `json:"page"`
	Pages int            `json:"pages"`
}

// ListUsers serves GET /admin/users?q=&page=&limit=.
func (h *Handler) ListUsers(c *fiber.Ctx) error {
	page, err := h.service.List(c.UserContext(), ListQuery{
		Q:     c.Query("q"),
		Page:  c.QueryInt("page", 1),
		Limit: c.QueryInt("limit", defaultPageSize),
	})
	if err != nil {
		return err
	}
	out := make([]UserResponse, 0, len(page.Users))
	for _, u := range page.Users {
		out = append(out, ToResponse(u))
	}
	return c.Status(http.StatusOK).JSON(listResponse{Users: out, Total: page.Total, Page: page.Page, Pages: page.Pages})
}
