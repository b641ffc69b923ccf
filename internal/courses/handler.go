package courses

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/arihant-coaching/coaching_api/internal/apperr"
)

// Handler exposes course endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a course HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type courseRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Duration     string `json:"duration"`
	Fees         int64  `json:"fees"`
	Category     string `json:"category"`
	LimitedSeats int    `json:"limitedSeats"`
}

func (r courseRequest) input() Input {
	return Input(r)
}

type courseResponse struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Duration     string    `json:"duration"`
	Fees         int64     `json:"fees"`
	Category     string    `json:"category"`
	LimitedSeats int       `json:"limitedSeats"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func toResponse(c Course) courseResponse {
	return courseResponse{
		ID:           c.ID,
		Title:        c.Title,
		Description:  c.Description,
		Duration:     c.Duration,
		Fees:         c.Fees,
		Category:     c.Category,
		LimitedSeats: c.LimitedSeats,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

// List returns all courses.
func (h *Handler) List(c *fiber.Ctx) error {
	list, err := h.service.List(c.UserContext())
	if err != nil {
		return err
	}
	out := make([]courseResponse, 0, len(list))
	for _, course := range list {
		out = append(out, toResponse(course))
	}
	return c.Status(http.StatusOK).JSON(out)
}

// Get returns one course.
func (h *Handler) Get(c *fiber.Ctx) error {
	course, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(toResponse(course))
}

// Create adds a course.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req courseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	course, err := h.service.Create(c.UserContext(), req.input())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(toResponse(course))
}

// Update edits a course.
func (h *Handler) Update(c *fiber.Ctx) error {
	var req courseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	course, err := h.service.Update(c.UserContext(), c.Params("id"), req.input())
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(toResponse(course))
}

// Delete removes a course.
func (h *Handler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
