package courses

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arihant-coaching/coaching_api/internal/apperr"
)

// Service manages the course catalogue.
type Service struct {
	repo Repository
}

// NewService creates a course service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func normalize(in Input) (Input, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.TrimSpace(in.Category)
	if in.Title == "" {
		return Input{}, apperr.Validation("title is required")
	}
	if in.Fees <= 0 {
		return Input{}, apperr.Validation("fees must be positive")
	}
	if in.LimitedSeats < 0 {
		return Input{}, apperr.Validation("limited seats cannot be negative")
	}
	if in.Category == "" {
		in.Category = defaultCategory
	}
	return in, nil
}

// Create adds a course.
func (s *Service) Create(ctx context.Context, in Input) (Course, error) {
	in, err := normalize(in)
	if err != nil {
		return Course{}, err
	}
	now := time.Now().UTC()
	c := Course{
		ID:           uuid.NewString(),
		Title:        in.Title,
		Description:  in.Description,
		Duration:     in.Duration,
		Fees:         in.Fees,
		Category:     in.Category,
		LimitedSeats: in.LimitedSeats,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return Course{}, err
	}
	return c, nil
}

// Get returns one course.
func (s *Service) Get(ctx context.Context, id string) (Course, error) {
	return s.repo.Get(ctx, id)
}

// List returns the catalogue, newest first.
func (s *Service) List(ctx context.Context) ([]Course, error) {
	return s.repo.List(ctx)
}

// Update replaces a course's editable fields.
func (s *Service) Update(ctx context.Context, id string, in Input) (Course, error) {
	in, err := normalize(in)
	if err != nil {
		return Course{}, err
	}
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return Course{}, err
	}
	c.Title, c.Description, c.Duration = in.Title, in.Description, in.Duration
	c.Fees, c.Category, c.LimitedSeats = in.Fees, in.Category, in.LimitedSeats
	c.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, c); err != nil {
		return Course{}, err
	}
	return c, nil
}

// Delete removes a course.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
