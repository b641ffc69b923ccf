package identity

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/arihant-coaching/coaching_api/internal/apperr"
)

const (
	minPasswordLength = 4
	maxPasswordLength = 72

	defaultPageSize = 20
	maxPageSize     = 100
)

// Service manages the account lifecycle.
type Service struct {
	repo Repository
	cost int

	// RequireVerifiedEmail rejects logins until MarkEmailVerified has run for the account.
	RequireVerifiedEmail bool
}

// NewService creates an identity service hashing with the given bcrypt cost.
func NewService(repo Repository, cost int) *Service {
	if cost < bcrypt.DefaultCost {
		cost = bcrypt.DefaultCost
	}
	return &Service{repo: repo, cost: cost}
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new user and stores a bcrypt hash of the password.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	name := strings.TrimSpace(in.Name)
	email := NormalizeEmail(in.Email)
	if name == "" {
		return User{}, apperr.Validation("name is required")
	}
	if err := validateEmail(email); err != nil {
		return User{}, err
	}
	if err := validatePassword(in.Password); err != nil {
		return User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	user := User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

// Authenticate verifies an email/password pair.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	user, err := s.repo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return User{}, err
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return User{}, ErrInvalidCredential
	}
	if s.RequireVerifiedEmail && !user.EmailVerified && !user.IsAdmin() {
		return User{}, ErrEmailNotVerified
	}
	return user, nil
}

// ChangePassword replaces the hash after checking the old password.
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(oldPassword)); err != nil {
		return ErrInvalidCredential
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, user.ID, hash)
}

// MarkEmailVerified activates the account once its OTP challenge has been passed.
func (s *Service) MarkEmailVerified(ctx context.Context, email string) error {
	return s.repo.SetEmailVerified(ctx, NormalizeEmail(email))
}

// Exists reports whether an account is registered under email.
func (s *Service) Exists(ctx context.Context, email string) (bool, error) {
	_, err := s.repo.FindByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.repo.FindByID(ctx, id)
}

// List pages through users for the admin console.
func (s *Service) List(ctx context.Context, q ListQuery) (Page, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	users, total, err := s.repo.List(ctx, strings.TrimSpace(q.Q), pageOffset(page, limit), limit)
	if err != nil {
		return Page{}, err
	}
	return Page{Users: users, Total: total, Page: page, Pages: (total + limit - 1) / limit}, nil
}

// EnsureAdmin creates a verified admin account, or promotes an existing one.
func (s *Service) EnsureAdmin(ctx context.Context, name, email, password string) (User, error) {
	user, err := s.repo.FindByEmail(ctx, NormalizeEmail(email))
	switch {
	case errors.Is(err, ErrNotFound):
		user, err = s.Register(ctx, RegisterInput{Name: name, Email: email, Password: password})
		if err != nil {
			return User{}, err
		}
		if err := s.repo.SetEmailVerified(ctx, user.Email); err != nil {
			return User{}, err
		}
		user.EmailVerified = true
	case err != nil:
		return User{}, err
	}

	if user.IsAdmin() {
		return user, nil
	}
	if err := s.repo.SetRole(ctx, user.ID, RoleAdmin); err != nil {
		return User{}, err
	}
	user.Role = RoleAdmin
	return user, nil
}

// pageOffset returns the row offset of page, saturating at math.MaxInt instead
// of overflowing for absurd page numbers.
func pageOffset(page, limit int) int {
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}

func validateEmail(email string) error {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || strings.ContainsAny(email, " \t\r\n") {
		return apperr.Validation("a valid email is required")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperr.Validation("password must be at least 4 characters")
	}
	if len(password) > maxPasswordLength {
		return apperr.Validation("password must be at most 72 bytes")
	}
	return nil
}
