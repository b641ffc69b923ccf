package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/arihant-coaching/coaching_api/internal/apperr"
	"github.com/arihant-coaching/coaching_api/internal/identity"
	"github.com/arihant-coaching/coaching_api/internal/otp"
)

var errAuthRequired = apperr.New(apperr.KindAuth, "auth_required", "authentication required")

// Handler exposes registration, verification and session endpoints.
type Handler struct {
	ids    *identity.Service
	otps   *otp.Service
	tokens *TokenService
	logger *slog.Logger
}

// NewHandler wires the auth endpoints.
func NewHandler(ids *identity.Service, otps *otp.Service, tokens *TokenService, logger *slog.Logger) *Handler {
	return &Handler{ids: ids, otps: otps, tokens: tokens, logger: logger}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerResponse struct {
	User    identity.UserResponse `json:"user"`
	OTPSent bool                  `json:"otp_sent"`
}

// Register creates an account and sends the activation code.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	user, err := h.ids.Register(c.UserContext(), identity.RegisterInput{Name: req.Name, Email: req.Email, Password: req.Password})
	if err != nil {
		return err
	}

	sent := true
	if err := h.otps.Send(c.UserContext(), user.Email); err != nil {
		h.logger.Warn("otp delivery failed", "user_id", user.ID, "error", err)
		sent = false
	}
	return c.Status(http.StatusCreated).JSON(registerResponse{User: identity.ToResponse(user), OTPSent: sent})
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// VerifyOTP consumes the activation code and marks the email verified.
func (h *Handler) VerifyOTP(c *fiber.Ctx) error {
	var req verifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if err := h.otps.Verify(c.UserContext(), req.Email, req.OTP); err != nil {
		return err
	}
	if err := h.ids.MarkEmailVerified(c.UserContext(), req.Email); err != nil && !errors.Is(err, identity.ErrNotFound) {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"verified": true})
}

type resendOTPRequest struct {
	Email string `json:"email"`
}

// ResendOTP replaces the pending code. Unknown emails get the same response.
func (h *Handler) ResendOTP(c *fiber.Ctx) error {
	var req resendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if req.Email == "" {
		return apperr.Validation("email is required")
	}
	exists, err := h.ids.Exists(c.UserContext(), req.Email)
	if err != nil {
		return err
	}
	if exists {
		if err := h.otps.Resend(c.UserContext(), req.Email); err != nil {
			return err
		}
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "sent"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string                `json:"token"`
	Role      string                `json:"role"`
	ExpiresAt time.Time             `json:"expires_at"`
	User      identity.UserResponse `json:"user"`
}

// Login validates credentials and returns a session token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	user, err := h.ids.Authenticate(c.UserContext(), req.Email, req.Password)
	if errors.Is(err, identity.ErrNotFound) {
		return identity.ErrNotFound.WithStatus(http.StatusBadRequest)
	}
	if err != nil {
		return err
	}
	tok, err := h.tokens.Issue(user)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(loginResponse{Token: tok.Value, Role: user.Role, ExpiresAt: tok.ExpiresAt, User: identity.ToResponse(user)})
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ChangePassword replaces the caller's password.
func (h *Handler) ChangePassword(c *fiber.Ctx) error {
	p, ok := PrincipalFrom(c)
	if !ok {
		return errAuthRequired
	}
	var req changePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if err := h.ids.ChangePassword(c.UserContext(), p.UserID, req.OldPassword, req.NewPassword); err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "password_changed"})
}

// Me returns the caller's profile.
func (h *Handler) Me(c *fiber.Ctx) error {
	p, ok := PrincipalFrom(c)
	if !ok {
		return errAuthRequired
	}
	user, err := h.ids.Get(c.UserContext(), p.UserID)
	if errors.Is(err, identity.ErrNotFound) {
		return errAuthRequired
	}
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"user": identity.ToResponse(user)})
}
