package identity

import (
	"net/http"

	"github.com/arihant-coaching/coaching_api/internal/apperr"
)

var (
	// ErrDuplicateAccount is returned when the normalized email is already registered.
	ErrDuplicateAccount = apperr.New(apperr.KindConflict, "duplicate_account", "an account with this email already exists").WithStatus(http.StatusBadRequest)

	// ErrNotFound means no user matches the lookup.
	ErrNotFound = apperr.New(apperr.KindNotFound, "not_found", "user not found")

	// ErrInvalidCredential means the password did not match the stored hash.
	ErrInvalidCredential = apperr.New(apperr.KindAuth, "invalid_credential", "invalid email or password").WithStatus(http.StatusBadRequest)

	// ErrEmailNotVerified blocks login until the OTP challenge has been passed.
	ErrEmailNotVerified = apperr.New(apperr.KindPermission, "email_not_verified", "verify your email before logging in")
)
