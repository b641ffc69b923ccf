package otp

import "github.com/arihant-coaching/coaching_api/internal/apperr"

var (
	// ErrNotFound means no challenge is pending for the email.
	ErrNotFound = apperr.New(apperr.KindValidation, "otp_not_found", "no verification code is pending for this email")
	// ErrExpired means the pending challenge is past its expiry.
	ErrExpired = apperr.New(apperr.KindValidation, "otp_expired", "verification code has expired")
	// ErrMismatch means the submitted code is wrong.
	ErrMismatch = apperr.New(apperr.KindValidation, "otp_mismatch", "verification code is incorrect")
)
