package otp

import (
	"context"
	"time"
)

// Challenge is the stored state of one pending OTP.
type Challenge struct {
	Digest    string
	ExpiresAt time.Time
	Attempts  int
}

// Store keeps at most one challenge per email.
type Store interface {
	// Put replaces any existing challenge for email. retain bounds how long the
	// record may linger after ExpiresAt.
	Put(ctx context.Context, email string, ch Challenge, retain time.Duration) error
	// Consume checks digest against the challenge at time now. A match removes the
	// challenge; a miss spends one attempt and removes it when none remain.
	// Expired challenges are reported as ErrExpired and left in place.
	Consume(ctx context.Context, email, digest string, now time.Time) error
}
