package otp

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/arihant-coaching/coaching_api/internal/apperr"
	"github.com/arihant-coaching/coaching_api/internal/notification"
)

const (
	codeDigits = 6

	defaultTTL      = 10 * time.Minute
	defaultAttempts = 5
	// expired challenges stay readable this long so they report ErrExpired rather than ErrNotFound
	expiredGrace = time.Hour
)

var codeSpace = big.NewInt(1_000_000)

// Options tunes challenge lifetime.
type Options struct {
	TTL      time.Duration
	Attempts int
}

// Service issues and verifies email one-time passwords.
type Service struct {
	store    Store
	notifier notification.Notifier
	logger   *slog.Logger
	ttl      time.Duration
	attempts int
	now      func() time.Time
}

// NewService wires a challenge store and the notifier used for delivery.
func NewService(store Store, notifier notification.Notifier, logger *slog.Logger, opts Options) *Service {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.Attempts <= 0 {
		opts.Attempts = defaultAttempts
	}
	return &Service{
		store:    store,
		notifier: notifier,
		logger:   logger,
		ttl:      opts.TTL,
		attempts: opts.Attempts,
		now:      time.Now,
	}
}

// WithClock replaces the time source. Intended for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Issue stores a fresh code for email, replacing any earlier one, and returns it.
// It does not deliver the code.
func (s *Service) Issue(ctx context.Context, email string) (string, error) {
	email = normalize(email)
	if email == "" {
		return "", apperr.Validation("email is required")
	}
	code, err := generateCode()
	if err != nil {
		return "", err
	}
	ch := Challenge{
		Digest:    digest(email, code),
		ExpiresAt: s.now().Add(s.ttl),
		Attempts:  s.attempts,
	}
	if err := s.store.Put(ctx, email, ch, expiredGrace); err != nil {
		return "", err
	}
	return code, nil
}

// Send issues a code and delivers it through the notifier.
func (s *Service) Send(ctx context.Context, email string) error {
	code, err := s.Issue(ctx, email)
	if err != nil {
		return err
	}
	msg := notification.Message{
		Kind:        notification.KindOTP,
		Destination: normalize(email),
		Body:        fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(s.ttl.Minutes())),
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		return fmt.Errorf("deliver otp: %w", err)
	}
	return nil
}

// Resend replaces the pending code with a new one and delivers it. The previous
// code stops working.
func (s *Service) Resend(ctx context.Context, email string) error {
	return s.Send(ctx, email)
}

// Verify checks code for email. A correct code is consumed and cannot be reused.
func (s *Service) Verify(ctx context.Context, email, code string) error {
	email = normalize(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return apperr.Validation("email and otp are required")
	}
	err := s.store.Consume(ctx, email, digest(email, code), s.now())
	if err != nil && s.logger != nil {
		s.logger.Debug("otp verification failed", "email", email, "error", err)
	}
	return err
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}

func digest(email, code string) string {
	sum := sha256.Sum256([]byte(email + ":" + code))
	return hex.EncodeToString(sum[:])
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
