package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/arihant-coaching/coaching_api/internal/apperr"
	"github.com/arihant-coaching/coaching_api/internal/identity"
)

var (
	// ErrTokenInvalid covers bad signatures, malformed tokens and unexpected algorithms.
	ErrTokenInvalid = apperr.New(apperr.KindAuth, "token_invalid", "invalid token")
	// ErrTokenExpired means the token was valid but its lifetime has passed.
	ErrTokenExpired = apperr.New(apperr.KindAuth, "token_expired", "token has expired")
)

// Principal is the identity carried by a validated token.
type Principal struct {
	UserID string
	Role   string
}

// Token is a signed session token and its expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and validates HS256 session tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService builds a token service signing with secret.
func NewTokenService(secret []byte, ttl time.Duration) *TokenService {
	return &TokenService{secret: secret, ttl: ttl, now: time.Now}
}

// WithClock replaces the time source. Intended for tests.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// Issue signs a token for user.
func (s *TokenService) Issue(user identity.User) (Token, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return Token{}, err
	}
	return Token{Value: signed, ExpiresAt: exp.UTC()}, nil
}

// Validate checks signature, algorithm and expiry and returns the principal.
func (s *TokenService) Validate(value string) (Principal, error) {
	var c claims
	_, err := jwt.ParseWithClaims(value, &c, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return Principal{}, ErrTokenExpired
	case err != nil:
		return Principal{}, ErrTokenInvalid.Wrap(err)
	}
	if c.Subject == "" {
		return Principal{}, ErrTokenInvalid
	}
	return Principal{UserID: c.Subject, Role: c.Role}, nil
}
