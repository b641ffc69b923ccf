package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arihant-coaching/coaching_api/internal/identity"
)

var testSecret = []byte("0123456789abcdef-test-secret")

func TestIssueValidateRoundTrip(t *testing.T) {
	svc := NewTokenService(testSecret, 24*time.Hour)
	tok, err := svc.Issue(identity.User{ID: "user-1", Role: identity.RoleAdmin})
	require.NoError(t, err)

	p, err := svc.Validate(tok.Value)
	require.NoError(t, err)
	assert.Equal(t, Principal{UserID: "user-1", Role: identity.RoleAdmin}, p)
}

func TestValidateExpired(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc := NewTokenService(testSecret, time.Hour).WithClock(func() time.Time { return now })
	tok, err := svc.Issue(identity.User{ID: "user-1", Role: identity.RoleUser})
	require.NoError(t, err)

	later := NewTokenService(testSecret, time.Hour).WithClock(func() time.Time { return now.Add(2 * time.Hour) })
	_, err = later.Validate(tok.Value)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateRejectsForeignSignature(t *testing.T) {
	other := NewTokenService([]byte("another-secret-of-enough-length"), time.Hour)
	tok, err := other.Issue(identity.User{ID: "user-1", Role: identity.RoleAdmin})
	require.NoError(t, err)

	_, err = NewTokenService(testSecret, time.Hour).Validate(tok.Value)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidateRejectsMalformedAndNone(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour)

	_, err := svc.Validate("not.a.token")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub":  "user-1",
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.Validate(raw)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
