package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Verifier checks checkout callback signatures with the provider key secret.
type Verifier struct {
	secret []byte
}

// NewVerifier builds a verifier for the given key secret.
func NewVerifier(secret string) Verifier {
	return Verifier{secret: []byte(secret)}
}

// Sign returns the hex HMAC-SHA256 of "orderID|paymentID".
func (v Verifier) Sign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches. The comparison is constant-time.
func (v Verifier) Verify(orderID, paymentID, signature string) bool {
	if len(v.secret) == 0 || orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	expected := v.Sign(orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}
