package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arihant-coaching/coaching_api/internal/auth"
	"github.com/arihant-coaching/coaching_api/internal/config"
	"github.com/arihant-coaching/coaching_api/internal/gateway"
	"github.com/arihant-coaching/coaching_api/internal/identity"
	"github.com/arihant-coaching/coaching_api/internal/logging"
	"github.com/arihant-coaching/coaching_api/internal/notification"
	"github.com/arihant-coaching/coaching_api/internal/routes"
)

const paymentSecret = "rzp_test_secret"

type mailbox struct {
	mu   sync.Mutex
	sent []notification.Message
}

func (m *mailbox) Send(_ context.Context, msg notification.Message) error {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	return nil
}

var codePattern = regexp.MustCompile(`\d{6}`)

func (m *mailbox) lastOTP(t *testing.T, email string) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].Kind == notification.KindOTP && m.sent[i].Destination == email {
			return codePattern.FindString(m.sent[i].Body)
		}
	}
	t.Fatalf("no otp delivered to %s", email)
	return ""
}

func testConfig(t *testing.T) config.Config {
	return config.Config{
		AppName:           "coaching-api-test",
		AppEnv:            "test",
		JWTSecret:         "server-test-secret-0123456789",
		TokenTTL:          time.Hour,
		BcryptCost:        10,
		OTPTTL:            10 * time.Minute,
		OTPAttempts:       5,
		RazorpayKeySecret: paymentSecret,
		Currency:          "INR",
		IdempotencyTTL:    time.Hour,
		LoginPerMinute:    5,
		InstituteName:     "Arihant Coaching Classes",
		ReceiptDir:        t.TempDir(),
		SnowflakeNode:     1,
	}
}

type harness struct {
	t    *testing.T
	app  *fiber.App
	mail *mailbox
	cfg  config.Config
}

func newHarness(t *testing.T) *harness {
	cfg := testConfig(t)
	mail := &mailbox{}
	srv, err := New(routes.Deps{Cfg: cfg, Logger: logging.Discard(), Notifier: mail})
	require.NoError(t, err)
	return &harness{t: t, app: srv.App(), mail: mail, cfg: cfg}
}

func (h *harness) do(method, path, token string, body any) (int, map[string]any) {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := h.app.Test(req, 10_000)
	require.NoError(h.t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func errCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func TestRegisterLoginScenario(t *testing.T) {
	h := newHarness(t)

	status, body := h.do(fiber.MethodPost, "/api/register", "", fiber.Map{"name": "Asha", "email": "asha@x.com", "password": "pw123"})
	require.Equal(t, fiber.StatusCreated, status, body)
	assert.Equal(t, true, body["otp_sent"])

	status, body = h.do(fiber.MethodPost, "/api/register", "", fiber.Map{"name": "Asha", "email": "ASHA@X.COM", "password": "pw123"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "duplicate_account", errCode(body))

	status, body = h.do(fiber.MethodPost, "/api/auth/login", "", fiber.Map{"email": "ASHA@X.COM", "password": "pw123"})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, identity.RoleUser, body["role"])
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	status, body = h.do(fiber.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	user, _ := body["user"].(map[string]any)
	assert.Equal(t, "asha@x.com", user["email"])
	assert.NotContains(t, user, "password_hash")

	status, body = h.do(fiber.MethodPost, "/api/auth/login", "", fiber.Map{"email": "asha@x.com", "password": "nope"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "invalid_credential", errCode(body))

	status, body = h.do(fiber.MethodPost, "/api/auth/login", "", fiber.Map{"email": "ghost@x.com", "password": "pw123"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "not_found", errCode(body))
}

func TestOTPVerification(t *testing.T) {
	h := newHarness(t)

	status, _ := h.do(fiber.MethodPost, "/api/auth/register", "", fiber.Map{"name": "Ravi", "email": "ravi@x.com", "password": "secret"})
	require.Equal(t, fiber.StatusCreated, status)
	code := h.mail.lastOTP(t, "ravi@x.com")

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	status, body := h.do(fiber.MethodPost, "/api/auth/verify-otp", "", fiber.Map{"email": "ravi@x.com", "otp": wrong})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "otp_mismatch", errCode(body))

	status, body = h.do(fiber.MethodPost, "/api/auth/verify-otp", "", fiber.Map{"email": "RAVI@x.com", "otp": code})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, true, body["verified"])

	status, body = h.do(fiber.MethodPost, "/api/auth/verify-otp", "", fiber.Map{"email": "ravi@x.com", "otp": code})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "otp_not_found", errCode(body))

	status, _ = h.do(fiber.MethodPost, "/api/auth/resend-otp", "", fiber.Map{"email": "ravi@x.com"})
	assert.Equal(t, fiber.StatusOK, status)
	assert.NotEmpty(t, h.mail.lastOTP(t, "ravi@x.com"))
}

func TestCheckoutFlow(t *testing.T) {
	h := newHarness(t)

	status, body := h.do(fiber.MethodGet, "/api/payment/config", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.NotEmpty(t, body["key_id"])
	assert.NotContains(t, body, "key_secret")

	status, body = h.do(fiber.MethodPost, "/api/payment/order", "", fiber.Map{"amount": 1500})
	require.Equal(t, fiber.StatusOK, status, body)
	orderID, _ := body["order_id"].(string)
	require.NotEmpty(t, orderID)
	assert.EqualValues(t, 150000, body["amount"])

	admission := fiber.Map{"studentName": "Asha", "standard": "10", "medium": "English", "contact": "9999999999", "email": "asha@x.com", "amount": 1500}
	status, body = h.do(fiber.MethodPost, "/api/payment/verify", "", fiber.Map{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": "pay_1",
		"razorpay_signature":  "deadbeef",
		"admissionData":       admission,
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "signature_mismatch", errCode(body))

	sig := gateway.NewVerifier(paymentSecret).Sign(orderID, "pay_1")
	verify := fiber.Map{"orderId": orderID, "paymentId": "pay_1", "signature": sig, "admissionData": admission}
	status, body = h.do(fiber.MethodPost, "/api/payment/verify", "", verify)
	require.Equal(t, fiber.StatusOK, status, body)
	record, _ := body["record"].(map[string]any)
	assert.Equal(t, "Success", record["status"])
	first, _ := body["admission"].(map[string]any)
	assert.NotEmpty(t, first["pdfLink"])

	status, body = h.do(fiber.MethodPost, "/api/payment/verify", "", verify)
	require.Equal(t, fiber.StatusOK, status)
	again, _ := body["admission"].(map[string]any)
	assert.Equal(t, first["id"], again["id"])

	status, body = h.do(fiber.MethodPost, "/api/payment/save", "", fiber.Map{"studentName": "Asha", "email": "asha@x.com", "amount": 1500, "paymentId": "pay_1", "status": "paid"})
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "duplicate_payment", errCode(body))

	status, body = h.do(fiber.MethodPost, "/api/payment/save", "", fiber.Map{"studentName": "Ravi", "email": "ravi@x.com", "amount": 900, "paymentId": "pay_2", "status": "paid"})
	require.Equal(t, fiber.StatusCreated, status, body)
	payment, _ := body["payment"].(map[string]any)
	assert.Equal(t, "Success", payment["status"])
}

func TestAdminGateOverHTTP(t *testing.T) {
	h := newHarness(t)
	tokens := auth.NewTokenService(h.cfg.SigningSecret(), time.Hour)

	status, _ := h.do(fiber.MethodPost, "/api/register", "", fiber.Map{"name": "Asha", "email": "asha@x.com", "password": "pw123"})
	require.Equal(t, fiber.StatusCreated, status)

	status, body := h.do(fiber.MethodGet, "/api/admin/users", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "auth_required", errCode(body))

	userTok, err := tokens.Issue(identity.User{ID: "user-1", Role: identity.RoleUser})
	require.NoError(t, err)
	status, body = h.do(fiber.MethodGet, "/api/admin/users", userTok.Value, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "permission_denied", errCode(body))

	adminTok, err := tokens.Issue(identity.User{ID: "admin-1", Role: identity.RoleAdmin})
	require.NoError(t, err)
	status, body = h.do(fiber.MethodGet, "/api/admin/users?q=asha&limit=10", adminTok.Value, nil)
	require.Equal(t, fiber.StatusOK, status, body)
	assert.EqualValues(t, 1, body["total"])
	assert.EqualValues(t, 1, body["pages"])

	status, _ = h.do(fiber.MethodPost, "/api/courses", userTok.Value, fiber.Map{"title": "NEET", "fees": 20000})
	assert.Equal(t, fiber.StatusForbidden, status)
	status, body = h.do(fiber.MethodPost, "/api/courses", adminTok.Value, fiber.Map{"title": "NEET", "fees": 20000})
	require.Equal(t, fiber.StatusCreated, status, body)
	assert.Equal(t, "General", body["category"])

	status, _ = h.do(fiber.MethodGet, "/api/ping", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	status, _ = h.do(fiber.MethodGet, "/healthz", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
}
