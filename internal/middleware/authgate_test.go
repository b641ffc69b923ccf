package middleware

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arihant-coaching/coaching_api/internal/auth"
	"github.com/arihant-coaching/coaching_api/internal/identity"
	"github.com/arihant-coaching/coaching_api/internal/logging"
)

func gatedApp(tokens *auth.TokenService) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logging.Discard())})
	app.Use(RequestID())
	admin := app.Group("/admin", Authenticate(tokens), RequireRole(identity.RoleAdmin))
	admin.Get("/users", func(c *fiber.Ctx) error {
		p, _ := auth.PrincipalFrom(c)
		return c.JSON(fiber.Map{"caller": p.UserID})
	})
	return app
}

func errorCode(t *testing.T, app *fiber.App, token string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, "/admin/users", nil)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body errorResponse
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp.StatusCode, body.Error.Code
}

func TestAdminGate(t *testing.T) {
	tokens := auth.NewTokenService([]byte("gate-test-secret-0123456789"), time.Hour)
	app := gatedApp(tokens)

	status, code := errorCode(t, app, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "auth_required", code)

	status, code = errorCode(t, app, "garbage")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "token_invalid", code)

	userTok, err := tokens.Issue(identity.User{ID: "u1", Role: identity.RoleUser})
	require.NoError(t, err)
	status, code = errorCode(t, app, userTok.Value)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "permission_denied", code)

	adminTok, err := tokens.Issue(identity.User{ID: "a1", Role: identity.RoleAdmin})
	require.NoError(t, err)
	status, _ = errorCode(t, app, adminTok.Value)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestAdminGateExpiredToken(t *testing.T) {
	past := time.Now().Add(-48 * time.Hour)
	stale := auth.NewTokenService([]byte("gate-test-secret-0123456789"), time.Hour).WithClock(func() time.Time { return past })
	tok, err := stale.Issue(identity.User{ID: "a1", Role: identity.RoleAdmin})
	require.NoError(t, err)

	app := gatedApp(auth.NewTokenService([]byte("gate-test-secret-0123456789"), time.Hour))
	status, code := errorCode(t, app, tok.Value)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "token_expired", code)
}
