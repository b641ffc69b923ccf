package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/arihant-coaching/coaching_api/internal/apperr"
	"github.com/arihant-coaching/coaching_api/internal/auth"
)

var (
	errAuthRequired     = apperr.New(apperr.KindAuth, "auth_required", "authentication required")
	errPermissionDenied = apperr.New(apperr.KindPermission, "permission_denied", "you do not have access to this resource")
)

// TokenValidator resolves a bearer token to a principal.
type TokenValidator interface {
	Validate(token string) (auth.Principal, error)
}

// Authenticate requires a valid bearer token and stores its principal on the request.
func Authenticate(tokens TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		if len(authz) < len("bearer ") || !strings.EqualFold(authz[:len("bearer ")], "bearer ") {
			return errAuthRequired
		}
		token := strings.TrimSpace(authz[len("bearer "):])
		if token == "" {
			return errAuthRequired
		}
		principal, err := tokens.Validate(token)
		if err != nil {
			return err
		}
		auth.SetPrincipal(c, principal)
		return c.Next()
	}
}

// RequireRole admits only principals holding one of roles. It must run after Authenticate.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *fiber.Ctx) error {
		principal, ok := auth.PrincipalFrom(c)
		if !ok {
			return errAuthRequired
		}
		if _, ok := allowed[principal.Role]; !ok {
			return errPermissionDenied
		}
		return c.Next()
	}
}
