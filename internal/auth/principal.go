package auth

import "github.com/gofiber/fiber/v2"

const principalKey = "auth.principal"

// SetPrincipal stores the authenticated principal on the request.
func SetPrincipal(c *fiber.Ctx, p Principal) {
	c.Locals(principalKey, p)
}

// PrincipalFrom returns the principal stored by the auth middleware.
func PrincipalFrom(c *fiber.Ctx) (Principal, bool) {
	p, ok := c.Locals(principalKey).(Principal)
	return p, ok && p.UserID != ""
}
