package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/attendance-portal/internal/models"
	"github.com/noah-isme/attendance-portal/internal/utils"
)

// IdentityResolver resolves the identity behind a backend session secret.
type IdentityResolver interface {
	CurrentUser(ctx context.Context, secret string) *models.Identity
}

// RequireRole re-checks the caller's identity on every request and only lets callers holding one of
// roles through. Everyone else is sent to loginPath.
func RequireRole(resolver IdentityResolver, loginPath string, roles ...string) fiber.Handler {
	allowed := make([]string, 0, len(roles))
	for _, role := range roles {
		if normalized := models.NormalizeRole(role); normalized != "" {
			allowed = append(allowed, normalized)
		}
	}

	return func(c *fiber.Ctx) error {
		identity := ResolveIdentity(c, resolver)
		if identity == nil {
			return denyAccess(c, fiber.StatusUnauthorized, "authentication required", loginPath)
		}
		if !identity.HasAnyRole(allowed...) {
			return denyAccess(c, fiber.StatusForbidden, "insufficient permissions", loginPath)
		}
		return c.Next()
	}
}

// ResolveIdentity returns the identity for the request, asking the backend at most once per request.
func ResolveIdentity(c *fiber.Ctx, resolver IdentityResolver) *models.Identity {
	if identity := CurrentIdentity(c); identity != nil {
		return identity
	}

	secret := SessionSecret(c)
	if secret == "" || resolver == nil {
		return nil
	}

	identity := resolver.CurrentUser(c.UserContext(), secret)
	if identity == nil {
		return nil
	}
	c.Locals(LocalIdentity, identity)
	c.Locals(LocalUserID, identity.ID)
	c.Locals(LocalUserRole, identity.PrimaryRole())
	return identity
}

// CurrentIdentity returns the identity already resolved for this request.
func CurrentIdentity(c *fiber.Ctx) *models.Identity {
	if identity, ok := c.Locals(LocalIdentity).(*models.Identity); ok {
		return identity
	}
	return nil
}

// WantsHTML reports whether the caller is a browser navigation rather than an API client.
func WantsHTML(c *fiber.Ctx) bool {
	if strings.TrimSpace(c.Get(fiber.HeaderAccept)) == "" {
		return false
	}
	return c.Accepts(fiber.MIMEApplicationJSON, fiber.MIMETextHTML) == fiber.MIMETextHTML
}

func denyAccess(c *fiber.Ctx, status int, message, loginPath string) error {
	if loginPath != "" && WantsHTML(c) {
		return c.Redirect(loginPath, fiber.StatusSeeOther)
	}

	var details interface{}
	if loginPath != "" {
		details = fiber.Map{"redirect": loginPath}
	}
	return utils.Fail(c, status, message, details)
}
