package auth

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

// LocalsPrincipal is the fiber locals key holding the request's *Principal.
const LocalsPrincipal = "principal"

// RequireAuthenticated creates Fiber middleware that parses the Authorization
// header into a Principal. The header is accepted with or without a "Bearer " prefix.
func RequireAuthenticated(issuer *TokenIssuer) fiber.Handler {
	return func(c fiber.Ctx) error {
		principal, err := issuer.Parse(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			log.Debug().Err(err).Str("path", c.Path()).Msg("rejected bearer token")
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or missing token")
		}

		c.Locals(LocalsPrincipal, principal)

		return c.Next()
	}
}

// RequirePermission creates Fiber middleware that requires an exact permission
// code in the request's Principal. It must run after RequireAuthenticated.
func RequirePermission(code string) fiber.Handler {
	return func(c fiber.Ctx) error {
		principal, ok := PrincipalFrom(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or missing token")
		}

		if !principal.HasPermission(code) {
			log.Warn().Str("username", principal.Subject).Str("permission", code).
				Msg("User lacks required permission")

			return fiber.NewError(fiber.StatusForbidden, "you don't have permission to access this resource")
		}

		return c.Next()
	}
}

// PrincipalFrom returns the principal stored by RequireAuthenticated.
func PrincipalFrom(c fiber.Ctx) (*Principal, bool) {
	principal, ok := c.Locals(LocalsPrincipal).(*Principal)

	return principal, ok && principal != nil
}
