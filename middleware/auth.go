package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/crystal-dz/storefront_api/shared"
)

// TokenVerifier resolves a bearer token to the role it was issued for.
type TokenVerifier interface {
	ExtractTokenFromHeader(authHeader string) (string, error)
	VerifyJWTToken(token string) (string, error)
}

// RequireRole rejects requests without a valid bearer token for role.
func RequireRole(verifier TokenVerifier, role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := verifier.ExtractTokenFromHeader(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return shared.NewUnauthorizedError(err, "Unauthorized")
		}

		subject, err := verifier.VerifyJWTToken(token)
		if err != nil {
			return shared.NewUnauthorizedError(err, "Invalid token")
		}

		if subject != role {
			return shared.NewUnauthorizedError(nil, "Unauthorized")
		}

		c.Locals(shared.AdminSubject, subject)
		return c.Next()
	}
}
