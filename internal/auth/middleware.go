package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jattu8602/presentsirweb-sub001/internal/apperr"
	"github.com/jattu8602/presentsirweb-sub001/internal/models"
	"github.com/jattu8602/presentsirweb-sub001/internal/request"
	"github.com/jattu8602/presentsirweb-sub001/internal/token"
)

const (
	CtxClaimsKey   = "claims"
	CtxUserIDKey   = "user_id"
	CtxUserRoleKey = "user_role"
)

// JWTMiddleware verifies the bearer token and stores its claims in
// c.Locals. The role claim is trusted as-is from here on.
func JWTMiddleware(tokens *token.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := request.BearerToken(c)
		if raw == "" {
			return apperr.ErrUnauthorized
		}

		claims, err := tokens.Verify(raw)
		if err != nil {
			return apperr.Wrap(err, apperr.CodeUnauthorized, "Invalid or expired token", fiber.StatusUnauthorized)
		}

		c.Locals(CtxClaimsKey, claims)
		c.Locals(CtxUserIDKey, claims.AccountID)
		c.Locals(CtxUserRoleKey, claims.Role)

		return c.Next()
	}
}

func RequireRole(allowed ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(CtxUserRoleKey).(models.Role)
		if !ok {
			return apperr.ErrForbidden
		}

		for _, r := range allowed {
			if r == role {
				return c.Next()
			}
		}
		return apperr.ErrForbidden
	}
}

// ClaimsFrom returns the claims stored by JWTMiddleware, or nil.
func ClaimsFrom(c *fiber.Ctx) *token.Claims {
	claims, _ := c.Locals(CtxClaimsKey).(*token.Claims)
	return claims
}
