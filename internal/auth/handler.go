package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jattu8602/presentsirweb-sub001/internal/apperr"
	"github.com/jattu8602/presentsirweb-sub001/internal/request"
	"github.com/jattu8602/presentsirweb-sub001/internal/token"
	"github.com/jattu8602/presentsirweb-sub001/internal/validator"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Normalize trims the email so padded input passes the email rule. Case
// folding happens in the service.
func (r *LoginRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
}

type GoogleLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

type AdminLoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func LoginHandler(svc *Service, v *validator.Validator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := request.Bind(c, v, &body); err != nil {
			return err
		}

		res, err := svc.Login(c.UserContext(), body.Email, body.Password)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

func GoogleLoginHandler(svc *Service, v *validator.Validator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body GoogleLoginRequest
		if err := request.Bind(c, v, &body); err != nil {
			return err
		}

		res, err := svc.LoginGoogle(c.UserContext(), body.IDToken)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

func VerifyHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := svc.Verify(c.UserContext(), request.BearerToken(c))
		if user == nil {
			return apperr.ErrUnauthorized
		}
		return c.JSON(fiber.Map{"user": user})
	}
}

// LogoutHandler exists for clients that call it; tokens are stateless and
// there is nothing to revoke server-side.
func LogoutHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func AdminLoginHandler(svc *Service, v *validator.Validator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body AdminLoginRequest
		if err := request.Bind(c, v, &body); err != nil {
			return err
		}

		res, err := svc.LoginAdmin(body.Username, body.Password)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// AdminAuthHandler runs behind JWTMiddleware and RequireRole(ADMIN).
func AdminAuthHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := ClaimsFrom(c)
		if claims == nil {
			return apperr.ErrUnauthorized
		}
		if claims.Kind == token.KindAdmin {
			return c.JSON(fiber.Map{"user": AdminIdentity(claims.Email)})
		}
		return c.JSON(fiber.Map{"user": claims.Identity()})
	}
}
