package school

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jattu8602/presentsirweb-sub001/internal/apperr"
	"github.com/jattu8602/presentsirweb-sub001/internal/request"
	"github.com/jattu8602/presentsirweb-sub001/internal/validator"
)

func RegisterHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterRequest
		if err := request.Decode(c.Body(), &body); err != nil {
			return err
		}

		res, err := svc.Register(c.UserContext(), &body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// ValidateStepHandler checks one wizard step (?step=basic|contact|principal|complete)
// without creating anything.
func ValidateStepHandler(v *validator.Validator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		step, err := ParseStep(c.Query("step"))
		if err != nil {
			return apperr.Validation(map[string]string{"step": err.Error()})
		}

		var body RegisterRequest
		if err := request.Decode(c.Body(), &body); err != nil {
			return err
		}
		if err := ValidateStep(v, step, &body); err != nil {
			return err
		}

		return c.JSON(fiber.Map{
			"step":  step,
			"valid": true,
			"next":  step.Next(),
		})
	}
}
