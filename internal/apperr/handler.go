package apperr

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jattu8602/presentsirweb-sub001/internal/logger"
)

// ErrorHandler renders *Error and *fiber.Error as JSON. Anything else, and
// server-side errors such as misconfiguration, becomes a bare 500 with the
// cause kept in the log only.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if e, ok := As(err); ok {
		if e.Status >= fiber.StatusInternalServerError {
			logger.With("code", e.Code, "path", c.Path()).Error("request failed", "error", err.Error())
			return internal(c)
		}

		body := fiber.Map{
			"error": e.Message,
			"code":  e.Code,
		}
		if len(e.Fields) > 0 {
			body["fields"] = e.Fields
		}
		for k, v := range e.Extra {
			body[k] = v
		}
		return c.Status(e.Status).JSON(body)
	}

	if e, ok := err.(*fiber.Error); ok {
		return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
	}

	logger.With("path", c.Path()).Error("unexpected error", "error", err.Error())
	return internal(c)
}

func internal(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Unexpected server error",
		"code":  CodeInternal,
	})
}
