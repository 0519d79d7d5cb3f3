package request

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jattu8602/presentsirweb-sub001/internal/apperr"
	"github.com/jattu8602/presentsirweb-sub001/internal/validator"
)

// Normalizer is implemented by request bodies that clean up their input
// (trimming, canonical forms) before validation.
type Normalizer interface {
	Normalize()
}

// Bind decodes the JSON body into dst, rejecting unknown fields and
// trailing data, normalizes it when dst is a Normalizer, then runs the
// validator over it.
func Bind(c *fiber.Ctx, v *validator.Validator, dst any) error {
	if err := Decode(c.Body(), dst); err != nil {
		return err
	}
	if n, ok := dst.(Normalizer); ok {
		n.Normalize()
	}
	return v.Struct(dst)
}

func Decode(body []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return badBody("Request body is empty")
		}
		return badBody("Invalid request body: " + err.Error())
	}
	if dec.More() {
		return badBody("Request body must contain a single JSON object")
	}
	return nil
}

func badBody(msg string) error {
	return apperr.New(apperr.CodeValidation, msg, http.StatusBadRequest)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. It returns "" when the header is missing or malformed.
func BearerToken(c *fiber.Ctx) string {
	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
