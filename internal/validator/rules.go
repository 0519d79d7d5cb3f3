package validator

import (
	"log"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jattu8602/presentsirweb-sub001/internal/models"
)

func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			log.Fatalf("register validation tag %q: %v", tag, err)
		}
	}

	mustRegister("digits", validateDigits)
	mustRegister("phone", validatePhone)
	mustRegister("role", validateRole)
	mustRegister("inst_type", validateInstitutionType)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func validateDigits(fl validator.FieldLevel) bool {
	return isDigits(fl.Field().String())
}

// validatePhone accepts 10-15 digits, with an optional leading '+' and
// spaces or dashes as separators.
func validatePhone(fl validator.FieldLevel) bool {
	s := strings.TrimPrefix(fl.Field().String(), "+")
	s = strings.NewReplacer(" ", "", "-", "").Replace(s)
	return isDigits(s) && len(s) >= 10 && len(s) <= 15
}

func validateRole(fl validator.FieldLevel) bool {
	return models.Role(fl.Field().String()).Valid()
}

func validateInstitutionType(fl validator.FieldLevel) bool {
	switch models.InstitutionType(fl.Field().String()) {
	case models.InstitutionSchool, models.InstitutionCollege, models.InstitutionCoaching:
		return true
	}
	return false
}
