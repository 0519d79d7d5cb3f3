package school

import (
	"fmt"
	"strings"

	"github.com/jattu8602/presentsirweb-sub001/internal/models"
	"github.com/jattu8602/presentsirweb-sub001/internal/validator"
)

// RegisterRequest is the full signup payload. The wizard fills it one step
// at a time; the server validates it as a whole on submit.
type RegisterRequest struct {
	// basic
	InstitutionType    models.InstitutionType `json:"institutionType" validate:"required,inst_type"`
	RegisteredName     string                 `json:"registeredName" validate:"required,min=3,max=200"`
	RegistrationNumber string                 `json:"registrationNumber" validate:"required,min=3,max=100"`
	PlanType           models.PlanType        `json:"planType" validate:"required,oneof=BASIC STANDARD PREMIUM"`
	PlanDuration       models.PlanDuration    `json:"planDuration" validate:"required,oneof=MONTHLY YEARLY"`

	// contact
	Email       string `json:"email" validate:"required,email,max=255"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	Phone       string `json:"phone" validate:"required,phone"`
	AddressLine string `json:"addressLine" validate:"required,min=5,max=255"`
	City        string `json:"city" validate:"required,min=2,max=100"`
	State       string `json:"state" validate:"required,min=2,max=100"`
	PostalCode  string `json:"postalCode" validate:"required,len=6,digits"`
	Website     string `json:"website,omitempty" validate:"omitempty,url,max=255"`

	// principal
	PrincipalName  string `json:"principalName" validate:"required,min=3,max=150"`
	PrincipalEmail string `json:"principalEmail" validate:"required,email,max=255"`
	PrincipalPhone string `json:"principalPhone" validate:"required,phone"`
}

// Normalize trims both email addresses and stores phone numbers in their
// compact form: an optional leading '+' followed by digits only, with
// spaces and dashes removed.
func (r *RegisterRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
	r.PrincipalEmail = strings.TrimSpace(r.PrincipalEmail)
	r.Phone = compactPhone(r.Phone)
	r.PrincipalPhone = compactPhone(r.PrincipalPhone)
}

var phoneSeparators = strings.NewReplacer(" ", "", "-", "")

func compactPhone(s string) string {
	return phoneSeparators.Replace(strings.TrimSpace(s))
}

type Step string

const (
	StepBasic     Step = "basic"
	StepContact   Step = "contact"
	StepPrincipal Step = "principal"
	StepComplete  Step = "complete"
)

// Steps lists the wizard in order.
var Steps = []Step{StepBasic, StepContact, StepPrincipal, StepComplete}

var stepFields = map[Step][]string{
	StepBasic:     {"InstitutionType", "RegisteredName", "RegistrationNumber", "PlanType", "PlanDuration"},
	StepContact:   {"Email", "Password", "Phone", "AddressLine", "City", "State", "PostalCode", "Website"},
	StepPrincipal: {"PrincipalName", "PrincipalEmail", "PrincipalPhone"},
}

func ParseStep(s string) (Step, error) {
	for _, st := range Steps {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown step %q", s)
}

// Next returns the step after s, or StepComplete.
func (s Step) Next() Step {
	for i, st := range Steps {
		if st == s && i+1 < len(Steps) {
			return Steps[i+1]
		}
	}
	return StepComplete
}

func (s Step) Prev() Step {
	for i, st := range Steps {
		if st == s && i > 0 {
			return Steps[i-1]
		}
	}
	return StepBasic
}

// ValidateStep normalizes req, then checks only the fields owned by step.
// StepComplete checks the whole request.
func ValidateStep(v *validator.Validator, step Step, req *RegisterRequest) error {
	req.Normalize()
	if step == StepComplete {
		return v.Struct(req)
	}
	fields, ok := stepFields[step]
	if !ok {
		return fmt.Errorf("unknown step %q", step)
	}
	return v.Partial(req, fields...)
}
