package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jattu8602/presentsirweb-sub001/internal/models"
)

type Code string

const (
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodePendingApproval    Code = "PENDING_APPROVAL"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeForbidden          Code = "FORBIDDEN"
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeEmailExists        Code = "EMAIL_ALREADY_EXISTS"
	CodeRegistrationFailed Code = "REGISTRATION_FAILED"
	CodeNotFound           Code = "NOT_FOUND"
	CodeConfiguration      Code = "CONFIGURATION_ERROR"
	CodeInternal           Code = "INTERNAL_ERROR"
)

// Error is the application error carried from services to the HTTP layer.
// Fields holds per-field validation messages; Extra is merged into the
// response body as top-level keys.
type Error struct {
	Code    Code
	Message string
	Status  int
	Fields  map[string]string
	Extra   map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Code so sentinel values work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func New(code Code, message string, status int) *Error {
	return &Error{Code: code, Message: message, Status: status}
}

func Wrap(err error, code Code, message string, status int) *Error {
	return &Error{Code: code, Message: message, Status: status, Err: err}
}

var (
	ErrInvalidCredentials = New(CodeInvalidCredentials, "Invalid email or password", http.StatusUnauthorized)
	ErrUnauthorized       = New(CodeUnauthorized, "Authentication required", http.StatusUnauthorized)
	ErrForbidden          = New(CodeForbidden, "Access denied", http.StatusForbidden)
	ErrEmailExists        = New(CodeEmailExists, "Email is already registered", http.StatusConflict)
	ErrNotFound           = New(CodeNotFound, "Not found", http.StatusNotFound)
	ErrValidation         = New(CodeValidation, "Validation failed", http.StatusBadRequest)
	ErrConfiguration      = New(CodeConfiguration, "Server is misconfigured", http.StatusInternalServerError)
	ErrPendingApproval    = New(CodePendingApproval, "Institution is awaiting approval", http.StatusForbidden)
	ErrRegistrationFailed = New(CodeRegistrationFailed, "Registration failed", http.StatusInternalServerError)
)

func PendingApproval(status models.ApprovalStatus, reason string) *Error {
	e := &Error{
		Code:    CodePendingApproval,
		Message: "Institution is awaiting approval",
		Status:  http.StatusForbidden,
		Extra:   map[string]any{"status": status},
	}
	if status == models.StatusRejected {
		e.Message = "Institution registration was rejected"
		e.Extra["reason"] = reason
	}
	return e
}

func Validation(fields map[string]string) *Error {
	return &Error{
		Code:    CodeValidation,
		Message: "Validation failed",
		Status:  http.StatusBadRequest,
		Fields:  fields,
	}
}

// Unprocessable is a field-scoped validation failure on a well-formed request.
func Unprocessable(field, msg string) *Error {
	return &Error{
		Code:    CodeValidation,
		Message: msg,
		Status:  http.StatusUnprocessableEntity,
		Fields:  map[string]string{field: msg},
	}
}

func Configuration(err error) *Error {
	return Wrap(err, CodeConfiguration, "Server is misconfigured", http.StatusInternalServerError)
}

func EmailExists() *Error {
	return &Error{
		Code:    CodeEmailExists,
		Message: "Email is already registered",
		Status:  http.StatusConflict,
		Fields:  map[string]string{"email": "Email is already registered"},
	}
}

func RegistrationFailed(err error) *Error {
	return Wrap(err, CodeRegistrationFailed, "Registration failed", http.StatusInternalServerError)
}

func NotFound(what string) *Error {
	return New(CodeNotFound, what+" not found", http.StatusNotFound)
}

func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
