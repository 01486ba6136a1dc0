// Package domainerrors defines the error taxonomy shared by services and the
// HTTP layer. Services return coded errors; the transport layer maps codes to
// HTTP statuses without inspecting error strings.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error for transport mapping and logging.
type Code string

const (
	// CodeBadRequest covers malformed payloads (unparseable JSON, wrong
	// content type, empty body).
	CodeBadRequest Code = "bad_request"

	// CodeValidation covers well-formed payloads that violate the input
	// signature. Carries field-level details.
	CodeValidation Code = "validation_error"

	// CodeUnavailable signals the service is not ready to accept traffic.
	CodeUnavailable Code = "unavailable"

	// CodeInternal covers unexpected failures. Descriptions are withheld
	// from HTTP responses for this code.
	CodeInternal Code = "internal_error"
)

// FieldError describes a single violating field in a validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is a coded domain error with an optional wrapped cause and optional
// field-level validation details.
type Error struct {
	Code        Code
	Description string
	Fields      []FieldError
	cause       error
}

// New builds a domain error with the given code and description.
func New(code Code, description string) *Error {
	return &Error{Code: code, Description: description}
}

// Newf builds a domain error with a formatted description.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Description: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and description to an underlying error.
func Wrap(err error, code Code, description string) *Error {
	return &Error{Code: code, Description: description, cause: err}
}

// NewValidation builds a validation error carrying every violating field so
// callers can correct the whole payload in one round trip.
func NewValidation(fields []FieldError) *Error {
	return &Error{
		Code:        CodeValidation,
		Description: "request does not satisfy the model input signature",
		Fields:      fields,
	}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Description, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Unwrap exposes the cause for errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.cause
}

// CodeOf extracts the domain code from an error chain. Unknown errors are
// treated as internal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether the error chain carries the given code.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// FieldsOf extracts field-level details from an error chain, if any.
func FieldsOf(err error) []FieldError {
	var de *Error
	if errors.As(err, &de) {
		return de.Fields
	}
	return nil
}

// HTTPStatus maps a domain code to an HTTP status code.
func HTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeValidation:
		return http.StatusUnprocessableEntity
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
