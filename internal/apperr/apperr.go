// Package apperr defines the application error taxonomy shared by every
// HTTP handler. Handlers convert any error into one of these kinds before
// it reaches the response envelope.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies an error category with a stable HTTP status mapping.
type Code string

const (
	CodeValidation     Code = "VALIDATION_ERROR"
	CodeAuthentication Code = "AUTHENTICATION_ERROR"
	CodeForbidden      Code = "FORBIDDEN"
	CodeNotFound       Code = "NOT_FOUND"
	CodeInternal       Code = "INTERNAL_ERROR"
)

// Error is a structured application error carrying an HTTP status and,
// for validation failures, the accumulated field-level violations.
type Error struct {
	Code    Code     `json:"code"`
	Status  int      `json:"-"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error { return e.cause }

// Validation builds a 400 error. Details hold every collected violation,
// not just the first.
func Validation(message string, details ...string) *Error {
	return &Error{Code: CodeValidation, Status: http.StatusBadRequest, Message: message, Details: details}
}

// Authentication builds a 401 error for missing or invalid sessions.
func Authentication(message string) *Error {
	return &Error{Code: CodeAuthentication, Status: http.StatusUnauthorized, Message: message}
}

// Forbidden builds a 403 error for workspace mismatches and closed forms.
func Forbidden(message string) *Error {
	return &Error{Code: CodeForbidden, Status: http.StatusForbidden, Message: message}
}

// NotFound builds a 404 error.
func NotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Status: http.StatusNotFound, Message: message}
}

// Internal wraps an unexpected failure as a 500. The cause is kept for
// logging but never serialised to clients.
func Internal(message string, cause error) *Error {
	return &Error{Code: CodeInternal, Status: http.StatusInternalServerError, Message: message, cause: cause}
}

// From coerces an arbitrary error into an *Error, defaulting to Internal.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("unexpected error", err)
}

// IsKind reports whether err belongs to the given code.
func IsKind(err error, code Code) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return IsKind(err, CodeNotFound) }

// IsForbidden reports whether err is a forbidden error.
func IsForbidden(err error) bool { return IsKind(err, CodeForbidden) }
