// Package apperror maps domain failures onto HTTP responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for common conditions.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnavailable  = errors.New("service unavailable")
	ErrInternal     = errors.New("internal error")
)

// statuses is consulted in order for errors that are not an *AppError.
var statuses = []struct {
	sentinel error
	status   int
}{
	{ErrNotFound, http.StatusNotFound},
	{ErrValidation, http.StatusBadRequest},
	{ErrUnauthorized, http.StatusUnauthorized},
	{ErrUnavailable, http.StatusServiceUnavailable},
	{ErrInternal, http.StatusInternalServerError},
}

// AppError carries a client-facing message, its HTTP status and optional
// per-field reasons.
type AppError struct {
	Err     error
	Message string
	Status  int
	Fields  map[string]string
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithField attaches a per-field reason and returns the same error.
func (e *AppError) WithField(name, reason string) *AppError {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[name] = reason
	return e
}

func newError(sentinel error, format string, args []interface{}) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: fmt.Sprintf(format, args...),
		Status:  HTTPStatus(sentinel),
	}
}

// NotFound creates a 404 error.
func NotFound(format string, args ...interface{}) *AppError {
	return newError(ErrNotFound, format, args)
}

// Validation creates a 400 error.
func Validation(format string, args ...interface{}) *AppError {
	return newError(ErrValidation, format, args)
}

// Unavailable creates a 503 error.
func Unavailable(format string, args ...interface{}) *AppError {
	return newError(ErrUnavailable, format, args)
}

// Internal creates a 500 error.
func Internal(format string, args ...interface{}) *AppError {
	return newError(ErrInternal, format, args)
}

// HTTPStatus extracts the HTTP status code from an error, defaulting to 500.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}
	for _, s := range statuses {
		if errors.Is(err, s.sentinel) {
			return s.status
		}
	}
	return http.StatusInternalServerError
}
