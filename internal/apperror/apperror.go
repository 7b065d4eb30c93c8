// Package apperror defines the typed failures every layer of the club backend
// returns. Repositories and services produce them; the HTTP layer maps them to
// status codes in exactly one place (handler/response.go).
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound                 = errors.New("not found")
	ErrValidation               = errors.New("validation error")
	ErrConflict                 = errors.New("conflict")
	ErrForbidden                = errors.New("forbidden")
	ErrUnauthorized             = errors.New("unauthorized")
	ErrInsufficientParticipants = errors.New("insufficient participants")
	ErrTransient                = errors.New("transient storage failure")
)

type AppError struct {
	Err     error  // sentinel the error matches with errors.Is
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	cause   error  // Optional: underlying driver error
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes both the sentinel and, when present, the underlying cause.
func (e *AppError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.cause}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, key string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s already exists with %s", resource, key),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized is returned when credentials are missing or wrong.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

func InsufficientParticipants(have, need int) *AppError {
	return &AppError{
		Err:     ErrInsufficientParticipants,
		Message: fmt.Sprintf("not enough members for a tournament: have %d, need %d", have, need),
	}
}

// Transient wraps a storage error that is worth retrying (a busy or locked
// database). The cause stays reachable through errors.Is / errors.As.
func Transient(op string, cause error) *AppError {
	return &AppError{
		Err:     ErrTransient,
		Message: fmt.Sprintf("%s: storage temporarily unavailable", op),
		cause:   cause,
	}
}

// IsTransient reports whether err is (or wraps) a transient storage failure.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
