// Package apperror defines the application's error taxonomy.
//
// Every public operation fails with one of the sentinel errors below, wrapped
// in an *AppError carrying a human-readable message. Handlers map sentinels to
// HTTP status codes with errors.Is — nothing below this package knows about
// HTTP, and no raw store/transport error ever reaches a client.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrValidation      = errors.New("validation error")
	ErrNotFound        = errors.New("not found")
	ErrSelfTarget      = errors.New("self target")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
)

type AppError struct {
	Err     error  // sentinel classifying the failure
	Message string // human-readable error message
	Field   string // optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Unauthenticated reports a request with no usable session.
func Unauthenticated(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: message,
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func NotFound(resource, key string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, key),
	}
}

// SelfTarget reports an operation aimed at the acting identity itself.
// Sending a connection request or a message to your own handle is rejected
// regardless of any other input.
func SelfTarget(message string) *AppError {
	return &AppError{
		Err:     ErrSelfTarget,
		Message: message,
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

// Conflict reports a unique-constraint collision on a user-chosen value.
func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}
