// Package apperrors defines the domain error taxonomy shared by the
// repository, service and handler layers.
package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors. Services wrap these with context via %w so handlers can
// classify with errors.Is while keeping the original message.
var (
	// ErrNotFound covers both a truly absent entity and an entity owned by
	// another tenant. The two are indistinguishable on purpose.
	ErrNotFound = errors.New("recurso não encontrado")

	// ErrValidation marks malformed input or a failed checksum.
	ErrValidation = errors.New("dados inválidos")

	// ErrConflict marks duplicate unique fields and invalid state transitions.
	ErrConflict = errors.New("conflito")

	// ErrUnauthorized marks missing or invalid credentials.
	ErrUnauthorized = errors.New("não autenticado")

	// ErrForbidden marks an authenticated caller without permission.
	ErrForbidden = errors.New("acesso negado")

	// ErrUpstream marks a failed call to an external service (AI, storage).
	ErrUpstream = errors.New("falha em serviço externo")
)

// NotFound returns a not-found error naming the resource.
func NotFound(resource string) error {
	return fmt.Errorf("%s: %w", resource, ErrNotFound)
}

// Validation returns a validation error with a human-readable reason.
func Validation(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrValidation)...)
}

// Conflict returns a conflict error with a human-readable reason.
func Conflict(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrConflict)...)
}

// Unauthorized returns an authentication error with a human-readable reason.
func Unauthorized(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrUnauthorized)
}

// Forbidden returns a permission error with a human-readable reason.
func Forbidden(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrForbidden)
}

// Upstream wraps an external-service failure.
func Upstream(service string, err error) error {
	return fmt.Errorf("%s: %v: %w", service, err, ErrUpstream)
}

// Code returns the machine-readable code string for an error, used in the
// API error envelope.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrValidation):
		return "VALIDATION_ERROR"
	case errors.Is(err, ErrConflict):
		return "CONFLICT"
	case errors.Is(err, ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, ErrForbidden):
		return "FORBIDDEN"
	case errors.Is(err, ErrUpstream):
		return "UPSTREAM_ERROR"
	default:
		return "INTERNAL_ERROR"
	}
}
