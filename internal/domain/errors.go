package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the application.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized access")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("resource already exists")
	ErrInternal     = errors.New("internal server error")
	ErrInvalidInput = errors.New("invalid input")
)

// Handshake failures. All of them are ErrUnauthorized.
var (
	ErrMissingIdentity   = fmt.Errorf("%w: missing identity", ErrUnauthorized)
	ErrMalformedIdentity = fmt.Errorf("%w: malformed identity", ErrUnauthorized)
	ErrUnknownUser       = fmt.Errorf("%w: unknown user", ErrUnauthorized)
)

// Invalid wraps ErrInvalidInput with a reason.
func Invalid(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, reason)
}
