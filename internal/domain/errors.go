package domain

import "errors"

var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthenticated is returned when an action needs a signed-in identity
	ErrUnauthenticated = errors.New("authentication required")

	// ErrSessionClosed is returned when a torn-down session is used
	ErrSessionClosed = errors.New("session closed")

	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
)
