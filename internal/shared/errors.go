package shared

import "errors"

// Workflow error taxonomy. Every mutating operation returns one of these
// (wrapped with context) so handlers can map them to HTTP statuses uniformly.
var (
	// ErrNotFound indicates a referenced entity is absent.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState indicates an operation is illegal for the current status.
	ErrInvalidState = errors.New("invalid state transition")
	// ErrValidation indicates missing or malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrConsistency indicates derived totals would violate an invariant.
	ErrConsistency = errors.New("consistency violation")
	// ErrDuplicate indicates a uniqueness conflict.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrForbidden indicates the actor lacks the required permission.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthorized indicates a missing or invalid credential.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
