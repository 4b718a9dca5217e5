package errs

import "errors"

// Common sentinel errors for cross-layer signaling.
var (
	ErrNotFound     = errors.New("not_found")
	ErrConflict     = errors.New("conflict")
	ErrInvalid      = errors.New("invalid")
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConsistency indicates a lifecycle operation's balance mutation could
	// not complete atomically; the whole operation has been rolled back.
	ErrConsistency = errors.New("consistency_failure")
)
