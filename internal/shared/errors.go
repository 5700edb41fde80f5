// Package shared holds cross-module primitives: the error taxonomy and
// request validation helpers.
package shared

import (
	"errors"
	"fmt"
)

// Error taxonomy for the document lifecycle core. Every failure a service
// returns wraps exactly one of these sentinels so handlers can map it to a
// response without string matching.
var (
	// ErrValidation indicates missing or malformed required fields. Nothing
	// is persisted when it is returned.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates the operation targets an unknown id.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a unique document-number collision. Structurally
	// impossible given atomic sequence issuance, but reported rather than
	// swallowed if it ever happens.
	ErrConflict = errors.New("conflict")
	// ErrSequenceUnavailable indicates the counter increment failed; the
	// create operation fails entirely, a document is never persisted without
	// a number.
	ErrSequenceUnavailable = errors.New("sequence unavailable")
	// ErrInvalidStatus indicates an illegal state-machine transition.
	ErrInvalidStatus = errors.New("invalid status transition")
)

// Validationf builds an ErrValidation with a formatted detail message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFoundf builds an ErrNotFound with a formatted detail message.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}
