package store

import "errors"

// Sentinel errors forming the operation taxonomy. Callers classify with
// errors.Is; lookup failures abort the operation before any broadcast or
// notification is produced.
var (
	// ErrNotFound means a referenced conversation, message or user record
	// is absent.
	ErrNotFound = errors.New("not found")
	// ErrForbidden means the actor is not a participant of the target
	// conversation.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalid means the request shape itself is unusable.
	ErrInvalid = errors.New("invalid")
)
