package timeentry

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition reports a session command issued from a state
	// that does not allow it. Controllers only return it in strict mode.
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrOpenEntryExists   = errors.New("an open entry already exists for this user")
	ErrNotFound          = errors.New("time entry not found")
	ErrEntryClosed       = errors.New("time entry is already closed")
)

// ValidationError rejects malformed input before it reaches storage.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

// PersistenceError wraps a failed read or write of the repository.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsPersistence(err error) bool {
	var target *PersistenceError
	return errors.As(err, &target)
}
