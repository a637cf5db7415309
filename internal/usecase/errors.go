package usecase

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrConflict              = errors.New("conflict")
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	ErrDriverAlreadyAssigned = fmt.Errorf("%w: driver already assigned to another constructor", ErrConflict)
	ErrAlreadyMember         = fmt.Errorf("%w: already a member of this league", ErrConflict)
	ErrInvalidJoinCode       = fmt.Errorf("%w: invalid join code", ErrNotFound)
)

// ConflictError carries the identifiers that caused a conflict so callers
// can report all of them at once.
type ConflictError struct {
	Cause error
	IDs   []string
}

func (e *ConflictError) Error() string {
	cause := e.Cause
	if cause == nil {
		cause = ErrConflict
	}
	if len(e.IDs) == 0 {
		return cause.Error()
	}
	return fmt.Sprintf("%s: %s", cause.Error(), strings.Join(e.IDs, ", "))
}

func (e *ConflictError) Unwrap() error {
	if e.Cause == nil {
		return ErrConflict
	}
	return e.Cause
}

// ConflictIDs extracts the conflicting identifiers from err, if any.
func ConflictIDs(err error) []string {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return append([]string(nil), ce.IDs...)
	}
	return nil
}
