package application

import (
	"errors"
	"fmt"
	"strings"

	"github.com/example/frontdesk/internal/engine"
)

var (
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrConflict is returned when a requested stay overlaps existing
	// reservations, either in the snapshot or at commit time after retries.
	ErrConflict = errors.New("application: reservation conflict")
)

// ConflictError carries the reservations that block a requested stay so
// callers can show why the range is unavailable.
type ConflictError struct {
	RoomID    string
	Conflicts []engine.Reservation
	// Retried is set when the conflict was only detected at commit time and
	// persisted after re-validating against fresh snapshots.
	Retried bool
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	if e == nil {
		return ""
	}
	ids := make([]string, 0, len(e.Conflicts))
	for _, r := range e.Conflicts {
		ids = append(ids, r.ID)
	}
	if len(ids) == 0 {
		return fmt.Sprintf("room %s: reservation conflict", e.RoomID)
	}
	return fmt.Sprintf("room %s: conflicts with %s", e.RoomID, strings.Join(ids, ", "))
}

// Is makes errors.Is(err, ErrConflict) hold.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

func fieldError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.add(field, message)
	return v
}
