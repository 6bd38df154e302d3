package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a record with the same key already exists.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrConstraintViolation is returned when a write breaks a schema constraint.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
	// ErrConflictOnCommit is returned when, at write time, the reservation
	// would overlap another blocking reservation of the same room. Callers
	// should reload their snapshot and validate again.
	ErrConflictOnCommit = errors.New("persistence: reservation conflict on commit")
	// ErrBusy is returned when the database stays locked past its busy timeout.
	ErrBusy = errors.New("persistence: database busy")
)
