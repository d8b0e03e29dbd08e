package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrConflict is returned when a conditional lifecycle write finds the
	// guarded condition violated, e.g. an open shift already exists for the
	// employee or the shift still has an open break.
	ErrConflict = errors.New("persistence: lifecycle conflict")
	// ErrPreconditionFailed is returned when a guarded status transition
	// finds the record no longer in the required state.
	ErrPreconditionFailed = errors.New("persistence: precondition failed")
	// ErrConstraintViolation is returned for CHECK or invariant failures.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
	// ErrForeignKeyViolation is returned when a referenced record is missing
	// or still referenced.
	ErrForeignKeyViolation = errors.New("persistence: foreign key violation")
)
