package application

import "errors"

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a unique resource attribute is already taken.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrInvalidCredentials is returned when login credentials do not match.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrAccountDisabled is returned when the employee account is disabled.
	ErrAccountDisabled = errors.New("application: account disabled")
	// ErrSessionExpired is returned when the presented session is past its expiry.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrSessionRevoked is returned when the presented session was revoked.
	ErrSessionRevoked = errors.New("application: session revoked")

	// ErrShiftAlreadyOpen is returned when clocking in while a shift is already open.
	ErrShiftAlreadyOpen = errors.New("application: shift already open")
	// ErrNoOpenShift is returned when an operation requires an open shift and none exists.
	ErrNoOpenShift = errors.New("application: no open shift")
	// ErrBreakAlreadyOpen is returned when starting a break while one is already open.
	ErrBreakAlreadyOpen = errors.New("application: break already open")
	// ErrNoOpenBreak is returned when ending a break and none is open.
	ErrNoOpenBreak = errors.New("application: no open break")
	// ErrBreakStillOpen is returned when clocking out while a break is still open.
	ErrBreakStillOpen = errors.New("application: break still open")
	// ErrShiftStillOpen is returned when deciding a shift that has not been closed.
	ErrShiftStillOpen = errors.New("application: shift still open")
	// ErrShiftAlreadyDecided is returned when deciding a shift that is no longer pending.
	ErrShiftAlreadyDecided = errors.New("application: shift already decided")
	// ErrSelfApproval is returned when an approver decides their own shift.
	ErrSelfApproval = errors.New("application: cannot decide own shift")
)

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
