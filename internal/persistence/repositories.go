package persistence

import (
	"context"
	"time"
)

// EmployeeRepository exposes CRUD operations for employees.
type EmployeeRepository interface {
	CreateEmployee(ctx context.Context, employee Employee) error
	UpdateEmployee(ctx context.Context, employee Employee) error
	GetEmployee(ctx context.Context, id string) (Employee, error)
	GetEmployeeByEmail(ctx context.Context, email string) (Employee, error)
	ListEmployees(ctx context.Context) ([]Employee, error)
	ListEmployeeIDsByDepartment(ctx context.Context, department string) ([]string, error)
	CountEmployees(ctx context.Context) (int, error)
	DeleteEmployee(ctx context.Context, id string) error
}

// ShiftFilter narrows shift queries. Time bounds apply to StartTime,
// inclusive on both ends.
type ShiftFilter struct {
	EmployeeIDs      []string
	ProjectID        *string
	Status           *string
	OnlyClosed       bool
	StartsOnOrAfter  *time.Time
	StartsOnOrBefore *time.Time
}

// ShiftRepository stores shift records and their break intervals. The
// lifecycle mutators are conditional writes: each succeeds only while its
// guarded invariant holds, and reports ErrConflict or
// ErrPreconditionFailed otherwise, making check-and-write indivisible with
// respect to concurrent callers.
type ShiftRepository interface {
	// CreateShiftIfNoneOpen inserts a new open shift unless the employee
	// already has one, in which case it returns ErrConflict.
	CreateShiftIfNoneOpen(ctx context.Context, shift Shift) error
	// GetOpenShift returns the employee's open shift with its breaks, or
	// ErrNotFound when none is open.
	GetOpenShift(ctx context.Context, employeeID string) (Shift, error)
	// CloseShift sets the end instant and clock-out metadata of the
	// employee's open shift. It returns ErrNotFound when no open shift
	// exists and ErrConflict when the shift still has an open break.
	CloseShift(ctx context.Context, close ShiftClose) (Shift, error)
	// StartBreak appends an open break to the employee's open shift. It
	// returns ErrNotFound without an open shift and ErrConflict when a
	// break is already open.
	StartBreak(ctx context.Context, employeeID string, brk Break) (Shift, error)
	// EndBreak closes the first open break of the employee's open shift,
	// recording its floored duration in minutes. It returns ErrNotFound
	// when no open shift or no open break exists.
	EndBreak(ctx context.Context, employeeID string, endTime time.Time) (Shift, error)
	// DecideShift transitions a closed pending shift to approved or
	// rejected. It returns ErrNotFound for a missing shift and
	// ErrPreconditionFailed when the shift is open or already decided.
	DecideShift(ctx context.Context, decision ShiftDecision) (Shift, error)
	GetShift(ctx context.Context, id string) (Shift, error)
	ListShifts(ctx context.Context, filter ShiftFilter) ([]Shift, error)
	// HasOpenShift reports whether the employee currently has an open
	// shift; this derived query replaces any stored activity flag.
	HasOpenShift(ctx context.Context, employeeID string) (bool, error)
	DeleteShift(ctx context.Context, id string) error
}

// ShiftClose carries the clock-out mutation for an employee's open shift.
type ShiftClose struct {
	EmployeeID        string
	EndTime           time.Time
	Overtime          bool
	Notes             *string
	EndLocation       *string
	Device            *string
	IPAddress         *string
	VerificationImage *string
}

// ShiftDecision carries the approval transition for a closed shift.
type ShiftDecision struct {
	ShiftID         string
	Status          string
	ApprovedBy      string
	ApprovalDate    time.Time
	RejectionReason *string
}

// ProjectRepository exposes CRUD operations for projects.
type ProjectRepository interface {
	CreateProject(ctx context.Context, project Project) error
	UpdateProject(ctx context.Context, project Project) error
	GetProject(ctx context.Context, id string) (Project, error)
	ListProjects(ctx context.Context) ([]Project, error)
	DeleteProject(ctx context.Context, id string) error
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	UpdateSession(ctx context.Context, session Session) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}
