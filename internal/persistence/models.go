package persistence

import "time"

// Employee represents a worker account in the time-tracking domain.
type Employee struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	Role         string
	Department   string
	JobTitle     string
	HourlyRate   *float64
	Disabled     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Shift represents one work session bounded by a clock-in and, once closed,
// a clock-out. EndTime is nil while the shift is open.
type Shift struct {
	ID                string
	EmployeeID        string
	StartTime         time.Time
	EndTime           *time.Time
	Status            string
	Breaks            []Break
	ProjectID         *string
	Overtime          bool
	HourlyRate        *float64
	PayMultiplier     float64
	Notes             *string
	StartLocation     *string
	EndLocation       *string
	Device            *string
	IPAddress         *string
	VerificationImage *string
	ApprovedBy        *string
	ApprovalDate      *time.Time
	RejectionReason   *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Break is one break interval inside a shift, ordered by Position. EndTime
// is nil while the break is open; DurationMinutes is set at break close.
type Break struct {
	ID              string
	ShiftID         string
	Position        int
	StartTime       time.Time
	EndTime         *time.Time
	DurationMinutes *int64
	Type            string
	Notes           *string
}

// Project represents a labeled grouping that shifts may be booked against.
type Project struct {
	ID          string
	Name        string
	Description *string
	Client      *string
	Status      string
	Department  *string
	ManagerID   *string
	TeamIDs     []string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Session represents an authentication session persisted for an employee.
type Session struct {
	ID          string
	EmployeeID  string
	Token       string
	Fingerprint string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	RevokedAt   *time.Time
}
