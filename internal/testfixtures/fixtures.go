package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/timeclock/internal/persistence"
)

var (
	employeeCounter uint64
	shiftCounter    uint64
	projectCounter  uint64
)

var referenceTime = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// EmployeeOption configures a generated employee fixture.
type EmployeeOption func(*persistence.Employee)

// WithRole sets the employee role.
func WithRole(role string) EmployeeOption {
	return func(e *persistence.Employee) { e.Role = role }
}

// WithDepartment sets the employee department.
func WithDepartment(department string) EmployeeOption {
	return func(e *persistence.Employee) { e.Department = department }
}

// WithHourlyRate sets the employee hourly rate.
func WithHourlyRate(rate float64) EmployeeOption {
	return func(e *persistence.Employee) { e.HourlyRate = &rate }
}

// WithDisabled marks the employee account disabled.
func WithDisabled() EmployeeOption {
	return func(e *persistence.Employee) { e.Disabled = true }
}

// NewEmployee returns a deterministic employee record with optional overrides.
func NewEmployee(opts ...EmployeeOption) persistence.Employee {
	idx := atomic.AddUint64(&employeeCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)

	employee := persistence.Employee{
		ID:           fmt.Sprintf("employee-%03d", idx),
		Email:        fmt.Sprintf("employee-%03d@example.com", idx),
		FirstName:    "Worker",
		LastName:     fmt.Sprintf("Number%03d", idx),
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=2$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaGhhc2hoYXNoaGFzaGhhc2g",
		Role:         "employee",
		Department:   "Operations",
		JobTitle:     "Technician",
		CreatedAt:    created,
		UpdatedAt:    created,
	}

	for _, opt := range opts {
		opt(&employee)
	}
	return employee
}

// ShiftOption configures a generated shift fixture.
type ShiftOption func(*persistence.Shift)

// ForEmployee binds the shift to the given employee.
func ForEmployee(employeeID string) ShiftOption {
	return func(s *persistence.Shift) { s.EmployeeID = employeeID }
}

// StartingAt sets the shift clock-in instant.
func StartingAt(start time.Time) ShiftOption {
	return func(s *persistence.Shift) { s.StartTime = start }
}

// ClosedAfter closes the shift the given duration after its start.
func ClosedAfter(d time.Duration) ShiftOption {
	return func(s *persistence.Shift) {
		end := s.StartTime.Add(d)
		s.EndTime = &end
	}
}

// WithStatus sets the shift approval status.
func WithStatus(status string) ShiftOption {
	return func(s *persistence.Shift) { s.Status = status }
}

// WithClosedBreak appends a closed break of the given length.
func WithClosedBreak(offset, length time.Duration, breakType string) ShiftOption {
	return func(s *persistence.Shift) {
		start := s.StartTime.Add(offset)
		end := start.Add(length)
		minutes := int64(length / time.Minute)
		s.Breaks = append(s.Breaks, persistence.Break{
			ID:              fmt.Sprintf("%s-break-%d", s.ID, len(s.Breaks)),
			ShiftID:         s.ID,
			Position:        len(s.Breaks),
			StartTime:       start,
			EndTime:         &end,
			DurationMinutes: &minutes,
			Type:            breakType,
		})
	}
}

// NewShift returns a deterministic open shift record with optional overrides.
func NewShift(opts ...ShiftOption) persistence.Shift {
	idx := atomic.AddUint64(&shiftCounter, 1)
	start := referenceTime.Add(time.Duration(idx) * 24 * time.Hour)

	shift := persistence.Shift{
		ID:            fmt.Sprintf("shift-%03d", idx),
		EmployeeID:    "employee-001",
		StartTime:     start,
		Status:        "pending",
		PayMultiplier: 1.0,
		CreatedAt:     start,
		UpdatedAt:     start,
	}

	for _, opt := range opts {
		opt(&shift)
	}
	return shift
}

// NewProject returns a deterministic active project record.
func NewProject(createdBy string) persistence.Project {
	idx := atomic.AddUint64(&projectCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)

	return persistence.Project{
		ID:        fmt.Sprintf("project-%03d", idx),
		Name:      fmt.Sprintf("Project %03d", idx),
		Status:    "active",
		CreatedBy: createdBy,
		CreatedAt: created,
		UpdatedAt: created,
	}
}
