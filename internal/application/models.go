package application

import (
	"time"

	"github.com/example/timeclock/internal/timesheet"
)

// Role names the permission tier of an employee account.
const (
	RoleEmployee = "employee"
	RoleManager  = "manager"
	RoleAdmin    = "admin"
)

// Principal represents the authenticated employee invoking a service method.
type Principal struct {
	EmployeeID string
	Role       string
	Department string
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// IsManager reports whether the principal holds at least the manager role.
func (p Principal) IsManager() bool {
	return p.Role == RoleManager || p.Role == RoleAdmin
}

// CanAccessEmployee reports whether the principal may read records belonging
// to the given employee. Managers are scoped to their own department.
func (p Principal) CanAccessEmployee(employeeID, department string) bool {
	if p.EmployeeID == employeeID {
		return true
	}
	if p.IsAdmin() {
		return true
	}
	if p.Role == RoleManager {
		return p.Department == department
	}
	return false
}

// BreakView is the caller-facing representation of one break interval.
type BreakView struct {
	ID              string
	Type            string
	StartTime       time.Time
	EndTime         *time.Time
	DurationMinutes *int64
	Notes           *string
}

// ShiftView is the caller-facing representation of a shift with its derived
// duration and pay figures. Derived fields are zero while the shift is open.
type ShiftView struct {
	ID                string
	EmployeeID        string
	StartTime         time.Time
	EndTime           *time.Time
	Status            string
	ProjectID         *string
	Breaks            []BreakView
	GrossMinutes      int64
	BreakMinutes      int64
	NetMinutes        int64
	NetHours          float64
	Overtime          bool
	OvertimeHours     float64
	HourlyRate        *float64
	PayMultiplier     float64
	CalculatedPay     *float64
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

// EmployeeView is the caller-facing representation of an employee account.
// Active reports whether the employee currently has an open shift.
type EmployeeView struct {
	ID         string
	Email      string
	FirstName  string
	LastName   string
	Role       string
	Department string
	JobTitle   string
	HourlyRate *float64
	Disabled   bool
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ProjectView is the caller-facing representation of a project.
type ProjectView struct {
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

// ClockInInput captures caller provided clock-in fields.
type ClockInInput struct {
	ProjectID         *string
	PayMultiplier     float64
	Notes             *string
	StartLocation     *string
	Device            *string
	IPAddress         *string
	VerificationImage *string
}

// ClockInParams wraps the data required to open a shift.
type ClockInParams struct {
	Principal Principal
	Input     ClockInInput
}

// ClockOutInput captures caller provided clock-out fields.
type ClockOutInput struct {
	Notes             *string
	EndLocation       *string
	Device            *string
	IPAddress         *string
	VerificationImage *string
}

// ClockOutParams wraps the data required to close the open shift.
type ClockOutParams struct {
	Principal Principal
	Input     ClockOutInput
}

// BreakInput captures caller provided break fields.
type BreakInput struct {
	Type  string
	Notes *string
}

// StartBreakParams wraps the data required to start a break.
type StartBreakParams struct {
	Principal Principal
	Input     BreakInput
}

// EndBreakParams wraps the data required to end the open break.
type EndBreakParams struct {
	Principal Principal
}

// DecideShiftParams wraps the data required to approve or reject a shift.
type DecideShiftParams struct {
	Principal       Principal
	ShiftID         string
	Approve         bool
	RejectionReason *string
}

// GetShiftParams wraps the data required to read a single shift.
type GetShiftParams struct {
	Principal Principal
	ShiftID   string
}

// ListShiftsParams wraps the data required to list shifts.
type ListShiftsParams struct {
	Principal  Principal
	EmployeeID *string
	ProjectID  *string
	Status     *string
	From       *time.Time
	To         *time.Time
}

// PendingShiftsParams wraps the data required to list shifts awaiting a decision.
type PendingShiftsParams struct {
	Principal Principal
}

// GenerateReportParams wraps the data required to build a labor report.
type GenerateReportParams struct {
	Principal  Principal
	Type       timesheet.ReportType
	Date       time.Time
	StartDate  *time.Time
	EndDate    *time.Time
	EmployeeID *string
	Department *string
	ProjectID  *string
}

// Report is an aggregated labor report over a resolved date range.
type Report struct {
	Type      timesheet.ReportType
	StartDate time.Time
	EndDate   time.Time
	Stats     timesheet.Stats
}

// EmployeeSummaryParams wraps the data required for a per-employee summary.
type EmployeeSummaryParams struct {
	Principal  Principal
	EmployeeID string
	From       *time.Time
	To         *time.Time
}

// EmployeeSummary reports an employee's shift counts by approval status and
// the hours and pay of approved work over the period.
type EmployeeSummary struct {
	Employee       EmployeeView
	PeriodStart    time.Time
	PeriodEnd      time.Time
	TotalShifts    int
	PendingShifts  int
	ApprovedShifts int
	RejectedShifts int
	ApprovedHours  float64
	ApprovedPay    float64
}

// DepartmentSummaryParams wraps the data required for a department summary.
type DepartmentSummaryParams struct {
	Principal  Principal
	Department string
	From       *time.Time
	To         *time.Time
}

// DepartmentSummary reports aggregate labor figures for one department.
type DepartmentSummary struct {
	Department    string
	PeriodStart   time.Time
	PeriodEnd     time.Time
	EmployeeCount int
	Stats         timesheet.Stats
}

// EmployeeInput captures caller provided employee fields.
type EmployeeInput struct {
	Email      string
	Password   string
	FirstName  string
	LastName   string
	Role       string
	Department string
	JobTitle   string
	HourlyRate *float64
}

// CreateEmployeeParams wraps the data required to create an employee.
type CreateEmployeeParams struct {
	Principal Principal
	Input     EmployeeInput
}

// UpdateEmployeeInput captures caller provided employee updates. An empty
// Password keeps the current one; a nil Disabled keeps the current flag.
type UpdateEmployeeInput struct {
	Email      string
	Password   string
	FirstName  string
	LastName   string
	Role       string
	Department string
	JobTitle   string
	HourlyRate *float64
	Disabled   *bool
}

// UpdateEmployeeParams wraps the data required to update an employee.
type UpdateEmployeeParams struct {
	Principal  Principal
	EmployeeID string
	Input      UpdateEmployeeInput
}

// GetEmployeeParams wraps the data required to read a single employee.
type GetEmployeeParams struct {
	Principal  Principal
	EmployeeID string
}

// ListEmployeesParams wraps the data required to list employees.
type ListEmployeesParams struct {
	Principal Principal
}

// DeleteEmployeeParams wraps the data required to delete an employee.
type DeleteEmployeeParams struct {
	Principal  Principal
	EmployeeID string
}

// ProjectInput captures caller provided project fields.
type ProjectInput struct {
	Name        string
	Description *string
	Client      *string
	Status      string
	Department  *string
	ManagerID   *string
	TeamIDs     []string
}

// CreateProjectParams wraps the data required to create a project.
type CreateProjectParams struct {
	Principal Principal
	Input     ProjectInput
}

// UpdateProjectParams wraps the data required to update a project.
type UpdateProjectParams struct {
	Principal Principal
	ProjectID string
	Input     ProjectInput
}

// GetProjectParams wraps the data required to read a single project.
type GetProjectParams struct {
	Principal Principal
	ProjectID string
}

// ListProjectsParams wraps the data required to list projects.
type ListProjectsParams struct {
	Principal Principal
}

// DeleteProjectParams wraps the data required to delete a project.
type DeleteProjectParams struct {
	Principal Principal
	ProjectID string
}

// LoginParams wraps the data required to authenticate an employee.
type LoginParams struct {
	Email       string
	Password    string
	Fingerprint string
}

// AuthResult carries a freshly minted session and the authenticated employee.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	Employee  EmployeeView
}

// VerifySessionParams wraps the data required to validate a session token.
type VerifySessionParams struct {
	Token       string
	Fingerprint string
}

// RefreshSessionParams wraps the data required to rotate a session token.
type RefreshSessionParams struct {
	Token       string
	Fingerprint string
}

// LogoutParams wraps the data required to revoke a session.
type LogoutParams struct {
	Token string
}
