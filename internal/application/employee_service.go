package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/example/timeclock/internal/persistence"
)

// EmployeeRepository captures the persistence operations needed by the
// employee service.
type EmployeeRepository interface {
	CreateEmployee(ctx context.Context, employee persistence.Employee) error
	UpdateEmployee(ctx context.Context, employee persistence.Employee) error
	GetEmployee(ctx context.Context, id string) (persistence.Employee, error)
	ListEmployees(ctx context.Context) ([]persistence.Employee, error)
	CountEmployees(ctx context.Context) (int, error)
	DeleteEmployee(ctx context.Context, id string) error
}

// OpenShiftChecker reports live presence for employee views.
type OpenShiftChecker interface {
	HasOpenShift(ctx context.Context, employeeID string) (bool, error)
}

// PasswordHasher produces a stored hash for a plaintext password.
type PasswordHasher func(password string) (string, error)

// EmployeeService orchestrates validation, authorization, and persistence
// for employee accounts.
type EmployeeService struct {
	employees    EmployeeRepository
	openShifts   OpenShiftChecker
	hashPassword PasswordHasher
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewEmployeeService constructs an employee service with the provided dependencies.
func NewEmployeeService(employees EmployeeRepository, openShifts OpenShiftChecker, hashPassword PasswordHasher, idGenerator func() string, now func() time.Time) *EmployeeService {
	return NewEmployeeServiceWithLogger(employees, openShifts, hashPassword, idGenerator, now, nil)
}

// NewEmployeeServiceWithLogger constructs an employee service with a specified logger.
func NewEmployeeServiceWithLogger(employees EmployeeRepository, openShifts OpenShiftChecker, hashPassword PasswordHasher, idGenerator func() string, now func() time.Time, logger *slog.Logger) *EmployeeService {
	if hashPassword == nil {
		hashPassword = func(password string) (string, error) {
			return CreatePasswordHash(password, DefaultArgon2idParams)
		}
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &EmployeeService{
		employees:    employees,
		openShifts:   openShifts,
		hashPassword: hashPassword,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

func (s *EmployeeService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "EmployeeService", operation, attrs...)
}

// CreateEmployee validates input and persists a new employee account for
// administrators.
func (s *EmployeeService) CreateEmployee(ctx context.Context, params CreateEmployeeParams) (view EmployeeView, err error) {
	if s == nil {
		err = fmt.Errorf("EmployeeService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateEmployee",
		"principal_id", params.Principal.EmployeeID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create employee", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("employee_id", view.ID).InfoContext(ctx, "employee created")
	}()

	if !params.Principal.IsAdmin() {
		// An empty store accepts one unauthenticated admin registration so a
		// fresh instance can be provisioned.
		var count int
		count, err = s.employees.CountEmployees(ctx)
		if err != nil {
			return
		}
		if count > 0 || params.Input.Role != RoleAdmin {
			err = ErrUnauthorized
			return
		}
	}

	vErr := validateEmployeeInput(params.Input, true)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var hash string
	hash, err = s.hashPassword(params.Input.Password)
	if err != nil {
		return
	}

	employee := persistence.Employee{
		ID:           s.idGenerator(),
		Email:        strings.TrimSpace(strings.ToLower(params.Input.Email)),
		FirstName:    strings.TrimSpace(params.Input.FirstName),
		LastName:     strings.TrimSpace(params.Input.LastName),
		PasswordHash: hash,
		Role:         params.Input.Role,
		Department:   strings.TrimSpace(params.Input.Department),
		JobTitle:     strings.TrimSpace(params.Input.JobTitle),
		HourlyRate:   params.Input.HourlyRate,
	}

	if err = s.employees.CreateEmployee(ctx, employee); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			err = ErrAlreadyExists
		}
		return
	}

	var created persistence.Employee
	created, err = s.employees.GetEmployee(ctx, employee.ID)
	if err != nil {
		return
	}

	view = newEmployeeViewForSummary(created)
	return
}

// UpdateEmployee validates input and updates an existing employee account
// for administrators.
func (s *EmployeeService) UpdateEmployee(ctx context.Context, params UpdateEmployeeParams) (view EmployeeView, err error) {
	if s == nil {
		err = fmt.Errorf("EmployeeService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateEmployee",
		"principal_id", params.Principal.EmployeeID,
		"employee_id", params.EmployeeID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update employee", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "employee updated")
	}()

	self := params.Principal.EmployeeID != "" && params.Principal.EmployeeID == params.EmployeeID
	if !params.Principal.IsAdmin() && !self {
		err = ErrUnauthorized
		return
	}

	input := EmployeeInput{
		Email:      params.Input.Email,
		Password:   params.Input.Password,
		FirstName:  params.Input.FirstName,
		LastName:   params.Input.LastName,
		Role:       params.Input.Role,
		Department: params.Input.Department,
		JobTitle:   params.Input.JobTitle,
		HourlyRate: params.Input.HourlyRate,
	}
	vErr := validateEmployeeInput(input, params.Input.Password != "")
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var employee persistence.Employee
	employee, err = s.employees.GetEmployee(ctx, params.EmployeeID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrNotFound
		}
		return
	}

	if !params.Principal.IsAdmin() {
		// Self-service updates touch profile fields only
		if params.Input.Role != employee.Role ||
			strings.TrimSpace(params.Input.Department) != employee.Department ||
			!equalOptionalFloat(params.Input.HourlyRate, employee.HourlyRate) ||
			params.Input.Disabled != nil {
			err = ErrUnauthorized
			return
		}
	}

	employee.Email = strings.TrimSpace(strings.ToLower(params.Input.Email))
	employee.FirstName = strings.TrimSpace(params.Input.FirstName)
	employee.LastName = strings.TrimSpace(params.Input.LastName)
	employee.Role = params.Input.Role
	employee.Department = strings.TrimSpace(params.Input.Department)
	employee.JobTitle = strings.TrimSpace(params.Input.JobTitle)
	employee.HourlyRate = params.Input.HourlyRate
	if params.Input.Disabled != nil {
		employee.Disabled = *params.Input.Disabled
	}
	if params.Input.Password != "" {
		var hash string
		hash, err = s.hashPassword(params.Input.Password)
		if err != nil {
			return
		}
		employee.PasswordHash = hash
	}

	if err = s.employees.UpdateEmployee(ctx, employee); err != nil {
		switch {
		case errors.Is(err, persistence.ErrNotFound):
			err = ErrNotFound
		case errors.Is(err, persistence.ErrDuplicate):
			err = ErrAlreadyExists
		}
		return
	}

	var updated persistence.Employee
	updated, err = s.employees.GetEmployee(ctx, params.EmployeeID)
	if err != nil {
		return
	}

	view, err = s.newEmployeeView(ctx, updated)
	return
}

// GetEmployee returns a single employee subject to the principal's scope.
func (s *EmployeeService) GetEmployee(ctx context.Context, params GetEmployeeParams) (EmployeeView, error) {
	if s == nil {
		return EmployeeView{}, fmt.Errorf("EmployeeService is nil")
	}

	employee, err := s.employees.GetEmployee(ctx, params.EmployeeID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return EmployeeView{}, ErrNotFound
		}
		return EmployeeView{}, err
	}

	if !params.Principal.CanAccessEmployee(employee.ID, employee.Department) {
		return EmployeeView{}, ErrUnauthorized
	}

	return s.newEmployeeView(ctx, employee)
}

// ListEmployees returns employee accounts within the principal's scope.
// Managers see their own department; administrators see everyone.
func (s *EmployeeService) ListEmployees(ctx context.Context, params ListEmployeesParams) ([]EmployeeView, error) {
	if s == nil {
		return nil, fmt.Errorf("EmployeeService is nil")
	}
	if !params.Principal.IsManager() {
		return nil, ErrUnauthorized
	}

	employees, err := s.employees.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]EmployeeView, 0, len(employees))
	for _, employee := range employees {
		if !params.Principal.IsAdmin() && employee.Department != params.Principal.Department {
			continue
		}
		view, err := s.newEmployeeView(ctx, employee)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}

	return views, nil
}

// DeleteEmployee removes an employee account for administrators. Accounts
// with recorded shifts cannot be removed; disable them instead.
func (s *EmployeeService) DeleteEmployee(ctx context.Context, params DeleteEmployeeParams) (err error) {
	if s == nil {
		return fmt.Errorf("EmployeeService is nil")
	}

	logger := s.loggerWith(ctx, "DeleteEmployee",
		"principal_id", params.Principal.EmployeeID,
		"employee_id", params.EmployeeID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete employee", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "employee deleted")
	}()

	if !params.Principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}
	if params.EmployeeID == params.Principal.EmployeeID {
		vErr := &ValidationError{}
		vErr.add("employee_id", "cannot delete own account")
		err = vErr
		return
	}

	err = s.employees.DeleteEmployee(ctx, params.EmployeeID)
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		err = ErrNotFound
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		vErr := &ValidationError{}
		vErr.add("employee_id", "employee has recorded shifts and cannot be deleted")
		err = vErr
	}
	return
}

func (s *EmployeeService) newEmployeeView(ctx context.Context, employee persistence.Employee) (EmployeeView, error) {
	view := newEmployeeViewForSummary(employee)

	if s.openShifts != nil {
		active, err := s.openShifts.HasOpenShift(ctx, employee.ID)
		if err != nil {
			return EmployeeView{}, err
		}
		view.Active = active
	}

	return view, nil
}

func validateEmployeeInput(input EmployeeInput, requirePassword bool) *ValidationError {
	vErr := &ValidationError{}

	email := strings.TrimSpace(input.Email)
	if email == "" {
		vErr.add("email", "email is required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		vErr.add("email", "email is invalid")
	}

	if requirePassword {
		if len(input.Password) < 8 {
			vErr.add("password", "password must be at least 8 characters")
		}
	}

	if strings.TrimSpace(input.FirstName) == "" {
		vErr.add("first_name", "first name is required")
	}
	if strings.TrimSpace(input.LastName) == "" {
		vErr.add("last_name", "last name is required")
	}
	if strings.TrimSpace(input.Department) == "" {
		vErr.add("department", "department is required")
	}

	switch input.Role {
	case RoleEmployee, RoleManager, RoleAdmin:
	default:
		vErr.add("role", "role must be employee, manager, or admin")
	}

	if input.HourlyRate != nil && *input.HourlyRate < 0 {
		vErr.add("hourly_rate", "hourly rate must not be negative")
	}

	return vErr
}

func equalOptionalFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
