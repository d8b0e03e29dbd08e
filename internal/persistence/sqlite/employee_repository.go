package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/timeclock/internal/persistence"
)

// EmployeeRepository implements persistence.EmployeeRepository using SQLite
type EmployeeRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewEmployeeRepository creates a new SQLite employee repository
func NewEmployeeRepository(pool *ConnectionPool) *EmployeeRepository {
	return &EmployeeRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateEmployee inserts a new employee into the database
func (r *EmployeeRepository) CreateEmployee(ctx context.Context, employee persistence.Employee) error {
	if employee.ID == "" {
		return persistence.ErrConstraintViolation
	}
	if employee.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}

	normalizedEmail := normalizeEmail(employee.Email)

	now := time.Now().UTC()
	employee.CreatedAt = now
	employee.UpdatedAt = now

	query := `
		INSERT INTO employees (id, email, first_name, last_name, password_hash, role, department, job_title, hourly_rate, disabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		employee.ID,
		normalizedEmail,
		employee.FirstName,
		employee.LastName,
		employee.PasswordHash,
		employee.Role,
		employee.Department,
		employee.JobTitle,
		nullFloat(employee.HourlyRate),
		employee.Disabled,
		encodeTime(employee.CreatedAt),
		encodeTime(employee.UpdatedAt),
	)

	if err != nil {
		return r.mapEmployeeError(err)
	}

	return nil
}

// UpdateEmployee updates an existing employee in the database
func (r *EmployeeRepository) UpdateEmployee(ctx context.Context, employee persistence.Employee) error {
	if employee.ID == "" {
		return persistence.ErrConstraintViolation
	}
	if employee.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}

	normalizedEmail := normalizeEmail(employee.Email)
	employee.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE employees
		SET email = ?, first_name = ?, last_name = ?, password_hash = ?, role = ?, department = ?, job_title = ?, hourly_rate = ?, disabled = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.helper.Exec(ctx, query,
		normalizedEmail,
		employee.FirstName,
		employee.LastName,
		employee.PasswordHash,
		employee.Role,
		employee.Department,
		employee.JobTitle,
		nullFloat(employee.HourlyRate),
		employee.Disabled,
		encodeTime(employee.UpdatedAt),
		employee.ID,
	)

	if err != nil {
		return r.mapEmployeeError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}

	return nil
}

const employeeColumns = `id, email, first_name, last_name, password_hash, role, department, job_title, hourly_rate, disabled, created_at, updated_at`

// GetEmployee retrieves an employee by ID from the database
func (r *EmployeeRepository) GetEmployee(ctx context.Context, id string) (persistence.Employee, error) {
	if id == "" {
		return persistence.Employee{}, persistence.ErrNotFound
	}

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = ?`

	row := r.helper.QueryRow(ctx, query, id)
	return scanEmployee(row)
}

// GetEmployeeByEmail retrieves an employee by email address from the database
func (r *EmployeeRepository) GetEmployeeByEmail(ctx context.Context, email string) (persistence.Employee, error) {
	if email == "" {
		return persistence.Employee{}, persistence.ErrNotFound
	}

	normalizedEmail := normalizeEmail(email)

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE email = ?`

	row := r.helper.QueryRow(ctx, query, normalizedEmail)
	return scanEmployee(row)
}

// ListEmployees returns all employees ordered by last name, first name then ID
func (r *EmployeeRepository) ListEmployees(ctx context.Context) ([]persistence.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees ORDER BY last_name ASC, first_name ASC, id ASC`

	rows, err := r.helper.Query(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var employees []persistence.Employee

	for rows.Next() {
		employee, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, employee)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return employees, nil
}

// ListEmployeeIDsByDepartment returns the IDs of all employees in a department
func (r *EmployeeRepository) ListEmployeeIDsByDepartment(ctx context.Context, department string) ([]string, error) {
	query := `SELECT id FROM employees WHERE department = ? ORDER BY id ASC`

	rows, err := r.helper.Query(ctx, query, department)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var ids []string

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, r.mapper.MapError(err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return ids, nil
}

// CountEmployees returns the total number of employees
func (r *EmployeeRepository) CountEmployees(ctx context.Context) (int, error) {
	var count int
	err := r.helper.QueryRow(ctx, "SELECT COUNT(*) FROM employees").Scan(&count)
	if err != nil {
		return 0, r.mapper.MapError(err)
	}
	return count, nil
}

// DeleteEmployee removes an employee by ID from the database
func (r *EmployeeRepository) DeleteEmployee(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		// An employee with recorded shifts cannot be removed
		var shiftCount int
		err := r.helper.QueryRowTx(tx, "SELECT COUNT(*) FROM shifts WHERE employee_id = ?", id).Scan(&shiftCount)
		if err != nil {
			return r.mapper.MapError(err)
		}

		if shiftCount > 0 {
			return persistence.ErrForeignKeyViolation
		}

		_, err = r.helper.ExecTx(tx, "DELETE FROM sessions WHERE employee_id = ?", id)
		if err != nil {
			return r.mapper.MapError(err)
		}

		result, err := r.helper.ExecTx(tx, "DELETE FROM employees WHERE id = ?", id)
		if err != nil {
			return r.mapper.MapError(err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}

		if rowsAffected == 0 {
			return persistence.ErrNotFound
		}

		return nil
	})
}

// scanner abstracts sql.Row and sql.Rows for shared scan helpers
type scanner interface {
	Scan(dest ...any) error
}

func scanEmployee(s scanner) (persistence.Employee, error) {
	var employee persistence.Employee
	var hourlyRate sql.NullFloat64
	var createdAtStr, updatedAtStr string

	err := s.Scan(
		&employee.ID,
		&employee.Email,
		&employee.FirstName,
		&employee.LastName,
		&employee.PasswordHash,
		&employee.Role,
		&employee.Department,
		&employee.JobTitle,
		&hourlyRate,
		&employee.Disabled,
		&createdAtStr,
		&updatedAtStr,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Employee{}, persistence.ErrNotFound
		}
		return persistence.Employee{}, NewErrorMapper().MapError(err)
	}

	employee.HourlyRate = floatPtr(hourlyRate)

	if employee.CreatedAt, err = decodeTime(createdAtStr); err != nil {
		return persistence.Employee{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if employee.UpdatedAt, err = decodeTime(updatedAtStr); err != nil {
		return persistence.Employee{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return employee, nil
}

// mapEmployeeError maps SQLite errors to appropriate persistence errors for employee operations
func (r *EmployeeRepository) mapEmployeeError(err error) error {
	if err == nil {
		return nil
	}

	errStr := err.Error()

	if containsAny(errStr, []string{"UNIQUE constraint failed"}) {
		return persistence.ErrDuplicate
	}

	if containsAny(errStr, []string{"FOREIGN KEY constraint failed"}) {
		return persistence.ErrForeignKeyViolation
	}

	if containsAny(errStr, []string{"CHECK constraint failed"}) {
		return persistence.ErrConstraintViolation
	}

	return r.mapper.MapError(err)
}

// normalizeEmail normalizes email addresses for consistent storage and lookup
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
