package http

import (
	"context"

	"github.com/example/timeclock/internal/application"
)

type contextKey string

const (
	principalContextKey  contextKey = "principal"
	shiftIDContextKey    contextKey = "shift_id"
	employeeIDContextKey contextKey = "employee_id"
	projectIDContextKey  contextKey = "project_id"
	departmentContextKey contextKey = "department"
)

// ContextWithPrincipal returns a derived context containing the authenticated principal.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the authenticated principal from context if available.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(application.Principal)
	return principal, ok
}

// ContextWithShiftID injects the shift identifier resolved from the request path.
func ContextWithShiftID(ctx context.Context, shiftID string) context.Context {
	return context.WithValue(ctx, shiftIDContextKey, shiftID)
}

// ShiftIDFromContext extracts a shift identifier previously associated with the context.
func ShiftIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(shiftIDContextKey).(string)
	return id, ok
}

// ContextWithEmployeeID injects the employee identifier resolved from the request path.
func ContextWithEmployeeID(ctx context.Context, employeeID string) context.Context {
	return context.WithValue(ctx, employeeIDContextKey, employeeID)
}

// EmployeeIDFromContext extracts an employee identifier previously associated with the context.
func EmployeeIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(employeeIDContextKey).(string)
	return id, ok
}

// ContextWithProjectID injects the project identifier resolved from the request path.
func ContextWithProjectID(ctx context.Context, projectID string) context.Context {
	return context.WithValue(ctx, projectIDContextKey, projectID)
}

// ProjectIDFromContext extracts a project identifier previously associated with the context.
func ProjectIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(projectIDContextKey).(string)
	return id, ok
}

// ContextWithDepartment injects the department name resolved from the request path.
func ContextWithDepartment(ctx context.Context, department string) context.Context {
	return context.WithValue(ctx, departmentContextKey, department)
}

// DepartmentFromContext extracts a department name previously associated with the context.
func DepartmentFromContext(ctx context.Context) (string, bool) {
	department, ok := ctx.Value(departmentContextKey).(string)
	return department, ok
}
