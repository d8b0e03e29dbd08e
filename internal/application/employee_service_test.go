package application

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/example/timeclock/internal/persistence"
	"github.com/example/timeclock/internal/testfixtures"
)

// fakeEmployeeRepo backs the employee service with an in-memory account
// directory. Employees listed in withShifts refuse deletion the way the
// storage layer does for accounts with recorded shifts.
type fakeEmployeeRepo struct {
	employees  map[string]persistence.Employee
	withShifts map[string]bool
}

func newFakeEmployeeRepo(employees ...persistence.Employee) *fakeEmployeeRepo {
	repo := &fakeEmployeeRepo{
		employees:  make(map[string]persistence.Employee),
		withShifts: make(map[string]bool),
	}
	for _, employee := range employees {
		repo.employees[employee.ID] = employee
	}
	return repo
}

func (f *fakeEmployeeRepo) CreateEmployee(ctx context.Context, employee persistence.Employee) error {
	for _, existing := range f.employees {
		if existing.Email == employee.Email {
			return persistence.ErrDuplicate
		}
	}
	f.employees[employee.ID] = employee
	return nil
}

func (f *fakeEmployeeRepo) UpdateEmployee(ctx context.Context, employee persistence.Employee) error {
	if _, ok := f.employees[employee.ID]; !ok {
		return persistence.ErrNotFound
	}
	for id, existing := range f.employees {
		if id != employee.ID && existing.Email == employee.Email {
			return persistence.ErrDuplicate
		}
	}
	f.employees[employee.ID] = employee
	return nil
}

func (f *fakeEmployeeRepo) GetEmployee(ctx context.Context, id string) (persistence.Employee, error) {
	if employee, ok := f.employees[id]; ok {
		return employee, nil
	}
	return persistence.Employee{}, persistence.ErrNotFound
}

func (f *fakeEmployeeRepo) ListEmployees(ctx context.Context) ([]persistence.Employee, error) {
	result := make([]persistence.Employee, 0, len(f.employees))
	for _, employee := range f.employees {
		result = append(result, employee)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (f *fakeEmployeeRepo) CountEmployees(ctx context.Context) (int, error) {
	return len(f.employees), nil
}

func (f *fakeEmployeeRepo) DeleteEmployee(ctx context.Context, id string) error {
	if _, ok := f.employees[id]; !ok {
		return persistence.ErrNotFound
	}
	if f.withShifts[id] {
		return persistence.ErrForeignKeyViolation
	}
	delete(f.employees, id)
	return nil
}

type openShiftStub struct {
	open map[string]bool
}

func (s *openShiftStub) HasOpenShift(ctx context.Context, employeeID string) (bool, error) {
	return s.open[employeeID], nil
}

func hashStub(password string) (string, error) {
	return "hashed:" + password, nil
}

func newTestEmployeeService(repo *fakeEmployeeRepo, open *openShiftStub) *EmployeeService {
	if open == nil {
		open = &openShiftStub{}
	}
	gen := testfixtures.NewIDGenerator("employee")
	clock := testfixtures.NewClock(time.Time{})
	return NewEmployeeService(repo, open, hashStub, gen.NextFunc(), clock.NowFunc())
}

func adminPrincipal() Principal {
	return Principal{EmployeeID: "admin-1", Role: RoleAdmin, Department: "Operations"}
}

func TestEmployeeServiceCreateEmployee(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	svc := newTestEmployeeService(repo, nil)

	rate := 32.5
	view, err := svc.CreateEmployee(context.Background(), CreateEmployeeParams{
		Principal: adminPrincipal(),
		Input: EmployeeInput{
			Email:      " Dana.Lee@Example.com ",
			Password:   "s3cret-enough",
			FirstName:  "Dana",
			LastName:   "Lee",
			Role:       RoleEmployee,
			Department: "Operations",
			JobTitle:   "Technician",
			HourlyRate: &rate,
		},
	})
	if err != nil {
		t.Fatalf("CreateEmployee failed: %v", err)
	}
	if view.Email != "dana.lee@example.com" {
		t.Errorf("expected normalized email, got %q", view.Email)
	}
	if view.HourlyRate == nil || *view.HourlyRate != rate {
		t.Errorf("unexpected hourly rate %v", view.HourlyRate)
	}

	stored, err := repo.GetEmployee(context.Background(), view.ID)
	if err != nil {
		t.Fatalf("stored employee not found: %v", err)
	}
	if stored.PasswordHash != "hashed:s3cret-enough" {
		t.Errorf("expected hashed password, got %q", stored.PasswordHash)
	}
}

func TestEmployeeServiceCreateEmployeeRequiresAdmin(t *testing.T) {
	t.Parallel()

	svc := newTestEmployeeService(newFakeEmployeeRepo(), nil)

	_, err := svc.CreateEmployee(context.Background(), CreateEmployeeParams{
		Principal: Principal{EmployeeID: "manager-1", Role: RoleManager, Department: "Operations"},
		Input: EmployeeInput{
			Email:      "new@example.com",
			Password:   "s3cret-enough",
			FirstName:  "New",
			LastName:   "Hire",
			Role:       RoleEmployee,
			Department: "Operations",
		},
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestEmployeeServiceCreateEmployeeBootstrap(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	svc := newTestEmployeeService(repo, nil)

	input := EmployeeInput{
		Email:      "founder@example.com",
		Password:   "s3cret-enough",
		FirstName:  "First",
		LastName:   "Admin",
		Role:       RoleAdmin,
		Department: "Operations",
	}

	// An empty store accepts one unauthenticated admin registration
	view, err := svc.CreateEmployee(context.Background(), CreateEmployeeParams{Input: input})
	if err != nil {
		t.Fatalf("CreateEmployee failed: %v", err)
	}
	if view.Role != RoleAdmin {
		t.Errorf("expected admin role, got %q", view.Role)
	}

	// Once provisioned the store is closed to unauthenticated callers
	input.Email = "second@example.com"
	_, err = svc.CreateEmployee(context.Background(), CreateEmployeeParams{Input: input})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestEmployeeServiceCreateEmployeeValidation(t *testing.T) {
	t.Parallel()

	svc := newTestEmployeeService(newFakeEmployeeRepo(), nil)

	_, err := svc.CreateEmployee(context.Background(), CreateEmployeeParams{
		Principal: adminPrincipal(),
		Input: EmployeeInput{
			Email:    "not-an-email",
			Password: "short",
			Role:     "director",
		},
	})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"email", "password", "first_name", "last_name", "department", "role"} {
		if _, ok := vErr.FieldErrors[field]; !ok {
			t.Errorf("expected error for field %s", field)
		}
	}
}

func TestEmployeeServiceCreateEmployeeDuplicateEmail(t *testing.T) {
	t.Parallel()

	existing := testfixtures.NewEmployee()
	svc := newTestEmployeeService(newFakeEmployeeRepo(existing), nil)

	_, err := svc.CreateEmployee(context.Background(), CreateEmployeeParams{
		Principal: adminPrincipal(),
		Input: EmployeeInput{
			Email:      existing.Email,
			Password:   "s3cret-enough",
			FirstName:  "Dup",
			LastName:   "Licate",
			Role:       RoleEmployee,
			Department: "Operations",
		},
	})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestEmployeeServiceUpdateEmployee(t *testing.T) {
	t.Parallel()

	employee := testfixtures.NewEmployee(testfixtures.WithDepartment("Operations"))
	repo := newFakeEmployeeRepo(employee)
	svc := newTestEmployeeService(repo, nil)

	disabled := true
	view, err := svc.UpdateEmployee(context.Background(), UpdateEmployeeParams{
		Principal:  adminPrincipal(),
		EmployeeID: employee.ID,
		Input: UpdateEmployeeInput{
			Email:      employee.Email,
			FirstName:  employee.FirstName,
			LastName:   "Renamed",
			Role:       RoleManager,
			Department: "Warehouse",
			Disabled:   &disabled,
		},
	})
	if err != nil {
		t.Fatalf("UpdateEmployee failed: %v", err)
	}
	if view.LastName != "Renamed" || view.Role != RoleManager || view.Department != "Warehouse" {
		t.Errorf("unexpected view %+v", view)
	}
	if !view.Disabled {
		t.Error("expected disabled account")
	}

	stored, _ := repo.GetEmployee(context.Background(), employee.ID)
	if stored.PasswordHash != employee.PasswordHash {
		t.Error("expected password hash to be kept when no password supplied")
	}
}

func TestEmployeeServiceUpdateEmployeeSelfProfile(t *testing.T) {
	t.Parallel()

	employee := testfixtures.NewEmployee()
	repo := newFakeEmployeeRepo(employee)
	svc := newTestEmployeeService(repo, nil)

	self := Principal{EmployeeID: employee.ID, Role: employee.Role, Department: employee.Department}

	view, err := svc.UpdateEmployee(context.Background(), UpdateEmployeeParams{
		Principal:  self,
		EmployeeID: employee.ID,
		Input: UpdateEmployeeInput{
			Email:      employee.Email,
			Password:   "fresh-passphrase",
			FirstName:  "Renamed",
			LastName:   employee.LastName,
			Role:       employee.Role,
			Department: employee.Department,
			JobTitle:   employee.JobTitle,
		},
	})
	if err != nil {
		t.Fatalf("UpdateEmployee failed: %v", err)
	}
	if view.FirstName != "Renamed" {
		t.Errorf("unexpected view %+v", view)
	}

	stored, _ := repo.GetEmployee(context.Background(), employee.ID)
	if stored.PasswordHash != "hashed:fresh-passphrase" {
		t.Errorf("expected replaced password hash, got %q", stored.PasswordHash)
	}

	// Privileged fields stay admin-only
	_, err = svc.UpdateEmployee(context.Background(), UpdateEmployeeParams{
		Principal:  self,
		EmployeeID: employee.ID,
		Input: UpdateEmployeeInput{
			Email:      employee.Email,
			FirstName:  employee.FirstName,
			LastName:   employee.LastName,
			Role:       RoleManager,
			Department: employee.Department,
			JobTitle:   employee.JobTitle,
		},
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for self role change, got %v", err)
	}

	// Other accounts stay out of reach
	other := testfixtures.NewEmployee()
	repo.employees[other.ID] = other
	_, err = svc.UpdateEmployee(context.Background(), UpdateEmployeeParams{
		Principal:  self,
		EmployeeID: other.ID,
		Input: UpdateEmployeeInput{
			Email:      other.Email,
			FirstName:  "Hijacked",
			LastName:   other.LastName,
			Role:       other.Role,
			Department: other.Department,
		},
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for cross-account update, got %v", err)
	}
}

func TestEmployeeServiceUpdateEmployeeReplacesPassword(t *testing.T) {
	t.Parallel()

	employee := testfixtures.NewEmployee()
	repo := newFakeEmployeeRepo(employee)
	svc := newTestEmployeeService(repo, nil)

	_, err := svc.UpdateEmployee(context.Background(), UpdateEmployeeParams{
		Principal:  adminPrincipal(),
		EmployeeID: employee.ID,
		Input: UpdateEmployeeInput{
			Email:      employee.Email,
			Password:   "brand-new-secret",
			FirstName:  employee.FirstName,
			LastName:   employee.LastName,
			Role:       employee.Role,
			Department: employee.Department,
		},
	})
	if err != nil {
		t.Fatalf("UpdateEmployee failed: %v", err)
	}

	stored, _ := repo.GetEmployee(context.Background(), employee.ID)
	if stored.PasswordHash != "hashed:brand-new-secret" {
		t.Errorf("expected new password hash, got %q", stored.PasswordHash)
	}
}

func TestEmployeeServiceUpdateEmployeeNotFound(t *testing.T) {
	t.Parallel()

	svc := newTestEmployeeService(newFakeEmployeeRepo(), nil)

	_, err := svc.UpdateEmployee(context.Background(), UpdateEmployeeParams{
		Principal:  adminPrincipal(),
		EmployeeID: "missing",
		Input: UpdateEmployeeInput{
			Email:      "someone@example.com",
			FirstName:  "Some",
			LastName:   "One",
			Role:       RoleEmployee,
			Department: "Operations",
		},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEmployeeServiceGetEmployeeScope(t *testing.T) {
	t.Parallel()

	worker := testfixtures.NewEmployee(testfixtures.WithDepartment("Operations"))
	colleague := testfixtures.NewEmployee(testfixtures.WithDepartment("Operations"))
	outsider := testfixtures.NewEmployee(testfixtures.WithDepartment("Warehouse"))
	manager := testfixtures.NewEmployee(testfixtures.WithRole(RoleManager), testfixtures.WithDepartment("Operations"))
	svc := newTestEmployeeService(newFakeEmployeeRepo(worker, colleague, outsider, manager), nil)

	if _, err := svc.GetEmployee(context.Background(), GetEmployeeParams{Principal: principalFor(worker), EmployeeID: worker.ID}); err != nil {
		t.Fatalf("self lookup failed: %v", err)
	}
	if _, err := svc.GetEmployee(context.Background(), GetEmployeeParams{Principal: principalFor(worker), EmployeeID: colleague.ID}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for colleague lookup, got %v", err)
	}
	if _, err := svc.GetEmployee(context.Background(), GetEmployeeParams{Principal: principalFor(manager), EmployeeID: worker.ID}); err != nil {
		t.Fatalf("manager department lookup failed: %v", err)
	}
	if _, err := svc.GetEmployee(context.Background(), GetEmployeeParams{Principal: principalFor(manager), EmployeeID: outsider.ID}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for cross department lookup, got %v", err)
	}
}

func TestEmployeeServiceListEmployees(t *testing.T) {
	t.Parallel()

	worker := testfixtures.NewEmployee(testfixtures.WithDepartment("Operations"))
	outsider := testfixtures.NewEmployee(testfixtures.WithDepartment("Warehouse"))
	manager := testfixtures.NewEmployee(testfixtures.WithRole(RoleManager), testfixtures.WithDepartment("Operations"))
	repo := newFakeEmployeeRepo(worker, outsider, manager)
	open := &openShiftStub{open: map[string]bool{worker.ID: true}}
	svc := newTestEmployeeService(repo, open)

	views, err := svc.ListEmployees(context.Background(), ListEmployeesParams{Principal: principalFor(manager)})
	if err != nil {
		t.Fatalf("ListEmployees failed: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 employees in department, got %d", len(views))
	}
	for _, view := range views {
		if view.ID == outsider.ID {
			t.Error("manager listing must not include other departments")
		}
		if view.ID == worker.ID && !view.Active {
			t.Error("expected worker with open shift to be active")
		}
	}

	all, err := svc.ListEmployees(context.Background(), ListEmployeesParams{Principal: adminPrincipal()})
	if err != nil {
		t.Fatalf("ListEmployees failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 employees for admin, got %d", len(all))
	}

	if _, err := svc.ListEmployees(context.Background(), ListEmployeesParams{Principal: principalFor(worker)}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for employee listing, got %v", err)
	}
}

func TestEmployeeServiceDeleteEmployee(t *testing.T) {
	t.Parallel()

	employee := testfixtures.NewEmployee()
	veteran := testfixtures.NewEmployee()
	repo := newFakeEmployeeRepo(employee, veteran)
	repo.withShifts[veteran.ID] = true
	svc := newTestEmployeeService(repo, nil)

	if err := svc.DeleteEmployee(context.Background(), DeleteEmployeeParams{Principal: adminPrincipal(), EmployeeID: employee.ID}); err != nil {
		t.Fatalf("DeleteEmployee failed: %v", err)
	}
	if _, err := repo.GetEmployee(context.Background(), employee.ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Error("expected employee to be removed")
	}

	err := svc.DeleteEmployee(context.Background(), DeleteEmployeeParams{Principal: adminPrincipal(), EmployeeID: veteran.ID})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError for employee with shifts, got %v", err)
	}

	if err := svc.DeleteEmployee(context.Background(), DeleteEmployeeParams{Principal: adminPrincipal(), EmployeeID: "missing"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	admin := adminPrincipal()
	err = svc.DeleteEmployee(context.Background(), DeleteEmployeeParams{Principal: admin, EmployeeID: admin.EmployeeID})
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError for self deletion, got %v", err)
	}
}
