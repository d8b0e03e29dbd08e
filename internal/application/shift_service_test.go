package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/timeclock/internal/persistence"
	"github.com/example/timeclock/internal/testfixtures"
)

// fakeShiftStore is an in-memory ShiftRepository that honours the guarded
// write semantics of the SQLite implementation.
type fakeShiftStore struct {
	shifts map[string]*persistence.Shift
}

func newFakeShiftStore() *fakeShiftStore {
	return &fakeShiftStore{shifts: make(map[string]*persistence.Shift)}
}

func (f *fakeShiftStore) openShiftFor(employeeID string) *persistence.Shift {
	for _, shift := range f.shifts {
		if shift.EmployeeID == employeeID && shift.EndTime == nil {
			return shift
		}
	}
	return nil
}

func openBreakOf(shift *persistence.Shift) *persistence.Break {
	for i := range shift.Breaks {
		if shift.Breaks[i].EndTime == nil {
			return &shift.Breaks[i]
		}
	}
	return nil
}

func (f *fakeShiftStore) CreateShiftIfNoneOpen(ctx context.Context, shift persistence.Shift) error {
	if f.openShiftFor(shift.EmployeeID) != nil {
		return persistence.ErrConflict
	}
	stored := shift
	f.shifts[shift.ID] = &stored
	return nil
}

func (f *fakeShiftStore) GetOpenShift(ctx context.Context, employeeID string) (persistence.Shift, error) {
	if shift := f.openShiftFor(employeeID); shift != nil {
		return *shift, nil
	}
	return persistence.Shift{}, persistence.ErrNotFound
}

func (f *fakeShiftStore) CloseShift(ctx context.Context, close persistence.ShiftClose) (persistence.Shift, error) {
	shift := f.openShiftFor(close.EmployeeID)
	if shift == nil {
		return persistence.Shift{}, persistence.ErrNotFound
	}
	if openBreakOf(shift) != nil {
		return persistence.Shift{}, persistence.ErrConflict
	}
	end := close.EndTime
	shift.EndTime = &end
	shift.Overtime = close.Overtime
	if close.Notes != nil {
		shift.Notes = close.Notes
	}
	shift.EndLocation = close.EndLocation
	return *shift, nil
}

func (f *fakeShiftStore) StartBreak(ctx context.Context, employeeID string, brk persistence.Break) (persistence.Shift, error) {
	shift := f.openShiftFor(employeeID)
	if shift == nil {
		return persistence.Shift{}, persistence.ErrNotFound
	}
	if openBreakOf(shift) != nil {
		return persistence.Shift{}, persistence.ErrConflict
	}
	brk.ShiftID = shift.ID
	brk.Position = len(shift.Breaks)
	shift.Breaks = append(shift.Breaks, brk)
	return *shift, nil
}

func (f *fakeShiftStore) EndBreak(ctx context.Context, employeeID string, endTime time.Time) (persistence.Shift, error) {
	shift := f.openShiftFor(employeeID)
	if shift == nil {
		return persistence.Shift{}, persistence.ErrNotFound
	}
	brk := openBreakOf(shift)
	if brk == nil {
		return persistence.Shift{}, persistence.ErrNotFound
	}
	end := endTime
	minutes := int64(end.Sub(brk.StartTime) / time.Minute)
	brk.EndTime = &end
	brk.DurationMinutes = &minutes
	return *shift, nil
}

func (f *fakeShiftStore) DecideShift(ctx context.Context, decision persistence.ShiftDecision) (persistence.Shift, error) {
	shift, ok := f.shifts[decision.ShiftID]
	if !ok {
		return persistence.Shift{}, persistence.ErrNotFound
	}
	if shift.EndTime == nil || shift.Status != "pending" {
		return persistence.Shift{}, persistence.ErrPreconditionFailed
	}
	shift.Status = decision.Status
	approver := decision.ApprovedBy
	approvedAt := decision.ApprovalDate
	shift.ApprovedBy = &approver
	shift.ApprovalDate = &approvedAt
	shift.RejectionReason = decision.RejectionReason
	return *shift, nil
}

func (f *fakeShiftStore) GetShift(ctx context.Context, id string) (persistence.Shift, error) {
	if shift, ok := f.shifts[id]; ok {
		return *shift, nil
	}
	return persistence.Shift{}, persistence.ErrNotFound
}

func (f *fakeShiftStore) ListShifts(ctx context.Context, filter persistence.ShiftFilter) ([]persistence.Shift, error) {
	var result []persistence.Shift
	for _, shift := range f.shifts {
		if len(filter.EmployeeIDs) > 0 && !containsID(filter.EmployeeIDs, shift.EmployeeID) {
			continue
		}
		if filter.Status != nil && shift.Status != *filter.Status {
			continue
		}
		if filter.ProjectID != nil && (shift.ProjectID == nil || *shift.ProjectID != *filter.ProjectID) {
			continue
		}
		if filter.OnlyClosed && shift.EndTime == nil {
			continue
		}
		if filter.StartsOnOrAfter != nil && shift.StartTime.Before(*filter.StartsOnOrAfter) {
			continue
		}
		if filter.StartsOnOrBefore != nil && shift.StartTime.After(*filter.StartsOnOrBefore) {
			continue
		}
		result = append(result, *shift)
	}
	return result, nil
}

func (f *fakeShiftStore) HasOpenShift(ctx context.Context, employeeID string) (bool, error) {
	return f.openShiftFor(employeeID) != nil, nil
}

type fakeEmployeeStore struct {
	employees map[string]persistence.Employee
}

func newFakeEmployeeStore(employees ...persistence.Employee) *fakeEmployeeStore {
	store := &fakeEmployeeStore{employees: make(map[string]persistence.Employee)}
	for _, employee := range employees {
		store.employees[employee.ID] = employee
	}
	return store
}

func (f *fakeEmployeeStore) GetEmployee(ctx context.Context, id string) (persistence.Employee, error) {
	if employee, ok := f.employees[id]; ok {
		return employee, nil
	}
	return persistence.Employee{}, persistence.ErrNotFound
}

func (f *fakeEmployeeStore) ListEmployeeIDsByDepartment(ctx context.Context, department string) ([]string, error) {
	var ids []string
	for id, employee := range f.employees {
		if employee.Department == department {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type fakeProjectStore struct {
	projects map[string]persistence.Project
}

func newFakeProjectStore(projects ...persistence.Project) *fakeProjectStore {
	store := &fakeProjectStore{projects: make(map[string]persistence.Project)}
	for _, project := range projects {
		store.projects[project.ID] = project
	}
	return store
}

func (f *fakeProjectStore) GetProject(ctx context.Context, id string) (persistence.Project, error) {
	if project, ok := f.projects[id]; ok {
		return project, nil
	}
	return persistence.Project{}, persistence.ErrNotFound
}

func newTestShiftService(shifts *fakeShiftStore, employees *fakeEmployeeStore, projects *fakeProjectStore, clock *testfixtures.Clock) *ShiftService {
	gen := testfixtures.NewIDGenerator("shift")
	return NewShiftService(shifts, employees, projects, gen.NextFunc(), clock.NowFunc())
}

func principalFor(employee persistence.Employee) Principal {
	return Principal{EmployeeID: employee.ID, Role: employee.Role, Department: employee.Department}
}

func TestShiftServiceClockInAndOut(t *testing.T) {
	t.Parallel()

	rate := 20.0
	employee := testfixtures.NewEmployee(testfixtures.WithHourlyRate(rate))
	shifts := newFakeShiftStore()
	clock := testfixtures.NewClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	svc := newTestShiftService(shifts, newFakeEmployeeStore(employee), newFakeProjectStore(), clock)

	ctx := context.Background()
	principal := principalFor(employee)

	view, err := svc.ClockIn(ctx, ClockInParams{Principal: principal})
	if err != nil {
		t.Fatalf("ClockIn failed: %v", err)
	}
	if view.Status != "pending" {
		t.Errorf("expected pending status, got %s", view.Status)
	}
	if view.HourlyRate == nil || *view.HourlyRate != rate {
		t.Errorf("expected hourly rate snapshot %v, got %v", rate, view.HourlyRate)
	}
	if view.PayMultiplier != 1.0 {
		t.Errorf("expected default multiplier 1.0, got %v", view.PayMultiplier)
	}

	clock.Advance(9 * time.Hour)
	closed, err := svc.ClockOut(ctx, ClockOutParams{Principal: principal})
	if err != nil {
		t.Fatalf("ClockOut failed: %v", err)
	}
	if !closed.Overtime {
		t.Error("expected 9h net shift to be overtime")
	}
	if closed.NetHours != 9.0 {
		t.Errorf("expected 9.0 net hours, got %v", closed.NetHours)
	}
	if closed.CalculatedPay == nil || *closed.CalculatedPay != 180.0 {
		t.Errorf("expected pay 180.0, got %v", closed.CalculatedPay)
	}
}

func TestShiftServiceClockInTwiceRejected(t *testing.T) {
	t.Parallel()

	employee := testfixtures.NewEmployee()
	shifts := newFakeShiftStore()
	clock := testfixtures.NewClock(time.Time{})
	svc := newTestShiftService(shifts, newFakeEmployeeStore(employee), newFakeProjectStore(), clock)

	ctx := context.Background()
	principal := principalFor(employee)

	if _, err := svc.ClockIn(ctx, ClockInParams{Principal: principal}); err != nil {
		t.Fatalf("first ClockIn failed: %v", err)
	}

	_, err := svc.ClockIn(ctx, ClockInParams{Principal: principal})
	if !errors.Is(err, ErrShiftAlreadyOpen) {
		t.Fatalf("expected ErrShiftAlreadyOpen, got %v", err)
	}
}

func TestShiftServiceClockInDisabledAccount(t *testing.T) {
	t.Parallel()

	employee := testfixtures.NewEmployee(testfixtures.WithDisabled())
	svc := newTestShiftService(newFakeShiftStore(), newFakeEmployeeStore(employee), newFakeProjectStore(), testfixtures.NewClock(time.Time{}))

	_, err := svc.ClockIn(context.Background(), ClockInParams{Principal: principalFor(employee)})
	if !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}
}

func TestShiftServiceClockInUnknownProject(t *testing.T) {
	t.Parallel()

	employee := testfixtures.NewEmployee()
	svc := newTestShiftService(newFakeShiftStore(), newFakeEmployeeStore(employee), newFakeProjectStore(), testfixtures.NewClock(time.Time{}))

	missing := "no-such-project"
	_, err := svc.ClockIn(context.Background(), ClockInParams{
		Principal: principalFor(employee),
		Input:     ClockInInput{ProjectID: &missing},
	})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := vErr.FieldErrors["project_id"]; !ok {
		t.Errorf("expected projectId field error, got %v", vErr.FieldErrors)
	}
}

func TestShiftServiceClockOutWithoutShift(t *testing.T) {
	t.Parallel()

	employee := testfixtures.NewEmployee()
	svc := newTestShiftService(newFakeShiftStore(), newFakeEmployeeStore(employee), newFakeProjectStore(), testfixtures.NewClock(time.Time{}))

	_, err := svc.ClockOut(context.Background(), ClockOutParams{Principal: principalFor(employee)})
	if !errors.Is(err, ErrNoOpenShift) {
		t.Fatalf("expected ErrNoOpenShift, got %v", err)
	}
}

func TestShiftServiceBreakLifecycle(t *testing.T) {
	t.Parallel()

	employee := testfixtures.NewEmployee()
	shifts := newFakeShiftStore()
	clock := testfixtures.NewClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	svc := newTestShiftService(shifts, newFakeEmployeeStore(employee), newFakeProjectStore(), clock)

	ctx := context.Background()
	principal := principalFor(employee)

	if _, err := svc.ClockIn(ctx, ClockInParams{Principal: principal}); err != nil {
		t.Fatalf("ClockIn failed: %v", err)
	}

	clock.Advance(time.Hour)
	view, err := svc.StartBreak(ctx, StartBreakParams{Principal: principal, Input: BreakInput{Type: "lunch"}})
	if err != nil {
		t.Fatalf("StartBreak failed: %v", err)
	}
	if len(view.Breaks) != 1 || view.Breaks[0].Type != "lunch" {
		t.Fatalf("expected one lunch break, got %v", view.Breaks)
	}

	_, err = svc.StartBreak(ctx, StartBreakParams{Principal: principal, Input: BreakInput{Type: "rest"}})
	if !errors.Is(err, ErrBreakAlreadyOpen) {
		t.Fatalf("expected ErrBreakAlreadyOpen, got %v", err)
	}

	// Clock-out is blocked while the break is open
	_, err = svc.ClockOut(ctx, ClockOutParams{Principal: principal})
	if !errors.Is(err, ErrBreakStillOpen) {
		t.Fatalf("expected ErrBreakStillOpen, got %v", err)
	}

	clock.Advance(30 * time.Minute)
	view, err = svc.EndBreak(ctx, EndBreakParams{Principal: principal})
	if err != nil {
		t.Fatalf("EndBreak failed: %v", err)
	}
	if view.Breaks[0].DurationMinutes == nil || *view.Breaks[0].DurationMinutes != 30 {
		t.Errorf("expected 30 minute break, got %v", view.Breaks[0].DurationMinutes)
	}

	_, err = svc.EndBreak(ctx, EndBreakParams{Principal: principal})
	if !errors.Is(err, ErrNoOpenBreak) {
		t.Fatalf("expected ErrNoOpenBreak, got %v", err)
	}

	// Net time excludes the closed break: 8h30m gross, 30m break, 8h net
	clock.Set(time.Date(2025, 3, 10, 17, 30, 0, 0, time.UTC))
	closed, err := svc.ClockOut(ctx, ClockOutParams{Principal: principal})
	if err != nil {
		t.Fatalf("ClockOut failed: %v", err)
	}
	if closed.NetMinutes != 480 {
		t.Errorf("expected 480 net minutes, got %d", closed.NetMinutes)
	}
	if closed.Overtime {
		t.Error("exactly 8h net must not be overtime")
	}
}

func TestShiftServiceStartBreakInvalidType(t *testing.T) {
	t.Parallel()

	employee := testfixtures.NewEmployee()
	svc := newTestShiftService(newFakeShiftStore(), newFakeEmployeeStore(employee), newFakeProjectStore(), testfixtures.NewClock(time.Time{}))

	_, err := svc.StartBreak(context.Background(), StartBreakParams{
		Principal: principalFor(employee),
		Input:     BreakInput{Type: "nap"},
	})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestShiftServiceDecideShift(t *testing.T) {
	t.Parallel()

	worker := testfixtures.NewEmployee(testfixtures.WithDepartment("Operations"))
	manager := testfixtures.NewEmployee(testfixtures.WithRole(RoleManager), testfixtures.WithDepartment("Operations"))
	otherManager := testfixtures.NewEmployee(testfixtures.WithRole(RoleManager), testfixtures.WithDepartment("Maintenance"))

	shifts := newFakeShiftStore()
	clock := testfixtures.NewClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	svc := newTestShiftService(shifts, newFakeEmployeeStore(worker, manager, otherManager), newFakeProjectStore(), clock)

	ctx := context.Background()

	if _, err := svc.ClockIn(ctx, ClockInParams{Principal: principalFor(worker)}); err != nil {
		t.Fatalf("ClockIn failed: %v", err)
	}

	open, err := shifts.GetOpenShift(ctx, worker.ID)
	if err != nil {
		t.Fatalf("GetOpenShift failed: %v", err)
	}
	shiftID := open.ID

	// Open shifts cannot be decided
	_, err = svc.DecideShift(ctx, DecideShiftParams{Principal: principalFor(manager), ShiftID: shiftID, Approve: true})
	if !errors.Is(err, ErrShiftStillOpen) {
		t.Fatalf("expected ErrShiftStillOpen, got %v", err)
	}

	clock.Advance(8 * time.Hour)
	if _, err := svc.ClockOut(ctx, ClockOutParams{Principal: principalFor(worker)}); err != nil {
		t.Fatalf("ClockOut failed: %v", err)
	}

	// Plain employees cannot decide
	_, err = svc.DecideShift(ctx, DecideShiftParams{Principal: principalFor(worker), ShiftID: shiftID, Approve: true})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for employee, got %v", err)
	}

	// Managers outside the department cannot decide
	_, err = svc.DecideShift(ctx, DecideShiftParams{Principal: principalFor(otherManager), ShiftID: shiftID, Approve: true})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for other department, got %v", err)
	}

	// Rejection requires a reason
	_, err = svc.DecideShift(ctx, DecideShiftParams{Principal: principalFor(manager), ShiftID: shiftID, Approve: false})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error for missing reason, got %v", err)
	}

	decided, err := svc.DecideShift(ctx, DecideShiftParams{Principal: principalFor(manager), ShiftID: shiftID, Approve: true})
	if err != nil {
		t.Fatalf("DecideShift failed: %v", err)
	}
	if decided.Status != "approved" {
		t.Errorf("expected approved, got %s", decided.Status)
	}
	if decided.ApprovedBy == nil || *decided.ApprovedBy != manager.ID {
		t.Errorf("expected approver %s, got %v", manager.ID, decided.ApprovedBy)
	}

	_, err = svc.DecideShift(ctx, DecideShiftParams{Principal: principalFor(manager), ShiftID: shiftID, Approve: true})
	if !errors.Is(err, ErrShiftAlreadyDecided) {
		t.Fatalf("expected ErrShiftAlreadyDecided, got %v", err)
	}
}

func TestShiftServiceDecideOwnShiftRejected(t *testing.T) {
	t.Parallel()

	manager := testfixtures.NewEmployee(testfixtures.WithRole(RoleManager))
	shifts := newFakeShiftStore()
	clock := testfixtures.NewClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	svc := newTestShiftService(shifts, newFakeEmployeeStore(manager), newFakeProjectStore(), clock)

	ctx := context.Background()
	principal := principalFor(manager)

	if _, err := svc.ClockIn(ctx, ClockInParams{Principal: principal}); err != nil {
		t.Fatalf("ClockIn failed: %v", err)
	}
	clock.Advance(8 * time.Hour)
	closed, err := svc.ClockOut(ctx, ClockOutParams{Principal: principal})
	if err != nil {
		t.Fatalf("ClockOut failed: %v", err)
	}

	_, err = svc.DecideShift(ctx, DecideShiftParams{Principal: principal, ShiftID: closed.ID, Approve: true})
	if !errors.Is(err, ErrSelfApproval) {
		t.Fatalf("expected ErrSelfApproval, got %v", err)
	}
}

func TestShiftServiceListShiftsScoping(t *testing.T) {
	t.Parallel()

	worker := testfixtures.NewEmployee(testfixtures.WithDepartment("Operations"))
	colleague := testfixtures.NewEmployee(testfixtures.WithDepartment("Operations"))
	outsider := testfixtures.NewEmployee(testfixtures.WithDepartment("Maintenance"))
	manager := testfixtures.NewEmployee(testfixtures.WithRole(RoleManager), testfixtures.WithDepartment("Operations"))

	shifts := newFakeShiftStore()
	clock := testfixtures.NewClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	employees := newFakeEmployeeStore(worker, colleague, outsider, manager)
	svc := newTestShiftService(shifts, employees, newFakeProjectStore(), clock)

	ctx := context.Background()
	for _, e := range []persistence.Employee{worker, colleague, outsider} {
		if _, err := svc.ClockIn(ctx, ClockInParams{Principal: principalFor(e)}); err != nil {
			t.Fatalf("ClockIn for %s failed: %v", e.ID, err)
		}
	}

	// Employees only see their own shifts
	own, err := svc.ListShifts(ctx, ListShiftsParams{Principal: principalFor(worker)})
	if err != nil {
		t.Fatalf("ListShifts failed: %v", err)
	}
	if len(own) != 1 || own[0].EmployeeID != worker.ID {
		t.Fatalf("expected only own shift, got %v", own)
	}

	// Employees cannot request another employee's shifts
	_, err = svc.ListShifts(ctx, ListShiftsParams{Principal: principalFor(worker), EmployeeID: &colleague.ID})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	// Managers see their department only
	deptShifts, err := svc.ListShifts(ctx, ListShiftsParams{Principal: principalFor(manager)})
	if err != nil {
		t.Fatalf("ListShifts for manager failed: %v", err)
	}
	if len(deptShifts) != 2 {
		t.Fatalf("expected 2 department shifts, got %d", len(deptShifts))
	}
	for _, view := range deptShifts {
		if view.EmployeeID == outsider.ID {
			t.Errorf("manager must not see other department shift %s", view.ID)
		}
	}
}

func TestShiftServicePendingShifts(t *testing.T) {
	t.Parallel()

	worker := testfixtures.NewEmployee(testfixtures.WithDepartment("Operations"))
	manager := testfixtures.NewEmployee(testfixtures.WithRole(RoleManager), testfixtures.WithDepartment("Operations"))

	shifts := newFakeShiftStore()
	clock := testfixtures.NewClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	svc := newTestShiftService(shifts, newFakeEmployeeStore(worker, manager), newFakeProjectStore(), clock)

	ctx := context.Background()
	if _, err := svc.ClockIn(ctx, ClockInParams{Principal: principalFor(worker)}); err != nil {
		t.Fatalf("ClockIn failed: %v", err)
	}

	// Open shifts are not pending for approval yet
	pending, err := svc.PendingShifts(ctx, PendingShiftsParams{Principal: principalFor(manager)})
	if err != nil {
		t.Fatalf("PendingShifts failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending shifts while open, got %d", len(pending))
	}

	clock.Advance(8 * time.Hour)
	if _, err := svc.ClockOut(ctx, ClockOutParams{Principal: principalFor(worker)}); err != nil {
		t.Fatalf("ClockOut failed: %v", err)
	}

	pending, err = svc.PendingShifts(ctx, PendingShiftsParams{Principal: principalFor(manager)})
	if err != nil {
		t.Fatalf("PendingShifts failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending shift, got %d", len(pending))
	}

	_, err = svc.PendingShifts(ctx, PendingShiftsParams{Principal: principalFor(worker)})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for employee, got %v", err)
	}
}
