package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/timeclock/internal/persistence"
	"github.com/example/timeclock/internal/testfixtures"
	"github.com/example/timeclock/internal/timesheet"
)

func seedShift(store *fakeShiftStore, shift persistence.Shift) {
	stored := shift
	store.shifts[shift.ID] = &stored
}

func TestReportServiceGenerateReportUnauthorized(t *testing.T) {
	t.Parallel()

	worker := testfixtures.NewEmployee()
	svc := NewReportService(newFakeShiftStore(), newFakeEmployeeStore(worker), time.UTC, nil)

	_, err := svc.GenerateReport(context.Background(), GenerateReportParams{
		Principal: principalFor(worker),
		Type:      timesheet.ReportDaily,
		Date:      time.Now(),
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestReportServiceGenerateReportDaily(t *testing.T) {
	t.Parallel()

	rate := 20.0
	worker := testfixtures.NewEmployee(testfixtures.WithDepartment("Operations"), testfixtures.WithHourlyRate(rate))
	outsider := testfixtures.NewEmployee(testfixtures.WithDepartment("Maintenance"))
	manager := testfixtures.NewEmployee(testfixtures.WithRole(RoleManager), testfixtures.WithDepartment("Operations"))

	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	store := newFakeShiftStore()

	inRange := testfixtures.NewShift(
		testfixtures.ForEmployee(worker.ID),
		testfixtures.StartingAt(day.Add(9*time.Hour)),
		testfixtures.ClosedAfter(8*time.Hour),
	)
	inRange.HourlyRate = &rate
	seedShift(store, inRange)

	// Same day, other department
	seedShift(store, testfixtures.NewShift(
		testfixtures.ForEmployee(outsider.ID),
		testfixtures.StartingAt(day.Add(10*time.Hour)),
		testfixtures.ClosedAfter(6*time.Hour),
	))

	// Previous day
	seedShift(store, testfixtures.NewShift(
		testfixtures.ForEmployee(worker.ID),
		testfixtures.StartingAt(day.Add(-15*time.Hour)),
		testfixtures.ClosedAfter(4*time.Hour),
	))

	svc := NewReportService(store, newFakeEmployeeStore(worker, outsider, manager), time.UTC, nil)

	report, err := svc.GenerateReport(context.Background(), GenerateReportParams{
		Principal: principalFor(manager),
		Type:      timesheet.ReportDaily,
		Date:      day.Add(12 * time.Hour),
	})
	if err != nil {
		t.Fatalf("GenerateReport failed: %v", err)
	}

	if report.Stats.TotalShifts != 1 {
		t.Fatalf("expected 1 shift in dept daily report, got %d", report.Stats.TotalShifts)
	}
	if report.Stats.TotalHours != 8.0 {
		t.Errorf("expected 8.0 total hours, got %v", report.Stats.TotalHours)
	}
	if !report.StartDate.Equal(day) {
		t.Errorf("expected range start %v, got %v", day, report.StartDate)
	}

	// A manager cannot report on another department
	other := "Maintenance"
	_, err = svc.GenerateReport(context.Background(), GenerateReportParams{
		Principal:  principalFor(manager),
		Type:       timesheet.ReportDaily,
		Date:       day,
		Department: &other,
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for other department, got %v", err)
	}
}

func TestReportServiceGenerateReportCustomRangeValidation(t *testing.T) {
	t.Parallel()

	admin := testfixtures.NewEmployee(testfixtures.WithRole(RoleAdmin))
	svc := NewReportService(newFakeShiftStore(), newFakeEmployeeStore(admin), time.UTC, nil)

	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.GenerateReport(context.Background(), GenerateReportParams{
		Principal: principalFor(admin),
		Type:      timesheet.ReportCustom,
		StartDate: &start,
	})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error for half-open custom range, got %v", err)
	}
}

func TestReportServiceEmployeeSummary(t *testing.T) {
	t.Parallel()

	rate := 10.0
	worker := testfixtures.NewEmployee(testfixtures.WithDepartment("Operations"), testfixtures.WithHourlyRate(rate))
	manager := testfixtures.NewEmployee(testfixtures.WithRole(RoleManager), testfixtures.WithDepartment("Operations"))

	monthStart := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	store := newFakeShiftStore()

	approved := testfixtures.NewShift(
		testfixtures.ForEmployee(worker.ID),
		testfixtures.StartingAt(monthStart.Add(9*time.Hour)),
		testfixtures.ClosedAfter(8*time.Hour),
		testfixtures.WithStatus("approved"),
	)
	approved.HourlyRate = &rate
	seedShift(store, approved)

	seedShift(store, testfixtures.NewShift(
		testfixtures.ForEmployee(worker.ID),
		testfixtures.StartingAt(monthStart.Add(33*time.Hour)),
		testfixtures.ClosedAfter(7*time.Hour),
		testfixtures.WithStatus("rejected"),
	))
	seedShift(store, testfixtures.NewShift(
		testfixtures.ForEmployee(worker.ID),
		testfixtures.StartingAt(monthStart.Add(57*time.Hour)),
		testfixtures.ClosedAfter(6*time.Hour),
	))

	clock := testfixtures.NewClock(monthStart.Add(10 * 24 * time.Hour))
	svc := NewReportService(store, newFakeEmployeeStore(worker, manager), time.UTC, clock.NowFunc())

	summary, err := svc.EmployeeSummary(context.Background(), EmployeeSummaryParams{
		Principal:  principalFor(manager),
		EmployeeID: worker.ID,
	})
	if err != nil {
		t.Fatalf("EmployeeSummary failed: %v", err)
	}

	if summary.TotalShifts != 3 {
		t.Errorf("expected 3 shifts, got %d", summary.TotalShifts)
	}
	if summary.ApprovedShifts != 1 || summary.RejectedShifts != 1 || summary.PendingShifts != 1 {
		t.Errorf("unexpected status buckets: %+v", summary)
	}
	if summary.ApprovedHours != 8.0 {
		t.Errorf("expected 8.0 approved hours, got %v", summary.ApprovedHours)
	}
	if summary.ApprovedPay != 80.0 {
		t.Errorf("expected 80.0 approved pay, got %v", summary.ApprovedPay)
	}
	if !summary.PeriodStart.Equal(monthStart) {
		t.Errorf("expected period start %v, got %v", monthStart, summary.PeriodStart)
	}
}

func TestReportServiceEmployeeSummaryScope(t *testing.T) {
	t.Parallel()

	worker := testfixtures.NewEmployee(testfixtures.WithDepartment("Operations"))
	colleague := testfixtures.NewEmployee(testfixtures.WithDepartment("Operations"))

	svc := NewReportService(newFakeShiftStore(), newFakeEmployeeStore(worker, colleague), time.UTC, nil)

	// An employee may read their own summary
	if _, err := svc.EmployeeSummary(context.Background(), EmployeeSummaryParams{
		Principal:  principalFor(worker),
		EmployeeID: worker.ID,
	}); err != nil {
		t.Fatalf("own summary failed: %v", err)
	}

	// But not a colleague's
	_, err := svc.EmployeeSummary(context.Background(), EmployeeSummaryParams{
		Principal:  principalFor(worker),
		EmployeeID: colleague.ID,
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestReportServiceDepartmentSummary(t *testing.T) {
	t.Parallel()

	worker := testfixtures.NewEmployee(testfixtures.WithDepartment("Operations"))
	colleague := testfixtures.NewEmployee(testfixtures.WithDepartment("Operations"))
	manager := testfixtures.NewEmployee(testfixtures.WithRole(RoleManager), testfixtures.WithDepartment("Operations"))

	monthStart := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	store := newFakeShiftStore()

	seedShift(store, testfixtures.NewShift(
		testfixtures.ForEmployee(worker.ID),
		testfixtures.StartingAt(monthStart.Add(9*time.Hour)),
		testfixtures.ClosedAfter(8*time.Hour),
	))
	seedShift(store, testfixtures.NewShift(
		testfixtures.ForEmployee(colleague.ID),
		testfixtures.StartingAt(monthStart.Add(33*time.Hour)),
		testfixtures.ClosedAfter(6*time.Hour),
	))

	clock := testfixtures.NewClock(monthStart.Add(5 * 24 * time.Hour))
	svc := NewReportService(store, newFakeEmployeeStore(worker, colleague, manager), time.UTC, clock.NowFunc())

	summary, err := svc.DepartmentSummary(context.Background(), DepartmentSummaryParams{
		Principal:  principalFor(manager),
		Department: "Operations",
	})
	if err != nil {
		t.Fatalf("DepartmentSummary failed: %v", err)
	}

	if summary.EmployeeCount != 3 {
		t.Errorf("expected 3 employees in department, got %d", summary.EmployeeCount)
	}
	if summary.Stats.TotalShifts != 2 {
		t.Errorf("expected 2 shifts, got %d", summary.Stats.TotalShifts)
	}
	if summary.Stats.TotalHours != 14.0 {
		t.Errorf("expected 14.0 total hours, got %v", summary.Stats.TotalHours)
	}

	_, err = svc.DepartmentSummary(context.Background(), DepartmentSummaryParams{
		Principal:  principalFor(manager),
		Department: "Maintenance",
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for other department, got %v", err)
	}
}
