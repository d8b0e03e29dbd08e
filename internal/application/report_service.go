package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/timeclock/internal/persistence"
	"github.com/example/timeclock/internal/timesheet"
)

// ReportService builds aggregated labor reports over closed shifts.
type ReportService struct {
	shifts    ShiftRepository
	employees EmployeeReader
	location  *time.Location
	now       func() time.Time
	logger    *slog.Logger
}

// NewReportService constructs a report service with the provided dependencies.
// Report date ranges are resolved in the given location; daily breakdown
// buckets stay in UTC.
func NewReportService(shifts ShiftRepository, employees EmployeeReader, location *time.Location, now func() time.Time) *ReportService {
	return NewReportServiceWithLogger(shifts, employees, location, now, nil)
}

// NewReportServiceWithLogger constructs a report service with a specified logger.
func NewReportServiceWithLogger(shifts ShiftRepository, employees EmployeeReader, location *time.Location, now func() time.Time, logger *slog.Logger) *ReportService {
	if location == nil {
		location = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &ReportService{
		shifts:    shifts,
		employees: employees,
		location:  location,
		now:       now,
		logger:    defaultLogger(logger),
	}
}

func (s *ReportService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ReportService", operation, attrs...)
}

// GenerateReport aggregates closed shifts over the resolved date range,
// optionally narrowed by employee, department, or project. Managers are
// scoped to their own department.
func (s *ReportService) GenerateReport(ctx context.Context, params GenerateReportParams) (report Report, err error) {
	if s == nil {
		err = fmt.Errorf("ReportService is nil")
		return
	}

	logger := s.loggerWith(ctx, "GenerateReport",
		"principal_id", params.Principal.EmployeeID,
		"report_type", string(params.Type),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to generate report", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("total_shifts", report.Stats.TotalShifts).InfoContext(ctx, "report generated")
	}()

	if !params.Principal.IsManager() {
		err = ErrUnauthorized
		return
	}

	dateRange, err := s.resolveRange(params.Type, params.Date, params.StartDate, params.EndDate)
	if err != nil {
		err = mapRangeError(err)
		return
	}

	department := params.Department
	if !params.Principal.IsAdmin() {
		// Managers always report on their own department
		if department != nil && *department != params.Principal.Department {
			err = ErrUnauthorized
			return
		}
		own := params.Principal.Department
		department = &own
	}

	filter := persistence.ShiftFilter{
		ProjectID:        params.ProjectID,
		OnlyClosed:       true,
		StartsOnOrAfter:  &dateRange.Start,
		StartsOnOrBefore: &dateRange.End,
	}

	if department != nil {
		var ids []string
		ids, err = s.employees.ListEmployeeIDsByDepartment(ctx, *department)
		if err != nil {
			return
		}
		if params.EmployeeID != nil {
			if !containsID(ids, *params.EmployeeID) {
				err = ErrUnauthorized
				return
			}
			filter.EmployeeIDs = []string{*params.EmployeeID}
		} else {
			if len(ids) == 0 {
				report = Report{Type: params.Type, StartDate: dateRange.Start, EndDate: dateRange.End, Stats: timesheet.Aggregate(nil)}
				return
			}
			filter.EmployeeIDs = ids
		}
	} else if params.EmployeeID != nil {
		filter.EmployeeIDs = []string{*params.EmployeeID}
	}

	stats, err := s.aggregate(ctx, filter)
	if err != nil {
		return
	}

	report = Report{
		Type:      params.Type,
		StartDate: dateRange.Start,
		EndDate:   dateRange.End,
		Stats:     stats,
	}
	return
}

// EmployeeSummary reports one employee's shift counts by approval status and
// the approved hours and pay over the period. The period defaults to the
// current month.
func (s *ReportService) EmployeeSummary(ctx context.Context, params EmployeeSummaryParams) (summary EmployeeSummary, err error) {
	if s == nil {
		err = fmt.Errorf("ReportService is nil")
		return
	}

	logger := s.loggerWith(ctx, "EmployeeSummary",
		"principal_id", params.Principal.EmployeeID,
		"employee_id", params.EmployeeID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to summarize employee", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	employee, err := s.employees.GetEmployee(ctx, params.EmployeeID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrNotFound
		}
		return
	}

	if !params.Principal.CanAccessEmployee(employee.ID, employee.Department) {
		err = ErrUnauthorized
		return
	}

	reportType := timesheet.ReportMonthly
	if params.From != nil || params.To != nil {
		reportType = timesheet.ReportCustom
	}
	dateRange, err := s.resolveRange(reportType, s.now(), params.From, params.To)
	if err != nil {
		err = mapRangeError(err)
		return
	}

	shifts, err := s.shifts.ListShifts(ctx, persistence.ShiftFilter{
		EmployeeIDs:      []string{params.EmployeeID},
		StartsOnOrAfter:  &dateRange.Start,
		StartsOnOrBefore: &dateRange.End,
	})
	if err != nil {
		return
	}

	summary = EmployeeSummary{
		Employee:    newEmployeeViewForSummary(employee),
		PeriodStart: dateRange.Start,
		PeriodEnd:   dateRange.End,
	}

	for _, shift := range shifts {
		summary.TotalShifts++
		switch timesheet.Status(shift.Status) {
		case timesheet.StatusApproved:
			summary.ApprovedShifts++
		case timesheet.StatusRejected:
			summary.RejectedShifts++
		default:
			summary.PendingShifts++
		}

		if timesheet.Status(shift.Status) == timesheet.StatusApproved {
			ts := toTimesheetShift(shift)
			if ts.Closed() {
				summary.ApprovedHours += timesheet.NetHours(ts)
				if pay := timesheet.CalculatedPay(ts); pay != nil {
					summary.ApprovedPay += *pay
				}
			}
		}
	}

	return
}

// DepartmentSummary reports aggregate labor figures for one department over
// the period, defaulting to the current month.
func (s *ReportService) DepartmentSummary(ctx context.Context, params DepartmentSummaryParams) (summary DepartmentSummary, err error) {
	if s == nil {
		err = fmt.Errorf("ReportService is nil")
		return
	}

	logger := s.loggerWith(ctx, "DepartmentSummary",
		"principal_id", params.Principal.EmployeeID,
		"department", params.Department,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to summarize department", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if !params.Principal.IsManager() {
		err = ErrUnauthorized
		return
	}
	if !params.Principal.IsAdmin() && params.Department != params.Principal.Department {
		err = ErrUnauthorized
		return
	}

	reportType := timesheet.ReportMonthly
	if params.From != nil || params.To != nil {
		reportType = timesheet.ReportCustom
	}
	dateRange, err := s.resolveRange(reportType, s.now(), params.From, params.To)
	if err != nil {
		err = mapRangeError(err)
		return
	}

	ids, err := s.employees.ListEmployeeIDsByDepartment(ctx, params.Department)
	if err != nil {
		return
	}

	summary = DepartmentSummary{
		Department:    params.Department,
		PeriodStart:   dateRange.Start,
		PeriodEnd:     dateRange.End,
		EmployeeCount: len(ids),
	}

	if len(ids) == 0 {
		summary.Stats = timesheet.Aggregate(nil)
		return
	}

	stats, err := s.aggregate(ctx, persistence.ShiftFilter{
		EmployeeIDs:      ids,
		OnlyClosed:       true,
		StartsOnOrAfter:  &dateRange.Start,
		StartsOnOrBefore: &dateRange.End,
	})
	if err != nil {
		return
	}

	summary.Stats = stats
	return
}

// aggregate lists shifts for the filter, enriches them with employee
// identity, and folds them into aggregate statistics.
func (s *ReportService) aggregate(ctx context.Context, filter persistence.ShiftFilter) (timesheet.Stats, error) {
	shifts, err := s.shifts.ListShifts(ctx, filter)
	if err != nil {
		return timesheet.Stats{}, err
	}

	identities := make(map[string]persistence.Employee)
	enriched := make([]timesheet.Shift, 0, len(shifts))

	for _, shift := range shifts {
		ts := toTimesheetShift(shift)

		employee, ok := identities[shift.EmployeeID]
		if !ok {
			employee, err = s.employees.GetEmployee(ctx, shift.EmployeeID)
			if err != nil && !errors.Is(err, persistence.ErrNotFound) {
				return timesheet.Stats{}, err
			}
			identities[shift.EmployeeID] = employee
		}

		ts.EmployeeName = employee.FirstName + " " + employee.LastName
		ts.EmployeeEmail = employee.Email
		ts.Department = employee.Department
		ts.JobTitle = employee.JobTitle

		enriched = append(enriched, ts)
	}

	return timesheet.Aggregate(enriched), nil
}

func (s *ReportService) resolveRange(reportType timesheet.ReportType, anchor time.Time, start, end *time.Time) (timesheet.DateRange, error) {
	var startAt, endAt time.Time
	if start != nil {
		startAt = *start
	}
	if end != nil {
		endAt = *end
	}
	return timesheet.ComputeRange(reportType, anchor, startAt, endAt, s.location)
}

func mapRangeError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, timesheet.ErrInvalidReportType) || errors.Is(err, timesheet.ErrMissingCustomRange) {
		vErr := &ValidationError{}
		vErr.add("report_type", err.Error())
		return vErr
	}
	return err
}

// newEmployeeViewForSummary builds the employee view without the open-shift
// activity probe; summaries report period figures, not live presence.
func newEmployeeViewForSummary(employee persistence.Employee) EmployeeView {
	return EmployeeView{
		ID:         employee.ID,
		Email:      employee.Email,
		FirstName:  employee.FirstName,
		LastName:   employee.LastName,
		Role:       employee.Role,
		Department: employee.Department,
		JobTitle:   employee.JobTitle,
		HourlyRate: employee.HourlyRate,
		Disabled:   employee.Disabled,
		CreatedAt:  employee.CreatedAt,
		UpdatedAt:  employee.UpdatedAt,
	}
}
