package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/example/timeclock/internal/persistence"
	"github.com/example/timeclock/internal/timesheet"
)

// ShiftRepository captures the persistence operations needed by the shift service.
type ShiftRepository interface {
	CreateShiftIfNoneOpen(ctx context.Context, shift persistence.Shift) error
	GetOpenShift(ctx context.Context, employeeID string) (persistence.Shift, error)
	CloseShift(ctx context.Context, close persistence.ShiftClose) (persistence.Shift, error)
	StartBreak(ctx context.Context, employeeID string, brk persistence.Break) (persistence.Shift, error)
	EndBreak(ctx context.Context, employeeID string, endTime time.Time) (persistence.Shift, error)
	DecideShift(ctx context.Context, decision persistence.ShiftDecision) (persistence.Shift, error)
	GetShift(ctx context.Context, id string) (persistence.Shift, error)
	ListShifts(ctx context.Context, filter persistence.ShiftFilter) ([]persistence.Shift, error)
	HasOpenShift(ctx context.Context, employeeID string) (bool, error)
}

// EmployeeReader reads employee records for authorization and rate snapshots.
type EmployeeReader interface {
	GetEmployee(ctx context.Context, id string) (persistence.Employee, error)
	ListEmployeeIDsByDepartment(ctx context.Context, department string) ([]string, error)
}

// ProjectReader reads project records for booking validation.
type ProjectReader interface {
	GetProject(ctx context.Context, id string) (persistence.Project, error)
}

// employeeLocks hands out one mutex per employee so a clock action and its
// guarded write pair up without serializing unrelated employees.
type employeeLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newEmployeeLocks() *employeeLocks {
	return &employeeLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *employeeLocks) lock(employeeID string) func() {
	l.mu.Lock()
	m, ok := l.locks[employeeID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[employeeID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// ShiftService orchestrates the clock-in/out lifecycle, break tracking, and
// shift approval.
type ShiftService struct {
	shifts      ShiftRepository
	employees   EmployeeReader
	projects    ProjectReader
	locks       *employeeLocks
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewShiftService constructs a shift service with the provided dependencies.
func NewShiftService(shifts ShiftRepository, employees EmployeeReader, projects ProjectReader, idGenerator func() string, now func() time.Time) *ShiftService {
	return NewShiftServiceWithLogger(shifts, employees, projects, idGenerator, now, nil)
}

// NewShiftServiceWithLogger constructs a shift service with a specified logger.
func NewShiftServiceWithLogger(shifts ShiftRepository, employees EmployeeReader, projects ProjectReader, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ShiftService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ShiftService{
		shifts:      shifts,
		employees:   employees,
		projects:    projects,
		locks:       newEmployeeLocks(),
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *ShiftService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ShiftService", operation, attrs...)
}

// ClockIn opens a new shift for the principal. An employee can hold at most
// one open shift.
func (s *ShiftService) ClockIn(ctx context.Context, params ClockInParams) (view ShiftView, err error) {
	if s == nil {
		err = fmt.Errorf("ShiftService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ClockIn",
		"employee_id", params.Principal.EmployeeID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to clock in", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("shift_id", view.ID).InfoContext(ctx, "clocked in")
	}()

	employee, err := s.employees.GetEmployee(ctx, params.Principal.EmployeeID)
	if err != nil {
		err = mapShiftRepoError(err)
		return
	}
	if employee.Disabled {
		err = ErrAccountDisabled
		return
	}

	vErr := &ValidationError{}
	if params.Input.PayMultiplier < 0 {
		vErr.add("pay_multiplier", "pay multiplier must not be negative")
	}
	if params.Input.ProjectID != nil {
		project, pErr := s.projects.GetProject(ctx, *params.Input.ProjectID)
		if pErr != nil {
			if errors.Is(pErr, persistence.ErrNotFound) {
				vErr.add("project_id", "project does not exist")
			} else {
				err = pErr
				return
			}
		} else if project.Status != "active" {
			vErr.add("project_id", "project is not active")
		}
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	unlock := s.locks.lock(params.Principal.EmployeeID)
	defer unlock()

	multiplier := params.Input.PayMultiplier
	if multiplier == 0 {
		multiplier = 1.0
	}

	shift := persistence.Shift{
		ID:                s.idGenerator(),
		EmployeeID:        params.Principal.EmployeeID,
		StartTime:         s.now().UTC(),
		Status:            string(timesheet.StatusPending),
		ProjectID:         params.Input.ProjectID,
		HourlyRate:        employee.HourlyRate,
		PayMultiplier:     multiplier,
		Notes:             normalizeOptionalString(params.Input.Notes),
		StartLocation:     normalizeOptionalString(params.Input.StartLocation),
		Device:            normalizeOptionalString(params.Input.Device),
		IPAddress:         normalizeOptionalString(params.Input.IPAddress),
		VerificationImage: normalizeOptionalString(params.Input.VerificationImage),
	}

	if err = s.shifts.CreateShiftIfNoneOpen(ctx, shift); err != nil {
		err = mapShiftRepoError(err)
		return
	}

	created, err := s.shifts.GetOpenShift(ctx, params.Principal.EmployeeID)
	if err != nil {
		err = mapShiftRepoError(err)
		return
	}

	view = newShiftView(created)
	return
}

// ClockOut closes the principal's open shift, computing the overtime flag
// from the net worked duration.
func (s *ShiftService) ClockOut(ctx context.Context, params ClockOutParams) (view ShiftView, err error) {
	if s == nil {
		err = fmt.Errorf("ShiftService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ClockOut",
		"employee_id", params.Principal.EmployeeID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to clock out", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("shift_id", view.ID, "overtime", view.Overtime).InfoContext(ctx, "clocked out")
	}()

	unlock := s.locks.lock(params.Principal.EmployeeID)
	defer unlock()

	open, err := s.shifts.GetOpenShift(ctx, params.Principal.EmployeeID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrNoOpenShift
		}
		return
	}

	endTime := s.now().UTC()
	closing := toTimesheetShift(open)
	closing.End = endTime

	closed, err := s.shifts.CloseShift(ctx, persistence.ShiftClose{
		EmployeeID:        params.Principal.EmployeeID,
		EndTime:           endTime,
		Overtime:          timesheet.IsOvertime(closing),
		Notes:             normalizeOptionalString(params.Input.Notes),
		EndLocation:       normalizeOptionalString(params.Input.EndLocation),
		Device:            normalizeOptionalString(params.Input.Device),
		IPAddress:         normalizeOptionalString(params.Input.IPAddress),
		VerificationImage: normalizeOptionalString(params.Input.VerificationImage),
	})
	if err != nil {
		switch {
		case errors.Is(err, persistence.ErrNotFound):
			err = ErrNoOpenShift
		case errors.Is(err, persistence.ErrConflict):
			err = ErrBreakStillOpen
		}
		return
	}

	view = newShiftView(closed)
	return
}

// StartBreak opens a break on the principal's open shift. A shift can hold
// at most one open break.
func (s *ShiftService) StartBreak(ctx context.Context, params StartBreakParams) (view ShiftView, err error) {
	if s == nil {
		err = fmt.Errorf("ShiftService is nil")
		return
	}

	logger := s.loggerWith(ctx, "StartBreak",
		"employee_id", params.Principal.EmployeeID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to start break", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("shift_id", view.ID).InfoContext(ctx, "break started")
	}()

	breakType := strings.TrimSpace(params.Input.Type)
	if breakType == "" {
		breakType = string(timesheet.BreakTypeRest)
	}
	if !validBreakType(breakType) {
		vErr := &ValidationError{}
		vErr.add("type", "break type must be lunch, rest, or other")
		err = vErr
		return
	}

	unlock := s.locks.lock(params.Principal.EmployeeID)
	defer unlock()

	shift, err := s.shifts.StartBreak(ctx, params.Principal.EmployeeID, persistence.Break{
		ID:        s.idGenerator(),
		StartTime: s.now().UTC(),
		Type:      breakType,
		Notes:     normalizeOptionalString(params.Input.Notes),
	})
	if err != nil {
		switch {
		case errors.Is(err, persistence.ErrNotFound):
			err = ErrNoOpenShift
		case errors.Is(err, persistence.ErrConflict):
			err = ErrBreakAlreadyOpen
		}
		return
	}

	view = newShiftView(shift)
	return
}

// EndBreak closes the open break on the principal's open shift.
func (s *ShiftService) EndBreak(ctx context.Context, params EndBreakParams) (view ShiftView, err error) {
	if s == nil {
		err = fmt.Errorf("ShiftService is nil")
		return
	}

	logger := s.loggerWith(ctx, "EndBreak",
		"employee_id", params.Principal.EmployeeID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to end break", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("shift_id", view.ID).InfoContext(ctx, "break ended")
	}()

	unlock := s.locks.lock(params.Principal.EmployeeID)
	defer unlock()

	shift, err := s.shifts.EndBreak(ctx, params.Principal.EmployeeID, s.now().UTC())
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			hasShift, checkErr := s.shifts.HasOpenShift(ctx, params.Principal.EmployeeID)
			if checkErr == nil && !hasShift {
				err = ErrNoOpenShift
			} else {
				err = ErrNoOpenBreak
			}
		}
		return
	}

	view = newShiftView(shift)
	return
}

// CurrentShift returns the principal's open shift.
func (s *ShiftService) CurrentShift(ctx context.Context, principal Principal) (ShiftView, error) {
	if s == nil {
		return ShiftView{}, fmt.Errorf("ShiftService is nil")
	}

	shift, err := s.shifts.GetOpenShift(ctx, principal.EmployeeID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ShiftView{}, ErrNoOpenShift
		}
		return ShiftView{}, err
	}

	return newShiftView(shift), nil
}

// DecideShift approves or rejects a closed pending shift. Approvers never
// decide their own shifts, and managers only decide shifts within their
// department.
func (s *ShiftService) DecideShift(ctx context.Context, params DecideShiftParams) (view ShiftView, err error) {
	if s == nil {
		err = fmt.Errorf("ShiftService is nil")
		return
	}

	logger := s.loggerWith(ctx, "DecideShift",
		"principal_id", params.Principal.EmployeeID,
		"shift_id", params.ShiftID,
		"approve", params.Approve,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to decide shift", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("status", view.Status).InfoContext(ctx, "shift decided")
	}()

	if !params.Principal.IsManager() {
		err = ErrUnauthorized
		return
	}

	if !params.Approve {
		reason := normalizeOptionalString(params.RejectionReason)
		if reason == nil {
			vErr := &ValidationError{}
			vErr.add("rejection_reason", "rejection reason is required")
			err = vErr
			return
		}
		params.RejectionReason = reason
	} else {
		params.RejectionReason = nil
	}

	shift, err := s.shifts.GetShift(ctx, params.ShiftID)
	if err != nil {
		err = mapShiftRepoError(err)
		return
	}

	if shift.EmployeeID == params.Principal.EmployeeID {
		err = ErrSelfApproval
		return
	}

	if !params.Principal.IsAdmin() {
		var owner persistence.Employee
		owner, err = s.employees.GetEmployee(ctx, shift.EmployeeID)
		if err != nil {
			err = mapShiftRepoError(err)
			return
		}
		if owner.Department != params.Principal.Department {
			err = ErrUnauthorized
			return
		}
	}

	if shift.EndTime == nil {
		err = ErrShiftStillOpen
		return
	}

	status := string(timesheet.StatusApproved)
	if !params.Approve {
		status = string(timesheet.StatusRejected)
	}

	decided, err := s.shifts.DecideShift(ctx, persistence.ShiftDecision{
		ShiftID:         params.ShiftID,
		Status:          status,
		ApprovedBy:      params.Principal.EmployeeID,
		ApprovalDate:    s.now().UTC(),
		RejectionReason: params.RejectionReason,
	})
	if err != nil {
		switch {
		case errors.Is(err, persistence.ErrNotFound):
			err = ErrNotFound
		case errors.Is(err, persistence.ErrPreconditionFailed):
			err = ErrShiftAlreadyDecided
		}
		return
	}

	view = newShiftView(decided)
	return
}

// GetShift returns a single shift subject to the principal's scope.
func (s *ShiftService) GetShift(ctx context.Context, params GetShiftParams) (ShiftView, error) {
	if s == nil {
		return ShiftView{}, fmt.Errorf("ShiftService is nil")
	}

	shift, err := s.shifts.GetShift(ctx, params.ShiftID)
	if err != nil {
		return ShiftView{}, mapShiftRepoError(err)
	}

	if shift.EmployeeID != params.Principal.EmployeeID {
		owner, err := s.employees.GetEmployee(ctx, shift.EmployeeID)
		if err != nil {
			return ShiftView{}, mapShiftRepoError(err)
		}
		if !params.Principal.CanAccessEmployee(owner.ID, owner.Department) {
			return ShiftView{}, ErrUnauthorized
		}
	}

	return newShiftView(shift), nil
}

// ListShifts returns shifts matching the filters, restricted to the
// principal's scope.
func (s *ShiftService) ListShifts(ctx context.Context, params ListShiftsParams) ([]ShiftView, error) {
	if s == nil {
		return nil, fmt.Errorf("ShiftService is nil")
	}

	filter := persistence.ShiftFilter{
		ProjectID:        params.ProjectID,
		Status:           params.Status,
		StartsOnOrAfter:  params.From,
		StartsOnOrBefore: params.To,
	}

	switch {
	case params.Principal.IsAdmin():
		if params.EmployeeID != nil {
			filter.EmployeeIDs = []string{*params.EmployeeID}
		}
	case params.Principal.Role == RoleManager:
		ids, err := s.employees.ListEmployeeIDsByDepartment(ctx, params.Principal.Department)
		if err != nil {
			return nil, err
		}
		if params.EmployeeID != nil {
			if !containsID(ids, *params.EmployeeID) && *params.EmployeeID != params.Principal.EmployeeID {
				return nil, ErrUnauthorized
			}
			filter.EmployeeIDs = []string{*params.EmployeeID}
		} else {
			if len(ids) == 0 {
				return []ShiftView{}, nil
			}
			filter.EmployeeIDs = ids
		}
	default:
		if params.EmployeeID != nil && *params.EmployeeID != params.Principal.EmployeeID {
			return nil, ErrUnauthorized
		}
		filter.EmployeeIDs = []string{params.Principal.EmployeeID}
	}

	shifts, err := s.shifts.ListShifts(ctx, filter)
	if err != nil {
		return nil, err
	}

	views := make([]ShiftView, 0, len(shifts))
	for _, shift := range shifts {
		views = append(views, newShiftView(shift))
	}
	return views, nil
}

// PendingShifts returns closed shifts awaiting a decision within the
// principal's scope.
func (s *ShiftService) PendingShifts(ctx context.Context, params PendingShiftsParams) ([]ShiftView, error) {
	if s == nil {
		return nil, fmt.Errorf("ShiftService is nil")
	}
	if !params.Principal.IsManager() {
		return nil, ErrUnauthorized
	}

	pending := string(timesheet.StatusPending)
	filter := persistence.ShiftFilter{
		Status:     &pending,
		OnlyClosed: true,
	}

	if !params.Principal.IsAdmin() {
		ids, err := s.employees.ListEmployeeIDsByDepartment(ctx, params.Principal.Department)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return []ShiftView{}, nil
		}
		filter.EmployeeIDs = ids
	}

	shifts, err := s.shifts.ListShifts(ctx, filter)
	if err != nil {
		return nil, err
	}

	views := make([]ShiftView, 0, len(shifts))
	for _, shift := range shifts {
		views = append(views, newShiftView(shift))
	}
	return views, nil
}

func validBreakType(breakType string) bool {
	switch timesheet.BreakType(breakType) {
	case timesheet.BreakTypeLunch, timesheet.BreakTypeRest, timesheet.BreakTypeOther:
		return true
	}
	return false
}

func containsID(ids []string, target string) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}

func normalizeOptionalString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func mapShiftRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrConflict):
		return ErrShiftAlreadyOpen
	default:
		return err
	}
}

// toTimesheetShift projects a stored shift into the calculator's shape. Open
// intervals map to zero times.
func toTimesheetShift(shift persistence.Shift) timesheet.Shift {
	ts := timesheet.Shift{
		ID:            shift.ID,
		EmployeeID:    shift.EmployeeID,
		Start:         shift.StartTime,
		Status:        timesheet.Status(shift.Status),
		HourlyRate:    shift.HourlyRate,
		PayMultiplier: shift.PayMultiplier,
	}
	if shift.EndTime != nil {
		ts.End = *shift.EndTime
	}
	if shift.ProjectID != nil {
		ts.ProjectID = *shift.ProjectID
	}
	for _, brk := range shift.Breaks {
		b := timesheet.Break{
			Start: brk.StartTime,
			Type:  timesheet.BreakType(brk.Type),
		}
		if brk.EndTime != nil {
			b.End = *brk.EndTime
		}
		ts.Breaks = append(ts.Breaks, b)
	}
	return ts
}

// newShiftView derives the caller-facing representation including duration
// and pay figures for closed shifts.
func newShiftView(shift persistence.Shift) ShiftView {
	view := ShiftView{
		ID:                shift.ID,
		EmployeeID:        shift.EmployeeID,
		StartTime:         shift.StartTime,
		EndTime:           shift.EndTime,
		Status:            shift.Status,
		ProjectID:         shift.ProjectID,
		Overtime:          shift.Overtime,
		HourlyRate:        shift.HourlyRate,
		PayMultiplier:     shift.PayMultiplier,
		Notes:             shift.Notes,
		StartLocation:     shift.StartLocation,
		EndLocation:       shift.EndLocation,
		Device:            shift.Device,
		IPAddress:         shift.IPAddress,
		VerificationImage: shift.VerificationImage,
		ApprovedBy:        shift.ApprovedBy,
		ApprovalDate:      shift.ApprovalDate,
		RejectionReason:   shift.RejectionReason,
		CreatedAt:         shift.CreatedAt,
		UpdatedAt:         shift.UpdatedAt,
	}

	for _, brk := range shift.Breaks {
		view.Breaks = append(view.Breaks, BreakView{
			ID:              brk.ID,
			Type:            brk.Type,
			StartTime:       brk.StartTime,
			EndTime:         brk.EndTime,
			DurationMinutes: brk.DurationMinutes,
			Notes:           brk.Notes,
		})
	}

	ts := toTimesheetShift(shift)
	if ts.Closed() {
		view.GrossMinutes = timesheet.GrossMinutes(ts)
		view.BreakMinutes = timesheet.BreakMinutes(ts)
		view.NetMinutes = timesheet.NetMinutes(ts)
		view.NetHours = timesheet.NetHours(ts)
		view.Overtime = timesheet.IsOvertime(ts)
		view.OvertimeHours = timesheet.OvertimeHours(ts)
		view.CalculatedPay = timesheet.CalculatedPay(ts)
	}

	return view
}
