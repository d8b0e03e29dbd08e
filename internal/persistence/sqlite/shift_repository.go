package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/timeclock/internal/persistence"
)

// ShiftRepository implements persistence.ShiftRepository using SQLite.
// Lifecycle mutations are guarded statements whose WHERE clause re-checks
// the invariant, so a write that lost a race affects zero rows instead of
// corrupting state.
type ShiftRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewShiftRepository creates a new SQLite shift repository
func NewShiftRepository(pool *ConnectionPool) *ShiftRepository {
	return &ShiftRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const shiftColumns = `id, employee_id, start_time, end_time, status, project_id, overtime, hourly_rate, pay_multiplier, notes, start_location, end_location, device, ip_address, verification_image, approved_by, approval_date, rejection_reason, created_at, updated_at`

// CreateShiftIfNoneOpen inserts a new open shift unless the employee already
// has one open, in which case no row is written and ErrConflict is returned.
func (r *ShiftRepository) CreateShiftIfNoneOpen(ctx context.Context, shift persistence.Shift) error {
	if shift.ID == "" || shift.EmployeeID == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	shift.CreatedAt = now
	shift.UpdatedAt = now

	query := `
		INSERT INTO shifts (` + shiftColumns + `)
		SELECT ?, ?, ?, NULL, ?, ?, ?, ?, ?, ?, ?, NULL, ?, ?, ?, NULL, NULL, NULL, ?, ?
		WHERE NOT EXISTS (
			SELECT 1 FROM shifts WHERE employee_id = ? AND end_time IS NULL
		)
	`

	result, err := r.helper.Exec(ctx, query,
		shift.ID,
		shift.EmployeeID,
		encodeTime(shift.StartTime),
		shift.Status,
		nullString(shift.ProjectID),
		shift.Overtime,
		nullFloat(shift.HourlyRate),
		shift.PayMultiplier,
		nullString(shift.Notes),
		nullString(shift.StartLocation),
		nullString(shift.Device),
		nullString(shift.IPAddress),
		nullString(shift.VerificationImage),
		encodeTime(shift.CreatedAt),
		encodeTime(shift.UpdatedAt),
		shift.EmployeeID,
	)

	if err != nil {
		return r.mapShiftError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return persistence.ErrConflict
	}

	return nil
}

// GetOpenShift returns the employee's open shift with its breaks
func (r *ShiftRepository) GetOpenShift(ctx context.Context, employeeID string) (persistence.Shift, error) {
	if employeeID == "" {
		return persistence.Shift{}, persistence.ErrNotFound
	}

	query := `SELECT ` + shiftColumns + ` FROM shifts WHERE employee_id = ? AND end_time IS NULL`

	shift, err := scanShift(r.helper.QueryRow(ctx, query, employeeID))
	if err != nil {
		return persistence.Shift{}, err
	}

	if err := r.loadBreaks(ctx, &shift); err != nil {
		return persistence.Shift{}, err
	}

	return shift, nil
}

// CloseShift sets the end instant and clock-out metadata of the employee's
// open shift. The update only matches while the shift is open and has no
// open break.
func (r *ShiftRepository) CloseShift(ctx context.Context, close persistence.ShiftClose) (persistence.Shift, error) {
	if close.EmployeeID == "" {
		return persistence.Shift{}, persistence.ErrNotFound
	}

	var shiftID string

	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		err := r.helper.QueryRowTx(tx,
			"SELECT id FROM shifts WHERE employee_id = ? AND end_time IS NULL",
			close.EmployeeID,
		).Scan(&shiftID)
		if err != nil {
			if err == sql.ErrNoRows {
				return persistence.ErrNotFound
			}
			return r.mapper.MapError(err)
		}

		query := `
			UPDATE shifts
			SET end_time = ?, overtime = ?,
				notes = COALESCE(?, notes),
				end_location = ?, device = COALESCE(?, device), ip_address = COALESCE(?, ip_address),
				verification_image = COALESCE(?, verification_image),
				updated_at = ?
			WHERE id = ? AND end_time IS NULL
				AND NOT EXISTS (
					SELECT 1 FROM shift_breaks WHERE shift_id = shifts.id AND end_time IS NULL
				)
		`

		result, err := r.helper.ExecTx(tx, query,
			encodeTime(close.EndTime),
			close.Overtime,
			nullString(close.Notes),
			nullString(close.EndLocation),
			nullString(close.Device),
			nullString(close.IPAddress),
			nullString(close.VerificationImage),
			encodeTime(time.Now().UTC()),
			shiftID,
		)
		if err != nil {
			return r.mapShiftError(err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}

		// The shift exists and is open, so zero rows means an open break
		if rowsAffected == 0 {
			return persistence.ErrConflict
		}

		return nil
	})
	if err != nil {
		return persistence.Shift{}, err
	}

	return r.GetShift(ctx, shiftID)
}

// StartBreak appends an open break to the employee's open shift
func (r *ShiftRepository) StartBreak(ctx context.Context, employeeID string, brk persistence.Break) (persistence.Shift, error) {
	if employeeID == "" {
		return persistence.Shift{}, persistence.ErrNotFound
	}

	var shiftID string

	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		err := r.helper.QueryRowTx(tx,
			"SELECT id FROM shifts WHERE employee_id = ? AND end_time IS NULL",
			employeeID,
		).Scan(&shiftID)
		if err != nil {
			if err == sql.ErrNoRows {
				return persistence.ErrNotFound
			}
			return r.mapper.MapError(err)
		}

		var position int
		err = r.helper.QueryRowTx(tx,
			"SELECT COUNT(*) FROM shift_breaks WHERE shift_id = ?", shiftID,
		).Scan(&position)
		if err != nil {
			return r.mapper.MapError(err)
		}

		query := `
			INSERT INTO shift_breaks (id, shift_id, position, start_time, end_time, duration_minutes, type, notes)
			SELECT ?, ?, ?, ?, NULL, NULL, ?, ?
			WHERE NOT EXISTS (
				SELECT 1 FROM shift_breaks WHERE shift_id = ? AND end_time IS NULL
			)
		`

		result, err := r.helper.ExecTx(tx, query,
			brk.ID,
			shiftID,
			position,
			encodeTime(brk.StartTime),
			brk.Type,
			nullString(brk.Notes),
			shiftID,
		)
		if err != nil {
			return r.mapShiftError(err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}

		if rowsAffected == 0 {
			return persistence.ErrConflict
		}

		_, err = r.helper.ExecTx(tx,
			"UPDATE shifts SET updated_at = ? WHERE id = ?",
			encodeTime(time.Now().UTC()), shiftID,
		)
		if err != nil {
			return r.mapper.MapError(err)
		}

		return nil
	})
	if err != nil {
		return persistence.Shift{}, err
	}

	return r.GetShift(ctx, shiftID)
}

// EndBreak closes the open break of the employee's open shift, recording its
// floored duration in minutes
func (r *ShiftRepository) EndBreak(ctx context.Context, employeeID string, endTime time.Time) (persistence.Shift, error) {
	if employeeID == "" {
		return persistence.Shift{}, persistence.ErrNotFound
	}

	var shiftID string

	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		err := r.helper.QueryRowTx(tx,
			"SELECT id FROM shifts WHERE employee_id = ? AND end_time IS NULL",
			employeeID,
		).Scan(&shiftID)
		if err != nil {
			if err == sql.ErrNoRows {
				return persistence.ErrNotFound
			}
			return r.mapper.MapError(err)
		}

		var breakID, startStr string
		err = r.helper.QueryRowTx(tx,
			"SELECT id, start_time FROM shift_breaks WHERE shift_id = ? AND end_time IS NULL ORDER BY position ASC LIMIT 1",
			shiftID,
		).Scan(&breakID, &startStr)
		if err != nil {
			if err == sql.ErrNoRows {
				return persistence.ErrNotFound
			}
			return r.mapper.MapError(err)
		}

		startTime, err := decodeTime(startStr)
		if err != nil {
			return err
		}

		duration := int64(endTime.Sub(startTime) / time.Minute)
		if duration < 0 {
			duration = 0
		}

		result, err := r.helper.ExecTx(tx,
			"UPDATE shift_breaks SET end_time = ?, duration_minutes = ? WHERE id = ? AND end_time IS NULL",
			encodeTime(endTime), duration, breakID,
		)
		if err != nil {
			return r.mapShiftError(err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}

		if rowsAffected == 0 {
			return persistence.ErrNotFound
		}

		_, err = r.helper.ExecTx(tx,
			"UPDATE shifts SET updated_at = ? WHERE id = ?",
			encodeTime(time.Now().UTC()), shiftID,
		)
		if err != nil {
			return r.mapper.MapError(err)
		}

		return nil
	})
	if err != nil {
		return persistence.Shift{}, err
	}

	return r.GetShift(ctx, shiftID)
}

// DecideShift transitions a closed pending shift to approved or rejected
func (r *ShiftRepository) DecideShift(ctx context.Context, decision persistence.ShiftDecision) (persistence.Shift, error) {
	if decision.ShiftID == "" {
		return persistence.Shift{}, persistence.ErrNotFound
	}

	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE shifts
			SET status = ?, approved_by = ?, approval_date = ?, rejection_reason = ?, updated_at = ?
			WHERE id = ? AND end_time IS NOT NULL AND status = 'pending'
		`

		result, err := r.helper.ExecTx(tx, query,
			decision.Status,
			decision.ApprovedBy,
			encodeTime(decision.ApprovalDate),
			nullString(decision.RejectionReason),
			encodeTime(time.Now().UTC()),
			decision.ShiftID,
		)
		if err != nil {
			return r.mapShiftError(err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}

		if rowsAffected == 0 {
			var exists int
			err := r.helper.QueryRowTx(tx,
				"SELECT COUNT(*) FROM shifts WHERE id = ?", decision.ShiftID,
			).Scan(&exists)
			if err != nil {
				return r.mapper.MapError(err)
			}
			if exists == 0 {
				return persistence.ErrNotFound
			}
			// The shift exists but is open or already decided
			return persistence.ErrPreconditionFailed
		}

		return nil
	})
	if err != nil {
		return persistence.Shift{}, err
	}

	return r.GetShift(ctx, decision.ShiftID)
}

// GetShift retrieves a shift by ID with its breaks
func (r *ShiftRepository) GetShift(ctx context.Context, id string) (persistence.Shift, error) {
	if id == "" {
		return persistence.Shift{}, persistence.ErrNotFound
	}

	query := `SELECT ` + shiftColumns + ` FROM shifts WHERE id = ?`

	shift, err := scanShift(r.helper.QueryRow(ctx, query, id))
	if err != nil {
		return persistence.Shift{}, err
	}

	if err := r.loadBreaks(ctx, &shift); err != nil {
		return persistence.Shift{}, err
	}

	return shift, nil
}

// ListShifts returns shifts matching the filter ordered by start time then ID
func (r *ShiftRepository) ListShifts(ctx context.Context, filter persistence.ShiftFilter) ([]persistence.Shift, error) {
	var conditions []string
	var args []any

	if len(filter.EmployeeIDs) > 0 {
		placeholders := make([]string, len(filter.EmployeeIDs))
		for i, id := range filter.EmployeeIDs {
			placeholders[i] = "?"
			args = append(args, id)
		}
		conditions = append(conditions, "employee_id IN ("+strings.Join(placeholders, ", ")+")")
	}
	if filter.ProjectID != nil {
		conditions = append(conditions, "project_id = ?")
		args = append(args, *filter.ProjectID)
	}
	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *filter.Status)
	}
	if filter.OnlyClosed {
		conditions = append(conditions, "end_time IS NOT NULL")
	}
	if filter.StartsOnOrAfter != nil {
		conditions = append(conditions, "start_time >= ?")
		args = append(args, encodeTime(*filter.StartsOnOrAfter))
	}
	if filter.StartsOnOrBefore != nil {
		conditions = append(conditions, "start_time <= ?")
		args = append(args, encodeTime(*filter.StartsOnOrBefore))
	}

	query := `SELECT ` + shiftColumns + ` FROM shifts`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_time ASC, id ASC"

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var shifts []persistence.Shift

	for rows.Next() {
		shift, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, shift)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	for i := range shifts {
		if err := r.loadBreaks(ctx, &shifts[i]); err != nil {
			return nil, err
		}
	}

	return shifts, nil
}

// HasOpenShift reports whether the employee currently has an open shift
func (r *ShiftRepository) HasOpenShift(ctx context.Context, employeeID string) (bool, error) {
	var count int
	err := r.helper.QueryRow(ctx,
		"SELECT COUNT(*) FROM shifts WHERE employee_id = ? AND end_time IS NULL",
		employeeID,
	).Scan(&count)
	if err != nil {
		return false, r.mapper.MapError(err)
	}
	return count > 0, nil
}

// DeleteShift removes a shift and its breaks by ID
func (r *ShiftRepository) DeleteShift(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx, "DELETE FROM shifts WHERE id = ?", id)
	if err != nil {
		return r.mapShiftError(err)
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

// loadBreaks attaches the shift's break intervals in position order
func (r *ShiftRepository) loadBreaks(ctx context.Context, shift *persistence.Shift) error {
	query := `
		SELECT id, shift_id, position, start_time, end_time, duration_minutes, type, notes
		FROM shift_breaks
		WHERE shift_id = ?
		ORDER BY position ASC
	`

	rows, err := r.helper.Query(ctx, query, shift.ID)
	if err != nil {
		return r.mapper.MapError(err)
	}
	defer rows.Close()

	shift.Breaks = nil

	for rows.Next() {
		var brk persistence.Break
		var startStr string
		var endStr, notes sql.NullString
		var duration sql.NullInt64

		err := rows.Scan(
			&brk.ID,
			&brk.ShiftID,
			&brk.Position,
			&startStr,
			&endStr,
			&duration,
			&brk.Type,
			&notes,
		)
		if err != nil {
			return r.mapper.MapError(err)
		}

		if brk.StartTime, err = decodeTime(startStr); err != nil {
			return fmt.Errorf("failed to parse break start_time: %w", err)
		}
		if brk.EndTime, err = decodeTimePtr(endStr); err != nil {
			return fmt.Errorf("failed to parse break end_time: %w", err)
		}
		brk.DurationMinutes = intPtr(duration)
		brk.Notes = stringPtr(notes)

		shift.Breaks = append(shift.Breaks, brk)
	}

	return rows.Err()
}

func scanShift(s scanner) (persistence.Shift, error) {
	var shift persistence.Shift
	var startStr, createdAtStr, updatedAtStr string
	var endStr, projectID, notes, startLoc, endLoc, device, ip, image, approvedBy, approvalStr, rejection sql.NullString
	var hourlyRate sql.NullFloat64

	err := s.Scan(
		&shift.ID,
		&shift.EmployeeID,
		&startStr,
		&endStr,
		&shift.Status,
		&projectID,
		&shift.Overtime,
		&hourlyRate,
		&shift.PayMultiplier,
		&notes,
		&startLoc,
		&endLoc,
		&device,
		&ip,
		&image,
		&approvedBy,
		&approvalStr,
		&rejection,
		&createdAtStr,
		&updatedAtStr,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Shift{}, persistence.ErrNotFound
		}
		return persistence.Shift{}, NewErrorMapper().MapError(err)
	}

	if shift.StartTime, err = decodeTime(startStr); err != nil {
		return persistence.Shift{}, fmt.Errorf("failed to parse start_time: %w", err)
	}
	if shift.EndTime, err = decodeTimePtr(endStr); err != nil {
		return persistence.Shift{}, fmt.Errorf("failed to parse end_time: %w", err)
	}
	if shift.ApprovalDate, err = decodeTimePtr(approvalStr); err != nil {
		return persistence.Shift{}, fmt.Errorf("failed to parse approval_date: %w", err)
	}
	if shift.CreatedAt, err = decodeTime(createdAtStr); err != nil {
		return persistence.Shift{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if shift.UpdatedAt, err = decodeTime(updatedAtStr); err != nil {
		return persistence.Shift{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	shift.ProjectID = stringPtr(projectID)
	shift.HourlyRate = floatPtr(hourlyRate)
	shift.Notes = stringPtr(notes)
	shift.StartLocation = stringPtr(startLoc)
	shift.EndLocation = stringPtr(endLoc)
	shift.Device = stringPtr(device)
	shift.IPAddress = stringPtr(ip)
	shift.VerificationImage = stringPtr(image)
	shift.ApprovedBy = stringPtr(approvedBy)
	shift.RejectionReason = stringPtr(rejection)

	return shift, nil
}

// mapShiftError maps SQLite errors to appropriate persistence errors for shift operations
func (r *ShiftRepository) mapShiftError(err error) error {
	if err == nil {
		return nil
	}

	errStr := err.Error()

	if containsAny(errStr, []string{"UNIQUE constraint failed"}) {
		if containsAny(errStr, []string{"idx_shifts_open_per_employee"}) {
			return persistence.ErrConflict
		}
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
