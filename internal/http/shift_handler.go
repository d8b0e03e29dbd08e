package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/timeclock/internal/application"
)

type shiftService interface {
	ClockIn(ctx context.Context, params application.ClockInParams) (application.ShiftView, error)
	ClockOut(ctx context.Context, params application.ClockOutParams) (application.ShiftView, error)
	StartBreak(ctx context.Context, params application.StartBreakParams) (application.ShiftView, error)
	EndBreak(ctx context.Context, params application.EndBreakParams) (application.ShiftView, error)
	CurrentShift(ctx context.Context, principal application.Principal) (application.ShiftView, error)
	GetShift(ctx context.Context, params application.GetShiftParams) (application.ShiftView, error)
	ListShifts(ctx context.Context, params application.ListShiftsParams) ([]application.ShiftView, error)
	PendingShifts(ctx context.Context, params application.PendingShiftsParams) ([]application.ShiftView, error)
	DecideShift(ctx context.Context, params application.DecideShiftParams) (application.ShiftView, error)
}

type ShiftHandler struct {
	service   shiftService
	responder responder
	logger    *slog.Logger
}

func NewShiftHandler(service shiftService, logger *slog.Logger) *ShiftHandler {
	base := defaultLogger(logger)
	return &ShiftHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ShiftHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ShiftHandler", operation, attrs...)
}

func (h *ShiftHandler) ClockIn(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req clockInRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		h.log(r.Context(), "ClockIn", "principal_id", principal.EmployeeID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode clock-in request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "ClockIn", "principal_id", principal.EmployeeID)

	view, err := h.service.ClockIn(r.Context(), application.ClockInParams{
		Principal: principal,
		Input: application.ClockInInput{
			ProjectID:         req.ProjectID,
			PayMultiplier:     req.PayMultiplier,
			Notes:             req.Notes,
			StartLocation:     req.Location,
			Device:            req.Device,
			IPAddress:         clientAddress(r),
			VerificationImage: req.VerificationImage,
		},
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "clock-in failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("shift_id", view.ID).InfoContext(r.Context(), "shift opened")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, shiftResponse{Shift: toShiftDTO(view)})
}

func (h *ShiftHandler) ClockOut(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req clockOutRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		h.log(r.Context(), "ClockOut", "principal_id", principal.EmployeeID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode clock-out request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "ClockOut", "principal_id", principal.EmployeeID)

	view, err := h.service.ClockOut(r.Context(), application.ClockOutParams{
		Principal: principal,
		Input: application.ClockOutInput{
			Notes:             req.Notes,
			EndLocation:       req.Location,
			Device:            req.Device,
			IPAddress:         clientAddress(r),
			VerificationImage: req.VerificationImage,
		},
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "clock-out failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("shift_id", view.ID).InfoContext(r.Context(), "shift closed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, shiftResponse{Shift: toShiftDTO(view)})
}

func (h *ShiftHandler) StartBreak(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req breakRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		h.log(r.Context(), "StartBreak", "principal_id", principal.EmployeeID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode break request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "StartBreak", "principal_id", principal.EmployeeID)

	view, err := h.service.StartBreak(r.Context(), application.StartBreakParams{
		Principal: principal,
		Input: application.BreakInput{
			Type:  req.Type,
			Notes: req.Notes,
		},
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "break start failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("shift_id", view.ID).InfoContext(r.Context(), "break started")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, shiftResponse{Shift: toShiftDTO(view)})
}

func (h *ShiftHandler) EndBreak(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "EndBreak", "principal_id", principal.EmployeeID)

	view, err := h.service.EndBreak(r.Context(), application.EndBreakParams{Principal: principal})
	if err != nil {
		logger.ErrorContext(r.Context(), "break end failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("shift_id", view.ID).InfoContext(r.Context(), "break ended")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, shiftResponse{Shift: toShiftDTO(view)})
}

func (h *ShiftHandler) Current(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	view, err := h.service.CurrentShift(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "Current", "principal_id", principal.EmployeeID).ErrorContext(r.Context(), "current shift lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, shiftResponse{Shift: toShiftDTO(view)})
}

func (h *ShiftHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "principal_id", principal.EmployeeID)

	views, err := h.service.ListShifts(r.Context(), buildListShiftsParams(r.URL.Query(), principal))
	if err != nil {
		logger.ErrorContext(r.Context(), "shift listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, shiftsResponse{Shifts: toShiftDTOs(views)})
}

func (h *ShiftHandler) Pending(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Pending", "principal_id", principal.EmployeeID)

	views, err := h.service.PendingShifts(r.Context(), application.PendingShiftsParams{Principal: principal})
	if err != nil {
		logger.ErrorContext(r.Context(), "pending shift listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, shiftsResponse{Shifts: toShiftDTOs(views)})
}

func (h *ShiftHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	shiftID, ok := ShiftIDFromContext(r.Context())
	if !ok || strings.TrimSpace(shiftID) == "" {
		h.log(r.Context(), "Get", "error_kind", "bad_request").ErrorContext(r.Context(), "missing shift id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidShiftID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	view, err := h.service.GetShift(r.Context(), application.GetShiftParams{
		Principal: principal,
		ShiftID:   shiftID,
	})
	if err != nil {
		h.log(r.Context(), "Get", "principal_id", principal.EmployeeID, "shift_id", shiftID).ErrorContext(r.Context(), "shift lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, shiftResponse{Shift: toShiftDTO(view)})
}

func (h *ShiftHandler) Decide(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	shiftID, ok := ShiftIDFromContext(r.Context())
	if !ok || strings.TrimSpace(shiftID) == "" {
		h.log(r.Context(), "Decide", "error_kind", "bad_request").ErrorContext(r.Context(), "missing shift id for decision")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidShiftID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Decide", "principal_id", principal.EmployeeID, "shift_id", shiftID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode decision request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Decide", "principal_id", principal.EmployeeID, "shift_id", shiftID, "approve", req.Approve)

	view, err := h.service.DecideShift(r.Context(), application.DecideShiftParams{
		Principal:       principal,
		ShiftID:         shiftID,
		Approve:         req.Approve,
		RejectionReason: req.RejectionReason,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "shift decision failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "shift decided")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, shiftResponse{Shift: toShiftDTO(view)})
}

type clockInRequest struct {
	ProjectID         *string `json:"project_id"`
	PayMultiplier     float64 `json:"pay_multiplier"`
	Notes             *string `json:"notes"`
	Location          *string `json:"location"`
	Device            *string `json:"device"`
	VerificationImage *string `json:"verification_image"`
}

type clockOutRequest struct {
	Notes             *string `json:"notes"`
	Location          *string `json:"location"`
	Device            *string `json:"device"`
	VerificationImage *string `json:"verification_image"`
}

type breakRequest struct {
	Type  string  `json:"type"`
	Notes *string `json:"notes"`
}

type decisionRequest struct {
	Approve         bool    `json:"approve"`
	RejectionReason *string `json:"rejection_reason"`
}

type shiftResponse struct {
	Shift shiftDTO `json:"shift"`
}

type shiftsResponse struct {
	Shifts []shiftDTO `json:"shifts"`
}

type shiftDTO struct {
	ID                string     `json:"id"`
	EmployeeID        string     `json:"employee_id"`
	StartTime         string     `json:"start_time"`
	EndTime           *string    `json:"end_time,omitempty"`
	Status            string     `json:"status"`
	ProjectID         *string    `json:"project_id,omitempty"`
	Breaks            []breakDTO `json:"breaks"`
	GrossMinutes      int64      `json:"gross_minutes"`
	BreakMinutes      int64      `json:"break_minutes"`
	NetMinutes        int64      `json:"net_minutes"`
	NetHours          float64    `json:"net_hours"`
	Overtime          bool       `json:"overtime"`
	OvertimeHours     float64    `json:"overtime_hours"`
	HourlyRate        *float64   `json:"hourly_rate,omitempty"`
	PayMultiplier     float64    `json:"pay_multiplier"`
	CalculatedPay     *float64   `json:"calculated_pay,omitempty"`
	Notes             *string    `json:"notes,omitempty"`
	StartLocation     *string    `json:"start_location,omitempty"`
	EndLocation       *string    `json:"end_location,omitempty"`
	VerificationImage *string    `json:"verification_image,omitempty"`
	ApprovedBy        *string    `json:"approved_by,omitempty"`
	ApprovalDate      *string    `json:"approval_date,omitempty"`
	RejectionReason   *string    `json:"rejection_reason,omitempty"`
	CreatedAt         string     `json:"created_at"`
	UpdatedAt         string     `json:"updated_at"`
}

type breakDTO struct {
	ID              string  `json:"id"`
	Type            string  `json:"type"`
	StartTime       string  `json:"start_time"`
	EndTime         *string `json:"end_time,omitempty"`
	DurationMinutes *int64  `json:"duration_minutes,omitempty"`
	Notes           *string `json:"notes,omitempty"`
}

func toShiftDTO(view application.ShiftView) shiftDTO {
	breaks := make([]breakDTO, 0, len(view.Breaks))
	for _, b := range view.Breaks {
		breaks = append(breaks, breakDTO{
			ID:              b.ID,
			Type:            b.Type,
			StartTime:       formatTime(b.StartTime),
			EndTime:         formatTimePtr(b.EndTime),
			DurationMinutes: b.DurationMinutes,
			Notes:           b.Notes,
		})
	}

	return shiftDTO{
		ID:                view.ID,
		EmployeeID:        view.EmployeeID,
		StartTime:         formatTime(view.StartTime),
		EndTime:           formatTimePtr(view.EndTime),
		Status:            view.Status,
		ProjectID:         view.ProjectID,
		Breaks:            breaks,
		GrossMinutes:      view.GrossMinutes,
		BreakMinutes:      view.BreakMinutes,
		NetMinutes:        view.NetMinutes,
		NetHours:          view.NetHours,
		Overtime:          view.Overtime,
		OvertimeHours:     view.OvertimeHours,
		HourlyRate:        view.HourlyRate,
		PayMultiplier:     view.PayMultiplier,
		CalculatedPay:     view.CalculatedPay,
		Notes:             view.Notes,
		StartLocation:     view.StartLocation,
		EndLocation:       view.EndLocation,
		VerificationImage: view.VerificationImage,
		ApprovedBy:        view.ApprovedBy,
		ApprovalDate:      formatTimePtr(view.ApprovalDate),
		RejectionReason:   view.RejectionReason,
		CreatedAt:         formatTime(view.CreatedAt),
		UpdatedAt:         formatTime(view.UpdatedAt),
	}
}

func toShiftDTOs(views []application.ShiftView) []shiftDTO {
	out := make([]shiftDTO, 0, len(views))
	for _, view := range views {
		out = append(out, toShiftDTO(view))
	}
	return out
}

func buildListShiftsParams(values url.Values, principal application.Principal) application.ListShiftsParams {
	params := application.ListShiftsParams{Principal: principal}

	if employeeID := strings.TrimSpace(values.Get("employee_id")); employeeID != "" {
		params.EmployeeID = &employeeID
	}
	if projectID := strings.TrimSpace(values.Get("project_id")); projectID != "" {
		params.ProjectID = &projectID
	}
	if status := strings.TrimSpace(values.Get("status")); status != "" {
		params.Status = &status
	}
	if from, ok := parseQueryTime(values.Get("from")); ok {
		params.From = &from
	}
	if to, ok := parseQueryTime(values.Get("to")); ok {
		params.To = &to
	}

	return params
}

func parseQueryTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts, true
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts, true
	}
	if ts, err := time.Parse("2006-01-02", value); err == nil {
		return ts, true
	}
	return time.Time{}, false
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := formatTime(*t)
	return &formatted
}

// decodeOptionalBody tolerates an empty request body, leaving dst at its
// zero value.
func decodeOptionalBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || err == io.EOF {
		return nil
	}
	return err
}

func clientAddress(r *http.Request) *string {
	if r == nil {
		return nil
	}
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		if idx := strings.Index(forwarded, ","); idx >= 0 {
			forwarded = strings.TrimSpace(forwarded[:idx])
		}
		return &forwarded
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || host == "" {
		return nil
	}
	return &host
}
