package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/timeclock/internal/application"
	"github.com/example/timeclock/internal/logging"
)

var (
	errBadRequestBody      = errors.New("request body is not valid JSON")
	errInvalidShiftID      = errors.New("shift id is required")
	errInvalidEmployeeID   = errors.New("employee id is required")
	errInvalidProjectID    = errors.New("project id is required")
	errInvalidDepartment   = errors.New("department name is required")
	errMissingSessionToken = errors.New("a session token is required")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := http.StatusText(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// handleServiceError translates application sentinels into HTTP status codes
// with stable machine readable error codes.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrInvalidCredentials):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_INVALID_CREDENTIALS",
			Message:   "email or password is incorrect",
		})
	case errors.Is(err, application.ErrSessionExpired):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_SESSION_EXPIRED",
			Message:   "the session has expired, log in again",
		})
	case errors.Is(err, application.ErrSessionRevoked):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_SESSION_REVOKED",
			Message:   "the session has been revoked, log in again",
		})
	case errors.Is(err, application.ErrAccountDisabled):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "ACCOUNT_DISABLED",
			Message:   "the account is disabled",
		})
	case errors.Is(err, application.ErrSelfApproval):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "SELF_APPROVAL_FORBIDDEN",
			Message:   "a shift cannot be approved by its owner",
		})
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   "you do not have permission to perform this operation",
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{
			ErrorCode: "NOT_FOUND",
			Message:   "the requested resource was not found",
		})
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "ALREADY_EXISTS",
			Message:   "a resource with the same identity already exists",
		})
	case errors.Is(err, application.ErrShiftAlreadyOpen):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "SHIFT_ALREADY_OPEN",
			Message:   "an open shift already exists, clock out first",
		})
	case errors.Is(err, application.ErrNoOpenShift):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{
			ErrorCode: "NO_OPEN_SHIFT",
			Message:   "no open shift exists, clock in first",
		})
	case errors.Is(err, application.ErrBreakAlreadyOpen):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "BREAK_ALREADY_OPEN",
			Message:   "an open break already exists, end it first",
		})
	case errors.Is(err, application.ErrNoOpenBreak):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{
			ErrorCode: "NO_OPEN_BREAK",
			Message:   "no open break exists on the current shift",
		})
	case errors.Is(err, application.ErrBreakStillOpen):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "BREAK_STILL_OPEN",
			Message:   "a break is still open, end it before clocking out",
		})
	case errors.Is(err, application.ErrShiftStillOpen):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "SHIFT_STILL_OPEN",
			Message:   "the shift is still open and cannot be decided",
		})
	case errors.Is(err, application.ErrShiftAlreadyDecided):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "SHIFT_ALREADY_DECIDED",
			Message:   "the shift has already been approved or rejected",
		})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				ErrorCode: "VALIDATION_FAILED",
				Message:   "the request contains invalid fields",
				Errors:    vErr.FieldErrors,
			})
			return
		}

		r.loggerFor(ctx).ErrorContext(ctx, "unhandled service error", "error", err)
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{
			ErrorCode: "INTERNAL",
			Message:   "an internal error occurred",
		})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := logging.FromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
