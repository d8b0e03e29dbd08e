package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/timeclock/internal/logging"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = base
	}
	if logger == nil {
		logger = slog.Default()
	}

	pairs := []any{"service", serviceName}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if len(attrs) > 0 {
		pairs = append(pairs, attrs...)
	}
	return logger.With(pairs...)
}

// ErrorKind maps sentinel and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrAccountDisabled):
		return "account_disabled"
	case errors.Is(err, ErrSessionExpired):
		return "session_expired"
	case errors.Is(err, ErrSessionRevoked):
		return "session_revoked"
	case errors.Is(err, ErrShiftAlreadyOpen):
		return "shift_already_open"
	case errors.Is(err, ErrNoOpenShift):
		return "no_open_shift"
	case errors.Is(err, ErrBreakAlreadyOpen):
		return "break_already_open"
	case errors.Is(err, ErrNoOpenBreak):
		return "no_open_break"
	case errors.Is(err, ErrBreakStillOpen):
		return "break_still_open"
	case errors.Is(err, ErrShiftStillOpen):
		return "shift_still_open"
	case errors.Is(err, ErrShiftAlreadyDecided):
		return "shift_already_decided"
	case errors.Is(err, ErrSelfApproval):
		return "self_approval"
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}

	return "unexpected"
}
