package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/timeclock/internal/persistence"
)

// CredentialStore exposes employee credential lookup operations required by
// the auth service.
type CredentialStore interface {
	GetEmployeeByEmail(ctx context.Context, email string) (persistence.Employee, error)
	GetEmployee(ctx context.Context, id string) (persistence.Employee, error)
}

// SessionRepository captures the persistence interactions for issued sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error)
	GetSession(ctx context.Context, token string) (persistence.Session, error)
	UpdateSession(ctx context.Context, session persistence.Session) (persistence.Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier func(hashedPassword, password string) error

// AuthService coordinates login, session verification, and logout.
type AuthService struct {
	credentials    CredentialStore
	sessions       SessionRepository
	verifyPassword PasswordVerifier
	tokenGenerator func() string
	now            func() time.Time
	sessionTTL     time.Duration
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(credentials CredentialStore, sessions SessionRepository, verify PasswordVerifier, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration) *AuthService {
	return NewAuthServiceWithLogger(credentials, sessions, verify, tokenGenerator, now, sessionTTL, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(credentials CredentialStore, sessions SessionRepository, verify PasswordVerifier, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration, logger *slog.Logger) *AuthService {
	if verify == nil {
		verify = VerifyPassword
	}
	if tokenGenerator == nil {
		tokenGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &AuthService{
		credentials:    credentials,
		sessions:       sessions,
		verifyPassword: verify,
		tokenGenerator: tokenGenerator,
		now:            now,
		sessionTTL:     sessionTTL,
		logger:         defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Login validates credentials and issues a new session token.
func (s *AuthService) Login(ctx context.Context, params LoginParams) (result AuthResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.credentials == nil {
		err = fmt.Errorf("credential store not configured")
		return
	}

	email := strings.TrimSpace(strings.ToLower(params.Email))

	logger := s.loggerWith(ctx, "Login",
		"email", email,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "login failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("employee_id", result.Employee.ID).InfoContext(ctx, "login succeeded")
	}()

	if email == "" || params.Password == "" {
		err = ErrInvalidCredentials
		return
	}

	var employee persistence.Employee
	employee, err = s.credentials.GetEmployeeByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrInvalidCredentials
		}
		return
	}

	if employee.Disabled {
		err = ErrAccountDisabled
		return
	}

	if err = s.verifyPassword(employee.PasswordHash, params.Password); err != nil {
		err = ErrInvalidCredentials
		return
	}

	now := s.now().UTC()
	id := s.tokenGenerator()
	token := s.tokenGenerator()
	if token == "" {
		token = id
	}

	session := persistence.Session{
		ID:          id,
		EmployeeID:  employee.ID,
		Token:       token,
		Fingerprint: strings.TrimSpace(params.Fingerprint),
		ExpiresAt:   now.Add(s.sessionTTL),
	}

	if s.sessions != nil {
		if err = s.sessions.DeleteExpiredSessions(ctx, now); err != nil {
			return
		}

		session, err = s.sessions.CreateSession(ctx, session)
		if err != nil {
			return
		}
	}

	result = AuthResult{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		Employee:  newEmployeeViewForSummary(employee),
	}
	return
}

// VerifySession validates a session token and returns the principal it
// authenticates. A session past the midpoint of its validity window has its
// expiry extended.
func (s *AuthService) VerifySession(ctx context.Context, params VerifySessionParams) (principal Principal, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.sessions == nil {
		err = fmt.Errorf("session repository not configured")
		return
	}

	token := strings.TrimSpace(params.Token)
	if token == "" {
		err = ErrInvalidCredentials
		return
	}

	var session persistence.Session
	session, err = s.sessions.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrInvalidCredentials
		}
		return
	}

	now := s.now().UTC()
	if session.RevokedAt != nil {
		err = ErrSessionRevoked
		return
	}
	if !session.ExpiresAt.After(now) {
		err = ErrSessionExpired
		return
	}
	if session.Fingerprint != "" && params.Fingerprint != "" && session.Fingerprint != strings.TrimSpace(params.Fingerprint) {
		err = ErrInvalidCredentials
		return
	}

	var employee persistence.Employee
	employee, err = s.credentials.GetEmployee(ctx, session.EmployeeID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrInvalidCredentials
		}
		return
	}
	if employee.Disabled {
		err = ErrAccountDisabled
		return
	}

	if session.ExpiresAt.Sub(now) < s.sessionTTL/2 {
		session.ExpiresAt = now.Add(s.sessionTTL)
		if _, updateErr := s.sessions.UpdateSession(ctx, session); updateErr != nil {
			s.loggerWith(ctx, "VerifySession").WarnContext(ctx, "failed to extend session", "error", updateErr)
		}
	}

	principal = Principal{
		EmployeeID: employee.ID,
		Role:       employee.Role,
		Department: employee.Department,
	}
	return
}

// RefreshSession rotates a valid session token. The presented session is
// revoked and a new one with a full validity window is issued in its place.
func (s *AuthService) RefreshSession(ctx context.Context, params RefreshSessionParams) (result AuthResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.sessions == nil {
		err = fmt.Errorf("session repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "RefreshSession")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "session refresh failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("employee_id", result.Employee.ID).InfoContext(ctx, "session refreshed")
	}()

	token := strings.TrimSpace(params.Token)
	if token == "" {
		err = ErrInvalidCredentials
		return
	}

	var session persistence.Session
	session, err = s.sessions.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrInvalidCredentials
		}
		return
	}

	now := s.now().UTC()
	if session.RevokedAt != nil {
		err = ErrSessionRevoked
		return
	}
	if !session.ExpiresAt.After(now) {
		err = ErrSessionExpired
		return
	}
	if session.Fingerprint != "" && params.Fingerprint != "" && session.Fingerprint != strings.TrimSpace(params.Fingerprint) {
		err = ErrInvalidCredentials
		return
	}

	var employee persistence.Employee
	employee, err = s.credentials.GetEmployee(ctx, session.EmployeeID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrInvalidCredentials
		}
		return
	}
	if employee.Disabled {
		err = ErrAccountDisabled
		return
	}

	if _, err = s.sessions.RevokeSession(ctx, token, now); err != nil {
		return
	}

	replacement := persistence.Session{
		ID:          s.tokenGenerator(),
		EmployeeID:  employee.ID,
		Token:       s.tokenGenerator(),
		Fingerprint: session.Fingerprint,
		ExpiresAt:   now.Add(s.sessionTTL),
	}
	if replacement.Token == "" {
		replacement.Token = replacement.ID
	}

	replacement, err = s.sessions.CreateSession(ctx, replacement)
	if err != nil {
		return
	}

	result = AuthResult{
		Token:     replacement.Token,
		ExpiresAt: replacement.ExpiresAt,
		Employee:  newEmployeeViewForSummary(employee),
	}
	return
}

// Logout revokes the session identified by the token.
func (s *AuthService) Logout(ctx context.Context, params LogoutParams) (err error) {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if s.sessions == nil {
		return fmt.Errorf("session repository not configured")
	}

	logger := s.loggerWith(ctx, "Logout")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "logout failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "logout succeeded")
	}()

	token := strings.TrimSpace(params.Token)
	if token == "" {
		return ErrInvalidCredentials
	}

	_, err = s.sessions.RevokeSession(ctx, token, s.now().UTC())
	if errors.Is(err, persistence.ErrNotFound) {
		// Revoking an unknown or already revoked token is not an error for the caller
		err = nil
	}
	return
}
