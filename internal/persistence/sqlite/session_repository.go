package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/timeclock/internal/persistence"
)

// SessionRepository implements persistence.SessionRepository using SQLite
type SessionRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewSessionRepository creates a new SQLite session repository
func NewSessionRepository(pool *ConnectionPool) *SessionRepository {
	return &SessionRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const sessionColumns = `id, employee_id, token, fingerprint, expires_at, created_at, updated_at, revoked_at`

// CreateSession inserts a new session into the database
func (r *SessionRepository) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	if session.ID == "" || session.Token == "" {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now

	query := `
		INSERT INTO sessions (` + sessionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		session.ID,
		session.EmployeeID,
		session.Token,
		session.Fingerprint,
		encodeTime(session.ExpiresAt),
		encodeTime(session.CreatedAt),
		encodeTime(session.UpdatedAt),
		encodeTimePtr(session.RevokedAt),
	)

	if err != nil {
		return persistence.Session{}, r.mapper.MapError(err)
	}

	return session, nil
}

// GetSession retrieves a session by token from the database
func (r *SessionRepository) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	if token == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}

	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE token = ?`

	return scanSession(r.helper.QueryRow(ctx, query, token))
}

// UpdateSession updates a session's expiry and fingerprint
func (r *SessionRepository) UpdateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	if session.ID == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}

	session.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE sessions
		SET fingerprint = ?, expires_at = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.helper.Exec(ctx, query,
		session.Fingerprint,
		encodeTime(session.ExpiresAt),
		encodeTime(session.UpdatedAt),
		session.ID,
	)

	if err != nil {
		return persistence.Session{}, r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return persistence.Session{}, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return persistence.Session{}, persistence.ErrNotFound
	}

	return session, nil
}

// RevokeSession marks a session as revoked by token
func (r *SessionRepository) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	if token == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}

	query := `
		UPDATE sessions
		SET revoked_at = ?, updated_at = ?
		WHERE token = ? AND revoked_at IS NULL
	`

	result, err := r.helper.Exec(ctx, query,
		encodeTime(revokedAt),
		encodeTime(time.Now().UTC()),
		token,
	)

	if err != nil {
		return persistence.Session{}, r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return persistence.Session{}, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return persistence.Session{}, persistence.ErrNotFound
	}

	return r.GetSession(ctx, token)
}

// DeleteExpiredSessions removes sessions whose expiry is at or before the
// reference instant
func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	_, err := r.helper.Exec(ctx,
		"DELETE FROM sessions WHERE expires_at <= ?",
		encodeTime(reference),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

func scanSession(s scanner) (persistence.Session, error) {
	var session persistence.Session
	var expiresStr, createdAtStr, updatedAtStr string
	var revokedStr sql.NullString

	err := s.Scan(
		&session.ID,
		&session.EmployeeID,
		&session.Token,
		&session.Fingerprint,
		&expiresStr,
		&createdAtStr,
		&updatedAtStr,
		&revokedStr,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Session{}, persistence.ErrNotFound
		}
		return persistence.Session{}, NewErrorMapper().MapError(err)
	}

	if session.ExpiresAt, err = decodeTime(expiresStr); err != nil {
		return persistence.Session{}, fmt.Errorf("failed to parse expires_at: %w", err)
	}
	if session.CreatedAt, err = decodeTime(createdAtStr); err != nil {
		return persistence.Session{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if session.UpdatedAt, err = decodeTime(updatedAtStr); err != nil {
		return persistence.Session{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	if session.RevokedAt, err = decodeTimePtr(revokedStr); err != nil {
		return persistence.Session{}, fmt.Errorf("failed to parse revoked_at: %w", err)
	}

	return session, nil
}
