package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migration is a single forward-only schema step. Migrations are applied in
// order and recorded in schema_migrations so restarts are idempotent.
type migration struct {
	version int
	name    string
	stmts   []string
}

var migrations = []migration{
	{
		version: 1,
		name:    "create_employees",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS employees (
				id TEXT PRIMARY KEY,
				email TEXT NOT NULL UNIQUE,
				first_name TEXT NOT NULL,
				last_name TEXT NOT NULL,
				password_hash TEXT NOT NULL,
				role TEXT NOT NULL CHECK (role IN ('employee', 'manager', 'admin')),
				department TEXT NOT NULL,
				job_title TEXT NOT NULL,
				hourly_rate REAL,
				disabled INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_employees_department ON employees(department)`,
		},
	},
	{
		version: 2,
		name:    "create_projects",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS projects (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL UNIQUE,
				description TEXT,
				client TEXT,
				status TEXT NOT NULL CHECK (status IN ('active', 'completed', 'on-hold', 'cancelled')),
				department TEXT,
				manager_id TEXT REFERENCES employees(id),
				team_ids TEXT NOT NULL DEFAULT '',
				created_by TEXT NOT NULL REFERENCES employees(id),
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
		},
	},
	{
		version: 3,
		name:    "create_shifts",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS shifts (
				id TEXT PRIMARY KEY,
				employee_id TEXT NOT NULL REFERENCES employees(id),
				start_time TEXT NOT NULL,
				end_time TEXT,
				status TEXT NOT NULL CHECK (status IN ('pending', 'approved', 'rejected')),
				project_id TEXT REFERENCES projects(id),
				overtime INTEGER NOT NULL DEFAULT 0,
				hourly_rate REAL,
				pay_multiplier REAL NOT NULL DEFAULT 1.0,
				notes TEXT,
				start_location TEXT,
				end_location TEXT,
				device TEXT,
				ip_address TEXT,
				verification_image TEXT,
				approved_by TEXT REFERENCES employees(id),
				approval_date TEXT,
				rejection_reason TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_shifts_employee_start ON shifts(employee_id, start_time)`,
			`CREATE INDEX IF NOT EXISTS idx_shifts_status ON shifts(status)`,
			// At most one open shift per employee, enforced at the storage
			// level in addition to the guarded insert.
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_shifts_open_per_employee
				ON shifts(employee_id) WHERE end_time IS NULL`,
		},
	},
	{
		version: 4,
		name:    "create_shift_breaks",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS shift_breaks (
				id TEXT PRIMARY KEY,
				shift_id TEXT NOT NULL REFERENCES shifts(id) ON DELETE CASCADE,
				position INTEGER NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT,
				duration_minutes INTEGER,
				type TEXT NOT NULL CHECK (type IN ('lunch', 'rest', 'other')),
				notes TEXT,
				UNIQUE (shift_id, position)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_shift_breaks_shift ON shift_breaks(shift_id)`,
		},
	},
	{
		version: 5,
		name:    "create_sessions",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS sessions (
				id TEXT PRIMARY KEY,
				employee_id TEXT NOT NULL REFERENCES employees(id),
				token TEXT NOT NULL UNIQUE,
				fingerprint TEXT NOT NULL,
				expires_at TEXT NOT NULL,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				revoked_at TEXT
			)`,
			`CREATE INDEX IF NOT EXISTS idx_sessions_employee ON sessions(employee_id)`,
		},
	},
}

// Migrate applies all pending schema migrations.
func Migrate(ctx context.Context, pool *ConnectionPool) error {
	if _, err := pool.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
	)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	for _, m := range migrations {
		applied, err := migrationApplied(ctx, pool.db, m.version)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		err = pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			for _, stmt := range m.stmts {
				if _, err := tx.Exec(stmt); err != nil {
					return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
				}
			}
			_, err := tx.Exec(
				"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
				m.version, m.name,
			)
			if err != nil {
				return fmt.Errorf("failed to record migration %d: %w", m.version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func migrationApplied(ctx context.Context, db *sql.DB, version int) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM schema_migrations WHERE version = ?", version,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check migration %d: %w", version, err)
	}
	return count > 0, nil
}
