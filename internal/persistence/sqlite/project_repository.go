package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/timeclock/internal/persistence"
)

// ProjectRepository implements persistence.ProjectRepository using SQLite
type ProjectRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewProjectRepository creates a new SQLite project repository
func NewProjectRepository(pool *ConnectionPool) *ProjectRepository {
	return &ProjectRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const projectColumns = `id, name, description, client, status, department, manager_id, team_ids, created_by, created_at, updated_at`

// CreateProject inserts a new project into the database
func (r *ProjectRepository) CreateProject(ctx context.Context, project persistence.Project) error {
	if project.ID == "" || project.Name == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	project.CreatedAt = now
	project.UpdatedAt = now

	query := `
		INSERT INTO projects (` + projectColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		project.ID,
		project.Name,
		nullString(project.Description),
		nullString(project.Client),
		project.Status,
		nullString(project.Department),
		nullString(project.ManagerID),
		encodeIDList(project.TeamIDs),
		project.CreatedBy,
		encodeTime(project.CreatedAt),
		encodeTime(project.UpdatedAt),
	)

	if err != nil {
		return r.mapProjectError(err)
	}

	return nil
}

// UpdateProject updates an existing project in the database
func (r *ProjectRepository) UpdateProject(ctx context.Context, project persistence.Project) error {
	if project.ID == "" || project.Name == "" {
		return persistence.ErrConstraintViolation
	}

	project.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE projects
		SET name = ?, description = ?, client = ?, status = ?, department = ?, manager_id = ?, team_ids = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.helper.Exec(ctx, query,
		project.Name,
		nullString(project.Description),
		nullString(project.Client),
		project.Status,
		nullString(project.Department),
		nullString(project.ManagerID),
		encodeIDList(project.TeamIDs),
		encodeTime(project.UpdatedAt),
		project.ID,
	)

	if err != nil {
		return r.mapProjectError(err)
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

// GetProject retrieves a project by ID from the database
func (r *ProjectRepository) GetProject(ctx context.Context, id string) (persistence.Project, error) {
	if id == "" {
		return persistence.Project{}, persistence.ErrNotFound
	}

	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = ?`

	return scanProject(r.helper.QueryRow(ctx, query, id))
}

// ListProjects returns all projects ordered by name then ID
func (r *ProjectRepository) ListProjects(ctx context.Context) ([]persistence.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects ORDER BY name ASC, id ASC`

	rows, err := r.helper.Query(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var projects []persistence.Project

	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return projects, nil
}

// DeleteProject removes a project by ID from the database
func (r *ProjectRepository) DeleteProject(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		// A project with booked shifts cannot be removed
		var shiftCount int
		err := r.helper.QueryRowTx(tx, "SELECT COUNT(*) FROM shifts WHERE project_id = ?", id).Scan(&shiftCount)
		if err != nil {
			return r.mapper.MapError(err)
		}

		if shiftCount > 0 {
			return persistence.ErrForeignKeyViolation
		}

		result, err := r.helper.ExecTx(tx, "DELETE FROM projects WHERE id = ?", id)
		if err != nil {
			return r.mapper.MapError(err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}

		if rowsAffected == 0 {
			return persistence.ErrNotFound
		}

		return nil
	})
}

func scanProject(s scanner) (persistence.Project, error) {
	var project persistence.Project
	var description, client, department, managerID sql.NullString
	var teamIDs, createdAtStr, updatedAtStr string

	err := s.Scan(
		&project.ID,
		&project.Name,
		&description,
		&client,
		&project.Status,
		&department,
		&managerID,
		&teamIDs,
		&project.CreatedBy,
		&createdAtStr,
		&updatedAtStr,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Project{}, persistence.ErrNotFound
		}
		return persistence.Project{}, NewErrorMapper().MapError(err)
	}

	project.Description = stringPtr(description)
	project.Client = stringPtr(client)
	project.Department = stringPtr(department)
	project.ManagerID = stringPtr(managerID)
	project.TeamIDs = decodeIDList(teamIDs)

	if project.CreatedAt, err = decodeTime(createdAtStr); err != nil {
		return persistence.Project{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if project.UpdatedAt, err = decodeTime(updatedAtStr); err != nil {
		return persistence.Project{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return project, nil
}

// mapProjectError maps SQLite errors to appropriate persistence errors for project operations
func (r *ProjectRepository) mapProjectError(err error) error {
	if err == nil {
		return nil
	}

	errStr := err.Error()

	if containsAny(errStr, []string{"UNIQUE constraint failed"}) {
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
