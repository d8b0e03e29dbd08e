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

// ProjectRepository captures the persistence operations needed by the
// project service.
type ProjectRepository interface {
	CreateProject(ctx context.Context, project persistence.Project) error
	UpdateProject(ctx context.Context, project persistence.Project) error
	GetProject(ctx context.Context, id string) (persistence.Project, error)
	ListProjects(ctx context.Context) ([]persistence.Project, error)
	DeleteProject(ctx context.Context, id string) error
}

var projectStatuses = map[string]struct{}{
	"active":    {},
	"completed": {},
	"on-hold":   {},
	"cancelled": {},
}

// ProjectService orchestrates validation, authorization, and persistence
// for projects.
type ProjectService struct {
	projects    ProjectRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewProjectService constructs a project service with the provided dependencies.
func NewProjectService(projects ProjectRepository, idGenerator func() string, now func() time.Time) *ProjectService {
	return NewProjectServiceWithLogger(projects, idGenerator, now, nil)
}

// NewProjectServiceWithLogger constructs a project service with a specified logger.
func NewProjectServiceWithLogger(projects ProjectRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ProjectService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ProjectService{projects: projects, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *ProjectService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ProjectService", operation, attrs...)
}

// CreateProject validates input and persists a new project for managers and
// administrators.
func (s *ProjectService) CreateProject(ctx context.Context, params CreateProjectParams) (view ProjectView, err error) {
	if s == nil {
		err = fmt.Errorf("ProjectService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateProject",
		"principal_id", params.Principal.EmployeeID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create project", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("project_id", view.ID).InfoContext(ctx, "project created")
	}()

	if !params.Principal.IsManager() {
		err = ErrUnauthorized
		return
	}

	vErr := validateProjectInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	project := persistence.Project{
		ID:          s.idGenerator(),
		Name:        strings.TrimSpace(params.Input.Name),
		Description: normalizeOptionalString(params.Input.Description),
		Client:      normalizeOptionalString(params.Input.Client),
		Status:      projectStatusOrDefault(params.Input.Status),
		Department:  normalizeOptionalString(params.Input.Department),
		ManagerID:   normalizeOptionalString(params.Input.ManagerID),
		TeamIDs:     params.Input.TeamIDs,
		CreatedBy:   params.Principal.EmployeeID,
	}

	if err = s.projects.CreateProject(ctx, project); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			err = ErrAlreadyExists
		}
		return
	}

	var created persistence.Project
	created, err = s.projects.GetProject(ctx, project.ID)
	if err != nil {
		return
	}

	view = newProjectView(created)
	return
}

// UpdateProject validates input and updates an existing project for managers
// and administrators.
func (s *ProjectService) UpdateProject(ctx context.Context, params UpdateProjectParams) (view ProjectView, err error) {
	if s == nil {
		err = fmt.Errorf("ProjectService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateProject",
		"principal_id", params.Principal.EmployeeID,
		"project_id", params.ProjectID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update project", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "project updated")
	}()

	if !params.Principal.IsManager() {
		err = ErrUnauthorized
		return
	}

	vErr := validateProjectInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var project persistence.Project
	project, err = s.projects.GetProject(ctx, params.ProjectID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrNotFound
		}
		return
	}

	project.Name = strings.TrimSpace(params.Input.Name)
	project.Description = normalizeOptionalString(params.Input.Description)
	project.Client = normalizeOptionalString(params.Input.Client)
	project.Status = projectStatusOrDefault(params.Input.Status)
	project.Department = normalizeOptionalString(params.Input.Department)
	project.ManagerID = normalizeOptionalString(params.Input.ManagerID)
	project.TeamIDs = params.Input.TeamIDs

	if err = s.projects.UpdateProject(ctx, project); err != nil {
		switch {
		case errors.Is(err, persistence.ErrNotFound):
			err = ErrNotFound
		case errors.Is(err, persistence.ErrDuplicate):
			err = ErrAlreadyExists
		}
		return
	}

	var updated persistence.Project
	updated, err = s.projects.GetProject(ctx, params.ProjectID)
	if err != nil {
		return
	}

	view = newProjectView(updated)
	return
}

// GetProject returns a single project. Any authenticated employee may read
// projects to book time against them.
func (s *ProjectService) GetProject(ctx context.Context, params GetProjectParams) (ProjectView, error) {
	if s == nil {
		return ProjectView{}, fmt.Errorf("ProjectService is nil")
	}

	project, err := s.projects.GetProject(ctx, params.ProjectID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ProjectView{}, ErrNotFound
		}
		return ProjectView{}, err
	}

	return newProjectView(project), nil
}

// ListProjects returns all projects ordered by name.
func (s *ProjectService) ListProjects(ctx context.Context, params ListProjectsParams) ([]ProjectView, error) {
	if s == nil {
		return nil, fmt.Errorf("ProjectService is nil")
	}

	projects, err := s.projects.ListProjects(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]ProjectView, 0, len(projects))
	for _, project := range projects {
		views = append(views, newProjectView(project))
	}
	return views, nil
}

// DeleteProject removes a project for administrators. Projects with booked
// shifts cannot be removed.
func (s *ProjectService) DeleteProject(ctx context.Context, params DeleteProjectParams) (err error) {
	if s == nil {
		return fmt.Errorf("ProjectService is nil")
	}

	logger := s.loggerWith(ctx, "DeleteProject",
		"principal_id", params.Principal.EmployeeID,
		"project_id", params.ProjectID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete project", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "project deleted")
	}()

	if !params.Principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}

	err = s.projects.DeleteProject(ctx, params.ProjectID)
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		err = ErrNotFound
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		vErr := &ValidationError{}
		vErr.add("project_id", "project has booked shifts and cannot be deleted")
		err = vErr
	}
	return
}

func newProjectView(project persistence.Project) ProjectView {
	return ProjectView{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		Client:      project.Client,
		Status:      project.Status,
		Department:  project.Department,
		ManagerID:   project.ManagerID,
		TeamIDs:     project.TeamIDs,
		CreatedBy:   project.CreatedBy,
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
	}
}

func projectStatusOrDefault(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return "active"
	}
	return status
}

func validateProjectInput(input ProjectInput) *ValidationError {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}

	if status := strings.TrimSpace(input.Status); status != "" {
		if _, ok := projectStatuses[status]; !ok {
			vErr.add("status", "status must be active, completed, on-hold, or cancelled")
		}
	}

	return vErr
}
