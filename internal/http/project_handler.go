package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/timeclock/internal/application"
)

type projectService interface {
	CreateProject(ctx context.Context, params application.CreateProjectParams) (application.ProjectView, error)
	UpdateProject(ctx context.Context, params application.UpdateProjectParams) (application.ProjectView, error)
	GetProject(ctx context.Context, params application.GetProjectParams) (application.ProjectView, error)
	ListProjects(ctx context.Context, params application.ListProjectsParams) ([]application.ProjectView, error)
	DeleteProject(ctx context.Context, params application.DeleteProjectParams) error
}

type ProjectHandler struct {
	service   projectService
	responder responder
	logger    *slog.Logger
}

func NewProjectHandler(service projectService, logger *slog.Logger) *ProjectHandler {
	base := defaultLogger(logger)
	return &ProjectHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ProjectHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ProjectHandler", operation, attrs...)
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.EmployeeID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode project request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.EmployeeID)

	view, err := h.service.CreateProject(r.Context(), application.CreateProjectParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "project creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("project_id", view.ID).InfoContext(r.Context(), "project created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, projectResponse{Project: toProjectDTO(view)})
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	projectID, ok := ProjectIDFromContext(r.Context())
	if !ok || strings.TrimSpace(projectID) == "" {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "missing project id for update")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidProjectID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.EmployeeID, "project_id", projectID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode project update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.EmployeeID, "project_id", projectID)

	view, err := h.service.UpdateProject(r.Context(), application.UpdateProjectParams{
		Principal: principal,
		ProjectID: projectID,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "project update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "project updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, projectResponse{Project: toProjectDTO(view)})
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	projectID, ok := ProjectIDFromContext(r.Context())
	if !ok || strings.TrimSpace(projectID) == "" {
		h.log(r.Context(), "Get", "error_kind", "bad_request").ErrorContext(r.Context(), "missing project id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidProjectID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	view, err := h.service.GetProject(r.Context(), application.GetProjectParams{
		Principal: principal,
		ProjectID: projectID,
	})
	if err != nil {
		h.log(r.Context(), "Get", "principal_id", principal.EmployeeID, "project_id", projectID).ErrorContext(r.Context(), "project lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, projectResponse{Project: toProjectDTO(view)})
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	views, err := h.service.ListProjects(r.Context(), application.ListProjectsParams{Principal: principal})
	if err != nil {
		h.log(r.Context(), "List", "principal_id", principal.EmployeeID).ErrorContext(r.Context(), "project listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]projectDTO, 0, len(views))
	for _, view := range views {
		out = append(out, toProjectDTO(view))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, projectsResponse{Projects: out})
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	projectID, ok := ProjectIDFromContext(r.Context())
	if !ok || strings.TrimSpace(projectID) == "" {
		h.log(r.Context(), "Delete", "error_kind", "bad_request").ErrorContext(r.Context(), "missing project id for delete")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidProjectID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.EmployeeID, "project_id", projectID)

	if err := h.service.DeleteProject(r.Context(), application.DeleteProjectParams{
		Principal: principal,
		ProjectID: projectID,
	}); err != nil {
		logger.ErrorContext(r.Context(), "project deletion failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "project deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type projectRequest struct {
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Client      *string  `json:"client"`
	Status      string   `json:"status"`
	Department  *string  `json:"department"`
	ManagerID   *string  `json:"manager_id"`
	TeamIDs     []string `json:"team_ids"`
}

func (r projectRequest) toInput() application.ProjectInput {
	return application.ProjectInput{
		Name:        r.Name,
		Description: r.Description,
		Client:      r.Client,
		Status:      r.Status,
		Department:  r.Department,
		ManagerID:   r.ManagerID,
		TeamIDs:     r.TeamIDs,
	}
}

type projectResponse struct {
	Project projectDTO `json:"project"`
}

type projectsResponse struct {
	Projects []projectDTO `json:"projects"`
}

type projectDTO struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description *string  `json:"description,omitempty"`
	Client      *string  `json:"client,omitempty"`
	Status      string   `json:"status"`
	Department  *string  `json:"department,omitempty"`
	ManagerID   *string  `json:"manager_id,omitempty"`
	TeamIDs     []string `json:"team_ids"`
	CreatedBy   string   `json:"created_by"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

func toProjectDTO(view application.ProjectView) projectDTO {
	return projectDTO{
		ID:          view.ID,
		Name:        view.Name,
		Description: view.Description,
		Client:      view.Client,
		Status:      view.Status,
		Department:  view.Department,
		ManagerID:   view.ManagerID,
		TeamIDs:     view.TeamIDs,
		CreatedBy:   view.CreatedBy,
		CreatedAt:   formatTime(view.CreatedAt),
		UpdatedAt:   formatTime(view.UpdatedAt),
	}
}
