package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/timeclock/internal/application"
)

type employeeService interface {
	CreateEmployee(ctx context.Context, params application.CreateEmployeeParams) (application.EmployeeView, error)
	UpdateEmployee(ctx context.Context, params application.UpdateEmployeeParams) (application.EmployeeView, error)
	GetEmployee(ctx context.Context, params application.GetEmployeeParams) (application.EmployeeView, error)
	ListEmployees(ctx context.Context, params application.ListEmployeesParams) ([]application.EmployeeView, error)
	DeleteEmployee(ctx context.Context, params application.DeleteEmployeeParams) error
}

type EmployeeHandler struct {
	service   employeeService
	responder responder
	logger    *slog.Logger
}

func NewEmployeeHandler(service employeeService, logger *slog.Logger) *EmployeeHandler {
	base := defaultLogger(logger)
	return &EmployeeHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *EmployeeHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "EmployeeHandler", operation, attrs...)
}

func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req employeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.EmployeeID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode employee request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.EmployeeID)

	view, err := h.service.CreateEmployee(r.Context(), application.CreateEmployeeParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "employee creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("employee_id", view.ID).InfoContext(r.Context(), "employee created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, employeeResponse{Employee: toEmployeeDTO(view)})
}

func (h *EmployeeHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	employeeID, ok := EmployeeIDFromContext(r.Context())
	if !ok || strings.TrimSpace(employeeID) == "" {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "missing employee id for update")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEmployeeID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req employeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.EmployeeID, "employee_id", employeeID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode employee update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.EmployeeID, "employee_id", employeeID)

	view, err := h.service.UpdateEmployee(r.Context(), application.UpdateEmployeeParams{
		Principal:  principal,
		EmployeeID: employeeID,
		Input: application.UpdateEmployeeInput{
			Email:      req.Email,
			Password:   req.Password,
			FirstName:  req.FirstName,
			LastName:   req.LastName,
			Role:       req.Role,
			Department: req.Department,
			JobTitle:   req.JobTitle,
			HourlyRate: req.HourlyRate,
			Disabled:   req.Disabled,
		},
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "employee update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "employee updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, employeeResponse{Employee: toEmployeeDTO(view)})
}

func (h *EmployeeHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	employeeID, ok := EmployeeIDFromContext(r.Context())
	if !ok || strings.TrimSpace(employeeID) == "" {
		h.log(r.Context(), "Get", "error_kind", "bad_request").ErrorContext(r.Context(), "missing employee id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEmployeeID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	view, err := h.service.GetEmployee(r.Context(), application.GetEmployeeParams{
		Principal:  principal,
		EmployeeID: employeeID,
	})
	if err != nil {
		h.log(r.Context(), "Get", "principal_id", principal.EmployeeID, "employee_id", employeeID).ErrorContext(r.Context(), "employee lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, employeeResponse{Employee: toEmployeeDTO(view)})
}

func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	views, err := h.service.ListEmployees(r.Context(), application.ListEmployeesParams{Principal: principal})
	if err != nil {
		h.log(r.Context(), "List", "principal_id", principal.EmployeeID).ErrorContext(r.Context(), "employee listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]employeeDTO, 0, len(views))
	for _, view := range views {
		out = append(out, toEmployeeDTO(view))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, employeesResponse{Employees: out})
}

func (h *EmployeeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	employeeID, ok := EmployeeIDFromContext(r.Context())
	if !ok || strings.TrimSpace(employeeID) == "" {
		h.log(r.Context(), "Delete", "error_kind", "bad_request").ErrorContext(r.Context(), "missing employee id for delete")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEmployeeID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.EmployeeID, "employee_id", employeeID)

	if err := h.service.DeleteEmployee(r.Context(), application.DeleteEmployeeParams{
		Principal:  principal,
		EmployeeID: employeeID,
	}); err != nil {
		logger.ErrorContext(r.Context(), "employee deletion failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "employee deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type employeeRequest struct {
	Email      string   `json:"email"`
	Password   string   `json:"password"`
	FirstName  string   `json:"first_name"`
	LastName   string   `json:"last_name"`
	Role       string   `json:"role"`
	Department string   `json:"department"`
	JobTitle   string   `json:"job_title"`
	HourlyRate *float64 `json:"hourly_rate"`
	Disabled   *bool    `json:"disabled"`
}

func (r employeeRequest) toInput() application.EmployeeInput {
	return application.EmployeeInput{
		Email:      r.Email,
		Password:   r.Password,
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		Role:       r.Role,
		Department: r.Department,
		JobTitle:   r.JobTitle,
		HourlyRate: r.HourlyRate,
	}
}

type employeeResponse struct {
	Employee employeeDTO `json:"employee"`
}

type employeesResponse struct {
	Employees []employeeDTO `json:"employees"`
}

type employeeDTO struct {
	ID         string   `json:"id"`
	Email      string   `json:"email"`
	FirstName  string   `json:"first_name"`
	LastName   string   `json:"last_name"`
	Role       string   `json:"role"`
	Department string   `json:"department"`
	JobTitle   string   `json:"job_title"`
	HourlyRate *float64 `json:"hourly_rate,omitempty"`
	Disabled   bool     `json:"disabled"`
	Active     bool     `json:"active"`
	CreatedAt  string   `json:"created_at"`
	UpdatedAt  string   `json:"updated_at"`
}

func toEmployeeDTO(view application.EmployeeView) employeeDTO {
	return employeeDTO{
		ID:         view.ID,
		Email:      view.Email,
		FirstName:  view.FirstName,
		LastName:   view.LastName,
		Role:       view.Role,
		Department: view.Department,
		JobTitle:   view.JobTitle,
		HourlyRate: view.HourlyRate,
		Disabled:   view.Disabled,
		Active:     view.Active,
		CreatedAt:  formatTime(view.CreatedAt),
		UpdatedAt:  formatTime(view.UpdatedAt),
	}
}
