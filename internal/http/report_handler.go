package http

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/example/timeclock/internal/application"
	"github.com/example/timeclock/internal/timesheet"
)

type reportService interface {
	GenerateReport(ctx context.Context, params application.GenerateReportParams) (application.Report, error)
	EmployeeSummary(ctx context.Context, params application.EmployeeSummaryParams) (application.EmployeeSummary, error)
	DepartmentSummary(ctx context.Context, params application.DepartmentSummaryParams) (application.DepartmentSummary, error)
}

type ReportHandler struct {
	service   reportService
	responder responder
	logger    *slog.Logger
}

func NewReportHandler(service reportService, logger *slog.Logger) *ReportHandler {
	base := defaultLogger(logger)
	return &ReportHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ReportHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ReportHandler", operation, attrs...)
}

func (h *ReportHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Generate", "principal_id", principal.EmployeeID)

	report, err := h.service.GenerateReport(r.Context(), buildReportParams(r.URL.Query(), principal))
	if err != nil {
		logger.ErrorContext(r.Context(), "report generation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReportDTO(report))
}

func (h *ReportHandler) EmployeeSummary(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	employeeID, ok := EmployeeIDFromContext(r.Context())
	if !ok || strings.TrimSpace(employeeID) == "" {
		h.log(r.Context(), "EmployeeSummary", "error_kind", "bad_request").ErrorContext(r.Context(), "missing employee id for summary")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEmployeeID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "EmployeeSummary", "principal_id", principal.EmployeeID, "employee_id", employeeID)

	params := application.EmployeeSummaryParams{
		Principal:  principal,
		EmployeeID: employeeID,
	}
	if from, ok := parseQueryTime(r.URL.Query().Get("from")); ok {
		params.From = &from
	}
	if to, ok := parseQueryTime(r.URL.Query().Get("to")); ok {
		params.To = &to
	}

	summary, err := h.service.EmployeeSummary(r.Context(), params)
	if err != nil {
		logger.ErrorContext(r.Context(), "employee summary failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEmployeeSummaryDTO(summary))
}

func (h *ReportHandler) DepartmentSummary(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	department, ok := DepartmentFromContext(r.Context())
	if !ok || strings.TrimSpace(department) == "" {
		h.log(r.Context(), "DepartmentSummary", "error_kind", "bad_request").ErrorContext(r.Context(), "missing department for summary")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDepartment)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "DepartmentSummary", "principal_id", principal.EmployeeID, "department", department)

	params := application.DepartmentSummaryParams{
		Principal:  principal,
		Department: department,
	}
	if from, ok := parseQueryTime(r.URL.Query().Get("from")); ok {
		params.From = &from
	}
	if to, ok := parseQueryTime(r.URL.Query().Get("to")); ok {
		params.To = &to
	}

	summary, err := h.service.DepartmentSummary(r.Context(), params)
	if err != nil {
		logger.ErrorContext(r.Context(), "department summary failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toDepartmentSummaryDTO(summary))
}

func buildReportParams(values url.Values, principal application.Principal) application.GenerateReportParams {
	params := application.GenerateReportParams{
		Principal: principal,
		Type:      timesheet.ReportType(strings.TrimSpace(values.Get("type"))),
	}
	if params.Type == "" {
		params.Type = timesheet.ReportMonthly
	}

	if date, ok := parseQueryTime(values.Get("date")); ok {
		params.Date = date
	} else {
		params.Date = time.Now().UTC()
	}
	if start, ok := parseQueryTime(values.Get("start_date")); ok {
		params.StartDate = &start
	}
	if end, ok := parseQueryTime(values.Get("end_date")); ok {
		params.EndDate = &end
	}
	if employeeID := strings.TrimSpace(values.Get("employee_id")); employeeID != "" {
		params.EmployeeID = &employeeID
	}
	if department := strings.TrimSpace(values.Get("department")); department != "" {
		params.Department = &department
	}
	if projectID := strings.TrimSpace(values.Get("project_id")); projectID != "" {
		params.ProjectID = &projectID
	}

	return params
}

type reportDTO struct {
	Type      string   `json:"type"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	Stats     statsDTO `json:"stats"`
}

type statsDTO struct {
	TotalShifts        int                         `json:"total_shifts"`
	TotalHours         float64                     `json:"total_hours"`
	TotalBreakHours    float64                     `json:"total_break_hours"`
	OvertimeHours      float64                     `json:"overtime_hours"`
	AverageShiftLength float64                     `json:"average_shift_length"`
	Employees          map[string]employeeStatsDTO `json:"employees"`
	Departments        map[string]groupStatsDTO    `json:"departments"`
	Projects           map[string]groupStatsDTO    `json:"projects"`
	Daily              []dailyStatsDTO             `json:"daily"`
}

type employeeStatsDTO struct {
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Department    string  `json:"department"`
	JobTitle      string  `json:"job_title"`
	TotalShifts   int     `json:"total_shifts"`
	TotalHours    float64 `json:"total_hours"`
	BreakHours    float64 `json:"break_hours"`
	OvertimeHours float64 `json:"overtime_hours"`
}

type groupStatsDTO struct {
	TotalShifts   int     `json:"total_shifts"`
	TotalHours    float64 `json:"total_hours"`
	BreakHours    float64 `json:"break_hours"`
	OvertimeHours float64 `json:"overtime_hours"`
	EmployeeCount int     `json:"employee_count"`
}

type dailyStatsDTO struct {
	Date          string  `json:"date"`
	TotalShifts   int     `json:"total_shifts"`
	TotalHours    float64 `json:"total_hours"`
	EmployeeCount int     `json:"employee_count"`
}

type employeeSummaryDTO struct {
	Employee       employeeDTO `json:"employee"`
	PeriodStart    string      `json:"period_start"`
	PeriodEnd      string      `json:"period_end"`
	TotalShifts    int         `json:"total_shifts"`
	PendingShifts  int         `json:"pending_shifts"`
	ApprovedShifts int         `json:"approved_shifts"`
	RejectedShifts int         `json:"rejected_shifts"`
	ApprovedHours  float64     `json:"approved_hours"`
	ApprovedPay    float64     `json:"approved_pay"`
}

type departmentSummaryDTO struct {
	Department    string   `json:"department"`
	PeriodStart   string   `json:"period_start"`
	PeriodEnd     string   `json:"period_end"`
	EmployeeCount int      `json:"employee_count"`
	Stats         statsDTO `json:"stats"`
}

func toReportDTO(report application.Report) reportDTO {
	return reportDTO{
		Type:      string(report.Type),
		StartDate: formatTime(report.StartDate),
		EndDate:   formatTime(report.EndDate),
		Stats:     toStatsDTO(report.Stats),
	}
}

func toStatsDTO(stats timesheet.Stats) statsDTO {
	dto := statsDTO{
		TotalShifts:        stats.TotalShifts,
		TotalHours:         stats.TotalHours,
		TotalBreakHours:    stats.TotalBreakHours,
		OvertimeHours:      stats.OvertimeHours,
		AverageShiftLength: stats.AverageShiftLength,
		Employees:          make(map[string]employeeStatsDTO, len(stats.Employees)),
		Departments:        make(map[string]groupStatsDTO, len(stats.Departments)),
		Projects:           make(map[string]groupStatsDTO, len(stats.Projects)),
		Daily:              make([]dailyStatsDTO, 0, len(stats.Daily)),
	}

	for id, employee := range stats.Employees {
		dto.Employees[id] = employeeStatsDTO{
			Name:          employee.Name,
			Email:         employee.Email,
			Department:    employee.Department,
			JobTitle:      employee.JobTitle,
			TotalShifts:   employee.TotalShifts,
			TotalHours:    employee.TotalHours,
			BreakHours:    employee.BreakHours,
			OvertimeHours: employee.OvertimeHours,
		}
	}
	for name, department := range stats.Departments {
		dto.Departments[name] = groupStatsDTO{
			TotalShifts:   department.TotalShifts,
			TotalHours:    department.TotalHours,
			BreakHours:    department.BreakHours,
			OvertimeHours: department.OvertimeHours,
			EmployeeCount: department.EmployeeCount,
		}
	}
	for id, project := range stats.Projects {
		dto.Projects[id] = groupStatsDTO{
			TotalShifts:   project.TotalShifts,
			TotalHours:    project.TotalHours,
			BreakHours:    project.BreakHours,
			OvertimeHours: project.OvertimeHours,
			EmployeeCount: project.EmployeeCount,
		}
	}
	for _, day := range stats.Daily {
		dto.Daily = append(dto.Daily, dailyStatsDTO{
			Date:          day.Date,
			TotalShifts:   day.TotalShifts,
			TotalHours:    day.TotalHours,
			EmployeeCount: day.EmployeeCount,
		})
	}
	sort.Slice(dto.Daily, func(i, j int) bool { return dto.Daily[i].Date < dto.Daily[j].Date })

	return dto
}

func toEmployeeSummaryDTO(summary application.EmployeeSummary) employeeSummaryDTO {
	return employeeSummaryDTO{
		Employee:       toEmployeeDTO(summary.Employee),
		PeriodStart:    formatTime(summary.PeriodStart),
		PeriodEnd:      formatTime(summary.PeriodEnd),
		TotalShifts:    summary.TotalShifts,
		PendingShifts:  summary.PendingShifts,
		ApprovedShifts: summary.ApprovedShifts,
		RejectedShifts: summary.RejectedShifts,
		ApprovedHours:  summary.ApprovedHours,
		ApprovedPay:    summary.ApprovedPay,
	}
}

func toDepartmentSummaryDTO(summary application.DepartmentSummary) departmentSummaryDTO {
	return departmentSummaryDTO{
		Department:    summary.Department,
		PeriodStart:   formatTime(summary.PeriodStart),
		PeriodEnd:     formatTime(summary.PeriodEnd),
		EmployeeCount: summary.EmployeeCount,
		Stats:         toStatsDTO(summary.Stats),
	}
}
