package http

import (
	"net/http"
	"strings"
)

type RouterConfig struct {
	Auth       *AuthHandler
	Shifts     *ShiftHandler
	Reports    *ReportHandler
	Employees  *EmployeeHandler
	Projects   *ProjectHandler
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Auth != nil {
		mux.HandleFunc("/sessions", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.CreateSession(w, r)
		})
		mux.HandleFunc("/sessions/current", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodDelete {
				methodNotAllowed(w, http.MethodDelete)
				return
			}
			cfg.Auth.DeleteCurrentSession(w, r)
		})
		mux.HandleFunc("/sessions/refresh", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.RefreshSession(w, r)
		})
	}

	if cfg.Shifts != nil {
		mux.HandleFunc("/shifts", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Shifts.List(w, r)
		})
		mux.HandleFunc("/shifts/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/shifts/")
			switch rest {
			case "":
				http.NotFound(w, r)
			case "clock-in":
				requireMethod(w, r, http.MethodPost, cfg.Shifts.ClockIn)
			case "clock-out":
				requireMethod(w, r, http.MethodPost, cfg.Shifts.ClockOut)
			case "breaks/start":
				requireMethod(w, r, http.MethodPost, cfg.Shifts.StartBreak)
			case "breaks/end":
				requireMethod(w, r, http.MethodPost, cfg.Shifts.EndBreak)
			case "current":
				requireMethod(w, r, http.MethodGet, cfg.Shifts.Current)
			case "pending":
				requireMethod(w, r, http.MethodGet, cfg.Shifts.Pending)
			default:
				id, action, _ := strings.Cut(rest, "/")
				if id == "" {
					http.NotFound(w, r)
					return
				}
				r = r.WithContext(ContextWithShiftID(r.Context(), id))
				switch action {
				case "":
					requireMethod(w, r, http.MethodGet, cfg.Shifts.Get)
				case "approval":
					requireMethod(w, r, http.MethodPost, cfg.Shifts.Decide)
				default:
					http.NotFound(w, r)
				}
			}
		})
	}

	if cfg.Reports != nil {
		mux.HandleFunc("/reports", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Reports.Generate(w, r)
		})
		mux.HandleFunc("/reports/employees/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/reports/employees/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithEmployeeID(r.Context(), id))
			requireMethod(w, r, http.MethodGet, cfg.Reports.EmployeeSummary)
		})
		mux.HandleFunc("/reports/departments/", func(w http.ResponseWriter, r *http.Request) {
			name := strings.TrimPrefix(r.URL.Path, "/reports/departments/")
			if name == "" {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithDepartment(r.Context(), name))
			requireMethod(w, r, http.MethodGet, cfg.Reports.DepartmentSummary)
		})
	}

	if cfg.Employees != nil {
		mux.HandleFunc("/employees", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Employees.List(w, r)
			case http.MethodPost:
				cfg.Employees.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/employees/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/employees/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithEmployeeID(r.Context(), id))
			switch r.Method {
			case http.MethodGet:
				cfg.Employees.Get(w, r)
			case http.MethodPut:
				cfg.Employees.Update(w, r)
			case http.MethodDelete:
				cfg.Employees.Delete(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
			}
		})
	}

	if cfg.Projects != nil {
		mux.HandleFunc("/projects", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Projects.List(w, r)
			case http.MethodPost:
				cfg.Projects.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/projects/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/projects/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithProjectID(r.Context(), id))
			switch r.Method {
			case http.MethodGet:
				cfg.Projects.Get(w, r)
			case http.MethodPut:
				cfg.Projects.Update(w, r)
			case http.MethodDelete:
				cfg.Projects.Delete(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
			}
		})
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string, handle func(http.ResponseWriter, *http.Request)) {
	if r.Method != method {
		methodNotAllowed(w, method)
		return
	}
	handle(w, r)
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
