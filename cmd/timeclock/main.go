package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/timeclock/internal/application"
	"github.com/example/timeclock/internal/config"
	httptransport "github.com/example/timeclock/internal/http"
	"github.com/example/timeclock/internal/persistence/sqlite"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	location, err := cfg.Location()
	if err != nil {
		logger.Error("failed to resolve reporting timezone", "error", err)
		os.Exit(1)
	}

	pool, err := sqlite.NewConnectionPool(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := sqlite.Migrate(context.Background(), pool); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	tokenGenerator := func() string {
		return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
	}
	now := time.Now

	employeeRepo := sqlite.NewEmployeeRepository(pool)
	shiftRepo := sqlite.NewShiftRepository(pool)
	projectRepo := sqlite.NewProjectRepository(pool)
	sessionRepo := sqlite.NewSessionRepository(pool)

	shiftService := application.NewShiftServiceWithLogger(shiftRepo, employeeRepo, projectRepo, idGenerator, now, logger)
	reportService := application.NewReportServiceWithLogger(shiftRepo, employeeRepo, location, now, logger)
	employeeService := application.NewEmployeeServiceWithLogger(employeeRepo, shiftRepo, nil, idGenerator, now, logger)
	projectService := application.NewProjectServiceWithLogger(projectRepo, idGenerator, now, logger)
	authService := application.NewAuthServiceWithLogger(employeeRepo, sessionRepo, nil, tokenGenerator, now, cfg.SessionTTL, logger)

	if err := seedAdmin(context.Background(), cfg, employeeService, employeeRepo, logger); err != nil {
		logger.Error("failed to seed administrator account", "error", err)
		os.Exit(1)
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:      httptransport.NewAuthHandler(authService, logger),
		Shifts:    httptransport.NewShiftHandler(shiftService, logger),
		Reports:   httptransport.NewReportHandler(reportService, logger),
		Employees: httptransport.NewEmployeeHandler(employeeService, logger),
		Projects:  httptransport.NewProjectHandler(projectService, logger),
	})

	protected := httptransport.RequireSession(authService, logger)(router)
	handler := httptransport.RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Login is reachable without a session; a credential-less first-run
		// registration is let through so an empty store can be provisioned.
		if r.URL.Path == "/sessions" && r.Method == http.MethodPost {
			router.ServeHTTP(w, r)
			return
		}
		if r.URL.Path == "/employees" && r.Method == http.MethodPost && r.Header.Get("Authorization") == "" {
			if _, err := r.Cookie("session_token"); err != nil {
				router.ServeHTTP(w, r)
				return
			}
		}
		protected.ServeHTTP(w, r)
	}))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("timeclock API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// seedAdmin creates the bootstrap administrator account on an empty database
// so the first operator can log in. Existing installations are left alone.
func seedAdmin(ctx context.Context, cfg config.Config, employees *application.EmployeeService, repo *sqlite.EmployeeRepository, logger *slog.Logger) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	count, err := repo.CountEmployees(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	view, err := employees.CreateEmployee(ctx, application.CreateEmployeeParams{
		Principal: application.Principal{Role: application.RoleAdmin},
		Input: application.EmployeeInput{
			Email:      cfg.AdminEmail,
			Password:   cfg.AdminPassword,
			FirstName:  "System",
			LastName:   "Administrator",
			Role:       application.RoleAdmin,
			Department: "Administration",
		},
	})
	if err != nil {
		return err
	}

	logger.Info("seeded administrator account", "employee_id", view.ID, "email", view.Email)
	return nil
}
