package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/httplog/v3"
	"github.com/redaxis-hris/hrms-backend-go/internal/config"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/attendance"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/employee"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/leave"
	"github.com/redaxis-hris/hrms-backend-go/internal/fixtures"
	appHTTP "github.com/redaxis-hris/hrms-backend-go/internal/handler/http"
	"github.com/redaxis-hris/hrms-backend-go/internal/pkg/cron"
	"github.com/redaxis-hris/hrms-backend-go/internal/pkg/database"
	"github.com/redaxis-hris/hrms-backend-go/internal/pkg/jwt"
	"github.com/redaxis-hris/hrms-backend-go/internal/repository/memory"
	"github.com/redaxis-hris/hrms-backend-go/internal/repository/postgresql"
	accessService "github.com/redaxis-hris/hrms-backend-go/internal/service/access"
	attendanceService "github.com/redaxis-hris/hrms-backend-go/internal/service/attendance"
	serviceAuth "github.com/redaxis-hris/hrms-backend-go/internal/service/auth"
	employeeService "github.com/redaxis-hris/hrms-backend-go/internal/service/employee"
	"github.com/redaxis-hris/hrms-backend-go/internal/service/hierarchy"
	leaveService "github.com/redaxis-hris/hrms-backend-go/internal/service/leave"
)

// repositories is the storage backend selected by DB_DRIVER.
type repositories struct {
	tx          database.Transactor
	employees   employee.EmployeeRepository
	teams       employee.TeamRepository
	attendances attendance.AttendanceRepository
	leaves      leave.LeaveRequestRepository
	close       func()
}

func openRepositories(ctx context.Context, cfg *config.Config) (*repositories, error) {
	if cfg.Database.Driver == config.DriverMemory {
		slog.Warn("using in-memory storage, data is lost on restart")
		store := memory.NewStore()
		return &repositories{
			tx:          store.Transactor(),
			employees:   memory.NewEmployeeRepository(store),
			teams:       memory.NewTeamRepository(store),
			attendances: memory.NewAttendanceRepository(store),
			leaves:      memory.NewLeaveRequestRepository(store),
			close:       func() {},
		}, nil
	}

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if cfg.Database.AutoMigrate {
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, err
		}
		slog.Info("database migrations applied")
	}
	return &repositories{
		tx:          postgresql.NewTransactor(db),
		employees:   postgresql.NewEmployeeRepository(db),
		teams:       postgresql.NewTeamRepository(db),
		attendances: postgresql.NewAttendanceRepository(db),
		leaves:      postgresql.NewLeaveRequestRepository(db),
		close:       db.Close,
	}, nil
}

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.LogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := openRepositories(ctx, cfg)
	if err != nil {
		return err
	}
	defer repos.close()

	if _, err := fixtures.EnsureAdmin(ctx, repos.employees, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword); err != nil {
		return err
	}

	loc := cfg.Location()
	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	directory := hierarchy.NewDirectory(repos.employees)
	resolver := accessService.NewResolver(directory, loc)
	reconciler := attendanceService.NewReconciler(repos.attendances)

	authSvc := serviceAuth.NewAuthService(repos.employees, JWTService)
	employeeSvc := employeeService.NewEmployeeService(repos.tx, repos.employees, repos.teams, resolver)
	attendanceSvc := attendanceService.NewAttendanceService(repos.tx, repos.attendances, repos.employees, resolver, loc)
	leaveSvc := leaveService.NewLeaveService(repos.tx, repos.leaves, repos.employees, reconciler, resolver, cfg.Leave.EscalationAfter)

	scheduler := cron.NewScheduler()
	cron.NewLeaveJobs(leaveSvc, cfg.Leave.EscalationInterval).RegisterJobs(scheduler)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	router := appHTTP.NewRouter(logger, cfg.CORS.AllowedOrigins, JWTService, authSvc, appHTTP.Handlers{
		Auth:       appHTTP.NewAuthHandler(authSvc),
		Employee:   appHTTP.NewEmployeeHandler(employeeSvc),
		Attendance: appHTTP.NewAttendanceHandler(attendanceSvc),
		Leave:      appHTTP.NewLeaveHandler(leaveSvc),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", server.Addr, "driver", cfg.Database.Driver)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
