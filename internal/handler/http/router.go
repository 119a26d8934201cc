package http

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/auth"
	"github.com/redaxis-hris/hrms-backend-go/internal/domain/user"
	"github.com/redaxis-hris/hrms-backend-go/internal/handler/http/middleware"
	"github.com/redaxis-hris/hrms-backend-go/internal/pkg/jwt"
)

type Handlers struct {
	Auth       AuthHandler
	Employee   EmployeeHandler
	Attendance AttendanceHandler
	Leave      LeaveHandler
}

func NewRouter(logger *slog.Logger, allowedOrigins []string, JWTService jwt.Service, authService auth.AuthService, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(chiMiddleware.RequestID)
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", h.Auth.Login)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService, authService))

			r.Route("/auth", func(r chi.Router) {
				r.Get("/me", h.Auth.Me)
				r.Post("/logout", h.Auth.Logout)
			})

			r.Route("/employees", func(r chi.Router) {
				r.Get("/", h.Employee.List)
				r.With(middleware.RequirePermission(user.PermissionEmployeeStats)).Get("/stats", h.Employee.Stats)
				r.With(middleware.RequirePermission(user.PermissionEmployeeManage)).Post("/", h.Employee.Create)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.Employee.Get)
					r.Get("/reports", h.Employee.DirectReports)
					r.With(middleware.RequirePermission(user.PermissionEmployeeManage)).Put("/", h.Employee.Update)
					r.With(middleware.RequirePermission(user.PermissionEmployeeDelete)).Delete("/", h.Employee.Delete)
				})
			})

			r.Route("/attendance", func(r chi.Router) {
				r.Get("/", h.Attendance.List)
				r.Get("/stats", h.Attendance.Stats)
				r.Get("/report", h.Attendance.Report)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionAttendanceClock))
					r.Post("/check-in", h.Attendance.CheckIn)
					r.Post("/check-out", h.Attendance.CheckOut)
				})

				// gated by the can_manage_attendance capability in the service
				r.Post("/", h.Attendance.Record)
				r.Put("/{id}", h.Attendance.Update)
			})

			r.Route("/leaves", func(r chi.Router) {
				r.Get("/", h.Leave.List)
				r.With(middleware.RequirePermission(user.PermissionLeaveCreate)).Post("/", h.Leave.Create)
				r.With(middleware.RequirePermission(user.PermissionLeaveSyncAll)).Post("/sync-attendance", h.Leave.SyncAttendance)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.Leave.Get)
					r.Delete("/", h.Leave.Cancel)

					r.Group(func(r chi.Router) {
						r.Use(middleware.RequirePermission(user.PermissionLeaveApprove))
						r.Patch("/status", h.Leave.UpdateStatus)
						r.Put("/status", h.Leave.UpdateStatus)
					})
				})
			})
		})
	})
	return r
}
