package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"student_tracking/backend/internal/admin"
	"student_tracking/backend/internal/auth"
	"student_tracking/backend/internal/course"
	"student_tracking/backend/internal/gateway/handlers"
	"student_tracking/backend/internal/gateway/util"
	"student_tracking/backend/internal/grade"
	"student_tracking/backend/internal/ops"
	"student_tracking/backend/internal/ratelimit"
	"student_tracking/backend/internal/shared"
)

// Services bundles everything the router dispatches to
type Services struct {
	Auth    *auth.AuthService
	Admin   *admin.AdminService
	Courses *course.CourseService
	Grades  *grade.GradeService

	Health  ops.Pinger
	Limiter *ratelimit.Limiter

	// Metrics is optional; Gatherer serves /metrics when set
	Metrics  *Metrics
	Gatherer prometheus.Gatherer
}

// SetupRoutes configures the Chi router, middleware, and route handlers.
func SetupRoutes(svcs *Services, config *shared.ServiceConfig, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()
	rs := &util.Responder{Logger: logger, Development: shared.IsDevelopment(config)}

	// 1. Global Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	if svcs.Metrics != nil {
		r.Use(svcs.Metrics.Middleware)
	}

	// CORS Configuration (Allow React Frontend)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   config.Server.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: config.Server.CORS.AllowCredentials,
		MaxAge:           config.Server.CORS.MaxAge,
	}))

	// 2. Initialize Handlers
	authHandler := &handlers.AuthHandler{Auth: svcs.Auth, RS: rs}
	courseHandler := &handlers.CourseHandler{Courses: svcs.Courses, RS: rs}
	gradeHandler := &handlers.GradeHandler{Grades: svcs.Grades, RS: rs}
	adminHandler := &handlers.AdminHandler{Admin: svcs.Admin, RS: rs}

	protect := AuthMiddleware(svcs.Auth, rs)
	teacherOnly := RequireRole(shared.RoleTeacher, rs)
	adminOnly := RequireRole(shared.RoleAdmin, rs)

	// 3. Ops
	r.Get("/health", healthHandler(svcs.Health, rs))
	if svcs.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(svcs.Gatherer, promhttp.HandlerOpts{}))
	}

	// 4. Define Routes (grouped by prefix)
	r.Route("/api", func(r chi.Router) {

		// --- Public Routes ---

		// Auth
		r.With(RateLimit(svcs.Limiter, rs)).Post("/auth/login", authHandler.Login)
		r.Post("/auth/register/student", authHandler.RegisterStudent)
		r.Post("/auth/register/teacher", authHandler.RegisterTeacher)

		// Course Catalog (Publicly viewable)
		r.Get("/courses", courseHandler.ListCourses)

		// --- Protected Routes (Require Valid Token) ---
		r.Group(func(r chi.Router) {
			r.Use(protect)

			r.Get("/auth/me", authHandler.Me)

			// Students
			r.Route("/students/{id}", func(r chi.Router) {
				r.Get("/grades", gradeHandler.StudentGrades)
				r.Get("/courses", courseHandler.StudentCourses)
				r.Get("/statistics", gradeHandler.StudentStatistics)
			})

			// Teachers
			r.With(teacherOnly).Get("/teachers/{id}/courses", courseHandler.TeacherCourses)

			// Courses
			r.Route("/courses/{id}", func(r chi.Router) {
				r.Get("/", courseHandler.GetCourse)
				r.Get("/statistics", gradeHandler.CourseStatistics)

				r.Group(func(r chi.Router) {
					r.Use(teacherOnly)
					r.Post("/grades", gradeHandler.AddGrade)
					r.Get("/grades/export", gradeHandler.ExportCourseGrades)
					r.Get("/students", courseHandler.Roster)
				})
			})

			// Admin Management
			r.Route("/admin", func(r chi.Router) {
				r.Use(adminOnly)

				// Users
				r.Get("/students", adminHandler.ListStudents)
				r.Post("/students", adminHandler.CreateStudent)
				r.Get("/teachers", adminHandler.ListTeachers)
				r.Post("/teachers", adminHandler.CreateTeacher)
				r.Delete("/users/{type}/{id}", adminHandler.DeleteUser)

				// Courses
				r.Post("/courses", adminHandler.CreateCourse)
				r.Get("/courses/{id}/students", adminHandler.CourseStudents)
				r.Delete("/courses/{id}", adminHandler.DeleteCourse)

				// Enrollment
				r.Post("/enroll", adminHandler.Enroll)
			})
		})
	})

	return r
}

func healthHandler(pinger ops.Pinger, rs *util.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := pinger.Ping(ctx); err != nil {
			rs.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		rs.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
