package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/attendance-portal/internal/config"
	"github.com/noah-isme/attendance-portal/internal/handler"
	"github.com/noah-isme/attendance-portal/internal/middleware"
	"github.com/noah-isme/attendance-portal/internal/models"
	"github.com/noah-isme/attendance-portal/internal/observability"
)

// Portal paths.
const (
	StudentLoginPath = "/api/v1/auth/student/login"
	TeacherLoginPath = "/api/v1/auth/teacher/login"
	StudentHomePath  = "/api/v1/student/dashboard"
	TeacherHomePath  = "/api/v1/attendance"
)

// Portals lists the login surfaces served by the API.
func Portals() []handler.Portal {
	return []handler.Portal{
		{Role: models.RoleStudent, LoginPath: StudentLoginPath, HomePath: StudentHomePath},
		{Role: models.RoleTeacher, LoginPath: TeacherLoginPath, HomePath: TeacherHomePath},
	}
}

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	Identity                middleware.IdentityResolver
	AuthHandler             *handler.AuthHandler
	StudentDashboardHandler *handler.StudentDashboardHandler
	AttendanceHandler       *handler.AttendanceHandler
	AdminStudentHandler     *handler.AdminStudentHandler
	AdminActivityHandler    *handler.AdminActivityHandler
	HealthProbes            []handler.HealthProbe
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get(observability.MetricsPath, observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes...))

	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(api.Group("/auth"))
	}

	studentOnly := middleware.RequireRole(deps.Identity, StudentLoginPath, models.RoleStudent)
	staffOnly := middleware.RequireRole(deps.Identity, TeacherLoginPath, models.RoleTeacher, models.RoleAdmin)

	if deps.StudentDashboardHandler != nil {
		deps.StudentDashboardHandler.Register(api.Group("/student", studentOnly))
	}

	if deps.AttendanceHandler != nil {
		deps.AttendanceHandler.Register(api.Group("/attendance", staffOnly))
	}

	admin := api.Group("/admin", staffOnly)
	if deps.AdminStudentHandler != nil {
		deps.AdminStudentHandler.Register(admin.Group("/students"))
	}
	if deps.AdminActivityHandler != nil {
		deps.AdminActivityHandler.Register(admin.Group("/activity"))
	}
}
