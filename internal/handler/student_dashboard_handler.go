package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/attendance-portal/internal/middleware"
	"github.com/noah-isme/attendance-portal/internal/service"
	"github.com/noah-isme/attendance-portal/internal/utils"
)

// StudentDashboardHandler exposes the student dashboard and self-service permission endpoints.
type StudentDashboardHandler struct {
	service     service.StudentDashboardService
	permissions service.PermissionService
	logger      zerolog.Logger
}

// NewStudentDashboardHandler creates a new handler instance.
func NewStudentDashboardHandler(service service.StudentDashboardService, permissions service.PermissionService, logger zerolog.Logger) *StudentDashboardHandler {
	return &StudentDashboardHandler{
		service:     service,
		permissions: permissions,
		logger:      logger.With().Str("component", "student_dashboard_handler").Logger(),
	}
}

// Register attaches the student endpoints.
func (h *StudentDashboardHandler) Register(router fiber.Router) {
	router.Get("/dashboard", h.getDashboard)
	router.Post("/permissions/activate", h.activatePermissions)
}

func (h *StudentDashboardHandler) getDashboard(c *fiber.Ctx) error {
	identity := middleware.CurrentIdentity(c)
	if identity == nil {
		return utils.SendError(c, fiber.StatusUnauthorized, "missing user context")
	}

	dashboard, err := h.service.GetDashboard(c.UserContext(), *identity)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load dashboard")
	}

	return utils.SendSuccess(c, "dashboard retrieved", dashboard)
}

func (h *StudentDashboardHandler) activatePermissions(c *fiber.Ctx) error {
	identity := middleware.CurrentIdentity(c)
	if identity == nil {
		return utils.SendError(c, fiber.StatusUnauthorized, "missing user context")
	}

	result, err := h.permissions.ActivateOwn(c.UserContext(), *identity)
	if err != nil {
		return respondError(c, h.logger, err, "failed to activate permissions")
	}

	return utils.SendSuccess(c, "permissions activated", result)
}
