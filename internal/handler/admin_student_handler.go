package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/attendance-portal/internal/dto"
	"github.com/noah-isme/attendance-portal/internal/service"
	"github.com/noah-isme/attendance-portal/internal/utils"
)

// AdminStudentHandler wires staff-facing student profile endpoints.
type AdminStudentHandler struct {
	service service.PermissionService
	logger  zerolog.Logger
}

// NewAdminStudentHandler constructs the handler.
func NewAdminStudentHandler(service service.PermissionService, logger zerolog.Logger) *AdminStudentHandler {
	return &AdminStudentHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_student_handler").Logger(),
	}
}

// Register attaches student admin routes to the router group.
func (h *AdminStudentHandler) Register(router fiber.Router) {
	router.Get("/user-ids", h.listUserIDs)
	router.Post("/:id/permissions", h.setPermissions)
}

func (h *AdminStudentHandler) listUserIDs(c *fiber.Ctx) error {
	items, err := h.service.ListStudentUserIDs(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err, "failed to list student user ids")
	}

	return utils.OK(c, items, "student user ids", fiber.Map{"total": len(items)})
}

// setPermissions grants the profile's owner access. An explicit userId in the body overrides the
// owner stored on the document.
func (h *AdminStudentHandler) setPermissions(c *fiber.Ctx) error {
	documentID := c.Params("id")

	var payload dto.StudentPermissionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}
	}

	var (
		result dto.PermissionActivationResponse
		err    error
	)
	if strings.TrimSpace(payload.UserID) != "" {
		result, err = h.service.SetStudentPermissions(c.UserContext(), documentID, payload.UserID)
	} else {
		result, err = h.service.ActivateDocument(c.UserContext(), documentID, activityActorFromContext(c))
	}
	if err != nil {
		return respondError(c, h.logger, err, "failed to set student permissions")
	}

	return utils.SendSuccess(c, "student permissions updated", result)
}
