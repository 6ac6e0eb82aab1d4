package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/attendance-portal/internal/dto"
	"github.com/noah-isme/attendance-portal/internal/service"
	"github.com/noah-isme/attendance-portal/internal/utils"
)

// AttendanceHandler exposes attendance record endpoints for staff.
type AttendanceHandler struct {
	service service.AttendanceService
	logger  zerolog.Logger
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(service service.AttendanceService, logger zerolog.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		service: service,
		logger:  logger.With().Str("component", "attendance_handler").Logger(),
	}
}

// Register attaches attendance routes to the router group.
func (h *AttendanceHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
}

func (h *AttendanceHandler) list(c *fiber.Ctx) error {
	records, err := h.service.List(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err, "failed to fetch attendance records")
	}

	return utils.OK(c, records, "attendance records", fiber.Map{"total": len(records)})
}

func (h *AttendanceHandler) create(c *fiber.Ctx) error {
	var payload dto.AttendanceRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	record, err := h.service.Create(c.UserContext(), payload, activityActorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to create attendance")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "attendance created", record)
}

func (h *AttendanceHandler) update(c *fiber.Ctx) error {
	var payload dto.AttendanceRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	record, err := h.service.Update(c.UserContext(), c.Params("id"), payload, activityActorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to update attendance")
	}

	return utils.SendSuccess(c, "attendance updated", record)
}

func (h *AttendanceHandler) delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.Delete(c.UserContext(), id, activityActorFromContext(c)); err != nil {
		return respondError(c, h.logger, err, "failed to delete attendance")
	}

	return utils.SendSuccess(c, "attendance deleted", fiber.Map{"id": id})
}
