package handler

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/attendance-portal/internal/dto"
	"github.com/noah-isme/attendance-portal/internal/service"
	"github.com/noah-isme/attendance-portal/internal/utils"
)

// AdminActivityHandler exposes the portal audit trail.
type AdminActivityHandler struct {
	service service.ActivityService
	logger  zerolog.Logger
}

// NewAdminActivityHandler constructs the handler.
func NewAdminActivityHandler(service service.ActivityService, logger zerolog.Logger) *AdminActivityHandler {
	return &AdminActivityHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_activity_handler").Logger(),
	}
}

// Register attaches activity log routes to the router group.
func (h *AdminActivityHandler) Register(router fiber.Router) {
	router.Get("", h.list)
}

func (h *AdminActivityHandler) list(c *fiber.Ctx) error {
	req, message := parseActivityListRequest(c)
	if message != "" {
		return utils.SendError(c, fiber.StatusBadRequest, message)
	}

	response, err := h.service.List(c.UserContext(), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list activity logs")
	}

	return utils.SendSuccess(c, "activity logs", response)
}

// parseActivityListRequest reads paging, equality filters and an RFC 3339 from/to window. A non-empty
// message reports the first malformed parameter.
func parseActivityListRequest(c *fiber.Ctx) (dto.AdminActivityListRequest, string) {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return dto.AdminActivityListRequest{}, "invalid page"
	}

	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return dto.AdminActivityListRequest{}, "invalid page size"
	}
	switch {
	case pageSize <= 0:
		pageSize = 25
	case pageSize > 200:
		pageSize = 200
	}

	req := dto.AdminActivityListRequest{
		Page:       max(page, 1),
		PageSize:   pageSize,
		ActorID:    c.Query("actor_id"),
		ActorRole:  c.Query("actor_role"),
		Action:     c.Query("action"),
		EntityType: c.Query("entity_type"),
		EntityID:   c.Query("entity_id"),
	}

	for _, bound := range []struct {
		param  string
		target *time.Time
	}{
		{"from", &req.From},
		{"to", &req.Until},
	} {
		raw := strings.TrimSpace(c.Query(bound.param))
		if raw == "" {
			continue
		}
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return dto.AdminActivityListRequest{}, "invalid " + bound.param + " timestamp"
		}
		*bound.target = parsed.UTC()
	}

	return req, ""
}
