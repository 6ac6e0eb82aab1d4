package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/attendance-portal/internal/apperror"
	"github.com/noah-isme/attendance-portal/internal/middleware"
	"github.com/noah-isme/attendance-portal/internal/service"
	"github.com/noah-isme/attendance-portal/internal/utils"
	"github.com/noah-isme/attendance-portal/pkg/appwrite"
)

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func activityActorFromContext(c *fiber.Ctx) service.ActivityActor {
	if identity := middleware.CurrentIdentity(c); identity != nil {
		return service.ActorFromIdentity(*identity)
	}
	return service.ActivityActor{}
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := middleware.RequestLogger(base, c)
	return &logger
}

// statusForError maps an error kind onto the HTTP status returned to callers.
func statusForError(err error) int {
	switch apperror.KindOf(err) {
	case apperror.KindNotFound:
		return fiber.StatusNotFound
	case apperror.KindValidation:
		return fiber.StatusBadRequest
	case apperror.KindAccessDenied:
		return fiber.StatusForbidden
	case apperror.KindBackend:
		switch {
		case appwrite.IsNotFound(err):
			return fiber.StatusNotFound
		case appwrite.IsUnauthorized(err):
			return fiber.StatusUnauthorized
		}
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes err using the error envelope. Unclassified errors are hidden behind fallback.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error, fallback string) error {
	status := statusForError(err)
	log := requestLogger(logger, c)

	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Int("status", status).Msg(fallback)
	} else {
		log.Debug().Err(err).Int("status", status).Msg("request rejected")
	}

	if status == fiber.StatusInternalServerError {
		return utils.SendError(c, status, fallback)
	}
	return utils.Fail(c, status, err.Error(), validationDetails(err))
}

func validationDetails(err error) interface{} {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	details := make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		details[fieldErr.Field()] = fieldErr.Tag()
	}
	return details
}
