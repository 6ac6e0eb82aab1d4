package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/attendance-portal/internal/dto"
	"github.com/noah-isme/attendance-portal/internal/middleware"
	"github.com/noah-isme/attendance-portal/internal/service"
	"github.com/noah-isme/attendance-portal/internal/utils"
)

// Portal describes a role-specific login surface.
type Portal struct {
	Role      string
	LoginPath string
	HomePath  string
}

// AuthHandlerConfig carries the collaborators of the auth endpoints.
type AuthHandlerConfig struct {
	Tokens       *middleware.SessionTokens
	Portals      []Portal
	SecureCookie bool
	// LoginLimiter guards credential submission when set.
	LoginLimiter fiber.Handler
}

// AuthHandler exposes login, logout and identity endpoints.
type AuthHandler struct {
	service service.AuthService
	cfg     AuthHandlerConfig
	logger  zerolog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(service service.AuthService, cfg AuthHandlerConfig, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		cfg:     cfg,
		logger:  logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register attaches one login entry and submit route per portal plus the shared session routes.
func (h *AuthHandler) Register(router fiber.Router) {
	for _, portal := range h.cfg.Portals {
		path := "/" + portal.Role + "/login"
		router.Get(path, h.entry(portal))
		if h.cfg.LoginLimiter != nil {
			router.Post(path, h.cfg.LoginLimiter, h.login(portal))
		} else {
			router.Post(path, h.login(portal))
		}
	}
	router.Post("/logout", h.logout)
	router.Get("/me", h.me)
}

func (h *AuthHandler) entry(portal Portal) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity := middleware.ResolveIdentity(c, h.service)
		if identity == nil || !identity.HasRole(portal.Role) {
			return utils.SendSuccess(c, "login required", dto.LoginEntryResponse{Authenticated: false})
		}

		if middleware.WantsHTML(c) {
			return c.Redirect(portal.HomePath, fiber.StatusSeeOther)
		}
		return utils.SendSuccess(c, "already authenticated", dto.LoginEntryResponse{
			Authenticated: true,
			Redirect:      portal.HomePath,
		})
	}
}

func (h *AuthHandler) login(portal Portal) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var payload dto.LoginRequest
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}

		staleSecret := middleware.SessionSecret(c)
		if staleID := middleware.SessionID(c); staleID != "" {
			h.revoke(c, staleID)
		}
		session, identity, err := h.service.Login(c.UserContext(), portal.Role, staleSecret, payload.Email, payload.Password)
		if err != nil {
			if staleSecret != "" {
				middleware.ClearSessionCookie(c, h.cfg.SecureCookie)
			}
			return respondError(c, h.logger, err, "login failed")
		}

		token, expires, err := h.cfg.Tokens.Issue(c.UserContext(), session, portal.Role)
		if err != nil {
			h.service.Logout(c.UserContext(), session.Secret)
			requestLogger(h.logger, c).Error().Err(err).Str("user_id", identity.ID).Msg("failed to issue session token")
			return utils.SendError(c, fiber.StatusInternalServerError, "login failed")
		}

		middleware.SetSessionCookie(c, token, expires, h.cfg.SecureCookie)
		requestLogger(h.logger, c).Info().Str("user_id", identity.ID).Str("portal", portal.Role).Msg("login succeeded")
		return utils.SendSuccess(c, "login successful", dto.LoginResponse{
			ExpiresAt: expires,
			User:      dto.NewIdentityResponse(identity),
			Redirect:  portal.HomePath,
		})
	}
}

func (h *AuthHandler) logout(c *fiber.Ctx) error {
	if secret := middleware.SessionSecret(c); strings.TrimSpace(secret) != "" {
		h.service.Logout(c.UserContext(), secret)
	}
	h.revoke(c, middleware.SessionID(c))
	middleware.ClearSessionCookie(c, h.cfg.SecureCookie)
	return utils.SendSuccess(c, "logged out", nil)
}

func (h *AuthHandler) revoke(c *fiber.Ctx, sessionID string) {
	if err := h.cfg.Tokens.Revoke(c.UserContext(), sessionID); err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Msg("failed to revoke portal session")
	}
}

func (h *AuthHandler) me(c *fiber.Ctx) error {
	identity := middleware.ResolveIdentity(c, h.service)
	if identity == nil {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}
	return utils.SendSuccess(c, "current user", dto.NewIdentityResponse(*identity))
}
