package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/attendance-portal/internal/apperror"
	"github.com/noah-isme/attendance-portal/internal/dto"
	"github.com/noah-isme/attendance-portal/internal/models"
	"github.com/noah-isme/attendance-portal/internal/observability"
	"github.com/noah-isme/attendance-portal/pkg/appwrite"
)

// AccountGateway is the subset of the backend account API used for sessions.
type AccountGateway interface {
	CreateEmailPasswordSession(ctx context.Context, email, password string) (appwrite.Session, error)
	Get(ctx context.Context, secret string) (appwrite.User, error)
	DeleteSession(ctx context.Context, secret, sessionID string) error
}

var _ AccountGateway = (*appwrite.Account)(nil)

// AuthService manages backend sessions for the role-specific portals.
type AuthService interface {
	Login(ctx context.Context, role, staleSecret, email, password string) (models.Session, models.Identity, error)
	CurrentUser(ctx context.Context, secret string) *models.Identity
	Logout(ctx context.Context, secret string)
}

type authService struct {
	account   AccountGateway
	validator *validator.Validate
	activity  ActivityRecorder
	logger    zerolog.Logger
}

// NewAuthService constructs the auth service.
func NewAuthService(account AccountGateway, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) AuthService {
	return &authService{
		account:   account,
		validator: validate,
		activity:  activity,
		logger:    logger.With().Str("component", "auth_service").Logger(),
	}
}

// Login replaces any stale session, opens a new one and keeps it only when the identity holds role.
func (s *authService) Login(ctx context.Context, role, staleSecret, email, password string) (models.Session, models.Identity, error) {
	role = models.NormalizeRole(role)
	if role == "" {
		return models.Session{}, models.Identity{}, apperror.Validation("login role is required")
	}

	request := dto.LoginRequest{Email: strings.TrimSpace(email), Password: password}
	if err := s.validator.Struct(request); err != nil {
		observability.LoginAttempts().WithLabelValues(role, observability.OutcomeFailure).Inc()
		return models.Session{}, models.Identity{}, apperror.Wrap(apperror.KindValidation, "invalid credentials payload", err)
	}

	if staleSecret != "" {
		if err := s.deleteSession(ctx, staleSecret); err != nil {
			s.logger.Debug().Err(err).Msg("no stale session to clear before login")
		}
	}

	started := time.Now()
	backendSession, err := s.account.CreateEmailPasswordSession(ctx, request.Email, request.Password)
	observability.ObserveBackendCall("account.create_session", started, &err)
	if err != nil {
		observability.LoginAttempts().WithLabelValues(role, observability.OutcomeFailure).Inc()
		return models.Session{}, models.Identity{}, apperror.Backend("login failed", err)
	}

	started = time.Now()
	user, err := s.account.Get(ctx, backendSession.Secret)
	observability.ObserveBackendCall("account.get", started, &err)
	if err != nil {
		s.discardSession(ctx, backendSession.Secret)
		observability.LoginAttempts().WithLabelValues(role, observability.OutcomeFailure).Inc()
		return models.Session{}, models.Identity{}, apperror.Backend("login failed", err)
	}

	identity := models.NewIdentity(user)
	if !identity.HasRole(role) {
		s.discardSession(ctx, backendSession.Secret)
		observability.LoginAttempts().WithLabelValues(role, observability.OutcomeDenied).Inc()
		recordActivity(ctx, s.activity, s.logger, ActivityEntry{
			ActorID:    identity.ID,
			ActorRole:  identity.PrimaryRole(),
			Action:     "auth.login_denied",
			EntityType: "session",
			Metadata:   map[string]interface{}{"portal": role, "email": request.Email},
		})
		return models.Session{}, models.Identity{}, apperror.AccessDenied("Access denied. Only %ss can log in here.", role)
	}

	observability.LoginAttempts().WithLabelValues(role, observability.OutcomeSuccess).Inc()
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    identity.ID,
		ActorRole:  role,
		Action:     "auth.login",
		EntityType: "session",
		EntityID:   backendSession.ID,
	})

	session := models.Session{
		Secret: backendSession.Secret,
		UserID: identity.ID,
		Expire: parseExpire(backendSession.Expire),
	}
	return session, identity, nil
}

// CurrentUser returns nil when there is no secret or the backend no longer accepts it.
func (s *authService) CurrentUser(ctx context.Context, secret string) *models.Identity {
	if strings.TrimSpace(secret) == "" {
		return nil
	}

	started := time.Now()
	user, err := s.account.Get(ctx, secret)
	observability.ObserveBackendCall("account.get", started, &err)
	if err != nil {
		if !appwrite.IsUnauthorized(err) {
			s.logger.Warn().Err(err).Msg("failed to resolve current user")
		}
		return nil
	}

	identity := models.NewIdentity(user)
	return &identity
}

func (s *authService) Logout(ctx context.Context, secret string) {
	if err := s.deleteSession(ctx, secret); err != nil {
		s.logger.Warn().Err(err).Msg("logout failed")
	}
}

func (s *authService) discardSession(ctx context.Context, secret string) {
	if err := s.deleteSession(ctx, secret); err != nil {
		s.logger.Warn().Err(err).Msg("failed to discard rejected session")
	}
}

func (s *authService) deleteSession(ctx context.Context, secret string) (err error) {
	if strings.TrimSpace(secret) == "" {
		return fmt.Errorf("no active session")
	}
	defer observability.ObserveBackendCall("account.delete_session", time.Now(), &err)
	return s.account.DeleteSession(ctx, secret, appwrite.CurrentSession)
}

func parseExpire(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
