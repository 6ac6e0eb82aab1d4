package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/attendance-portal/internal/apperror"
	"github.com/noah-isme/attendance-portal/internal/dto"
	"github.com/noah-isme/attendance-portal/internal/models"
	"github.com/noah-isme/attendance-portal/internal/observability"
	"github.com/noah-isme/attendance-portal/internal/repository"
	"github.com/noah-isme/attendance-portal/pkg/appwrite"
)

// PermissionService grants students access to their own profile documents.
type PermissionService interface {
	SetStudentPermissions(ctx context.Context, documentID, userID string) (dto.PermissionActivationResponse, error)
	ListStudentUserIDs(ctx context.Context) ([]models.StudentUserID, error)
	ActivateOwn(ctx context.Context, identity models.Identity) (dto.PermissionActivationResponse, error)
	ActivateDocument(ctx context.Context, documentID string, actor ActivityActor) (dto.PermissionActivationResponse, error)
}

type permissionService struct {
	repo     repository.StudentRepository
	students StudentService
	activity ActivityRecorder
	tracer   trace.Tracer
	logger   zerolog.Logger
}

// NewPermissionService constructs the permission activation service.
func NewPermissionService(repo repository.StudentRepository, students StudentService, activity ActivityRecorder, logger zerolog.Logger) PermissionService {
	return &permissionService{
		repo:     repo,
		students: students,
		activity: activity,
		tracer:   otel.Tracer("github.com/noah-isme/attendance-portal/internal/service/permission"),
		logger:   logger.With().Str("component", "permission_service").Logger(),
	}
}

// SetStudentPermissions replaces the document ACL with read and update grants for userID only.
// Inputs are checked before any backend call.
func (s *permissionService) SetStudentPermissions(ctx context.Context, documentID, userID string) (dto.PermissionActivationResponse, error) {
	ctx, span := s.tracer.Start(ctx, "permissions.set")
	defer span.End()

	if strings.TrimSpace(documentID) == "" || !appwrite.ValidID(documentID) {
		span.SetStatus(codes.Error, "validation_failed")
		return dto.PermissionActivationResponse{}, apperror.Validation("invalid document id: %q", documentID)
	}
	if strings.TrimSpace(userID) == "" || userID == models.MissingUserID || !appwrite.ValidID(userID) {
		span.SetStatus(codes.Error, "validation_failed")
		return dto.PermissionActivationResponse{}, apperror.Validation("invalid user id: %q", userID)
	}
	span.SetAttributes(
		attribute.String("student.document_id", documentID),
		attribute.String("student.user_id", userID),
	)

	grants := []appwrite.Permission{
		appwrite.Read(appwrite.RoleUser(userID)),
		appwrite.Update(appwrite.RoleUser(userID)),
	}

	started := time.Now()
	profile, err := s.repo.ReplacePermissions(ctx, documentID, grants)
	observability.ObserveBackendCall("documents.update", started, &err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update_failed")
		return dto.PermissionActivationResponse{}, apperror.Backend("failed to set student permissions", err)
	}

	s.logger.Info().Str("document_id", documentID).Str("user_id", userID).Msg("student permissions set")
	return dto.PermissionActivationResponse{
		DocumentID:  profile.ID,
		UserID:      userID,
		Permissions: appwrite.FormatPermissions(grants),
	}, nil
}

// ListStudentUserIDs reports every profile newest first. Profiles without an owner carry the missing-user marker.
func (s *permissionService) ListStudentUserIDs(ctx context.Context) ([]models.StudentUserID, error) {
	ctx, span := s.tracer.Start(ctx, "permissions.list_user_ids")
	defer span.End()

	started := time.Now()
	profiles, err := s.repo.List(ctx)
	observability.ObserveBackendCall("documents.list", started, &err)
	if err != nil {
		span.RecordError(err)
		return nil, apperror.Backend("failed to list student user ids", err)
	}

	result := make([]models.StudentUserID, 0, len(profiles))
	for _, profile := range profiles {
		userID := profile.UserID
		if userID == "" {
			userID = models.MissingUserID
		}
		result = append(result, models.StudentUserID{DocumentID: profile.ID, UserID: userID})
	}
	return result, nil
}

func (s *permissionService) ActivateOwn(ctx context.Context, identity models.Identity) (dto.PermissionActivationResponse, error) {
	actor := ActorFromIdentity(identity)

	profile, err := s.students.GetByUserID(ctx, identity.ID)
	if err != nil {
		observability.PermissionActivations().WithLabelValues(observability.OutcomeFailure).Inc()
		return dto.PermissionActivationResponse{}, err
	}
	if profile == nil {
		observability.PermissionActivations().WithLabelValues(observability.OutcomeFailure).Inc()
		return dto.PermissionActivationResponse{}, apperror.NotFound("no student profile found for user %s", identity.ID)
	}
	if profile.UserID != identity.ID {
		observability.PermissionActivations().WithLabelValues(observability.OutcomeDenied).Inc()
		return dto.PermissionActivationResponse{}, apperror.AccessDenied("student profile %s is not owned by the current user", profile.ID)
	}

	return s.activate(ctx, profile.ID, profile.UserID, actor)
}

// ActivateDocument applies the grant to any profile using the profile's own owner.
func (s *permissionService) ActivateDocument(ctx context.Context, documentID string, actor ActivityActor) (dto.PermissionActivationResponse, error) {
	profile, err := s.students.Get(ctx, documentID)
	if err != nil {
		observability.PermissionActivations().WithLabelValues(observability.OutcomeFailure).Inc()
		return dto.PermissionActivationResponse{}, err
	}

	userID := profile.UserID
	if userID == "" {
		userID = models.MissingUserID
	}
	return s.activate(ctx, profile.ID, userID, actor)
}

func (s *permissionService) activate(ctx context.Context, documentID, userID string, actor ActivityActor) (dto.PermissionActivationResponse, error) {
	response, err := s.SetStudentPermissions(ctx, documentID, userID)
	if err != nil {
		observability.PermissionActivations().WithLabelValues(observability.OutcomeFailure).Inc()
		return dto.PermissionActivationResponse{}, err
	}

	s.students.Invalidate(ctx, userID)
	observability.PermissionActivations().WithLabelValues(observability.OutcomeSuccess).Inc()
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "student.permissions_activated",
		EntityType: "student",
		EntityID:   documentID,
		Metadata:   map[string]interface{}{"user_id": userID},
	})
	return response, nil
}
