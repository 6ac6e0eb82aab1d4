package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/noah-isme/attendance-portal/internal/dto"
	"github.com/noah-isme/attendance-portal/internal/models"
	"github.com/noah-isme/attendance-portal/pkg/appwrite"
)

// StudentDashboardService assembles the student landing view.
type StudentDashboardService interface {
	GetDashboard(ctx context.Context, identity models.Identity) (dto.StudentDashboardResponse, error)
}

type studentDashboardService struct {
	students StudentService
	logger   zerolog.Logger
}

// NewStudentDashboardService builds the dashboard service.
func NewStudentDashboardService(students StudentService, logger zerolog.Logger) StudentDashboardService {
	return &studentDashboardService{
		students: students,
		logger:   logger.With().Str("component", "student_dashboard_service").Logger(),
	}
}

func (s *studentDashboardService) GetDashboard(ctx context.Context, identity models.Identity) (dto.StudentDashboardResponse, error) {
	response := dto.StudentDashboardResponse{User: dto.NewIdentityResponse(identity)}

	profile, err := s.students.GetByUserID(ctx, identity.ID)
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}
	if profile == nil {
		s.logger.Debug().Str("user_id", identity.ID).Msg("no student profile linked")
		return response, nil
	}

	fields := profile.Fields
	if fields == nil {
		fields = map[string]interface{}{}
	}
	response.Profile = &dto.StudentProfileSummary{
		DocumentID: profile.ID,
		UserID:     profile.UserID,
		Fields:     fields,
	}
	response.PermissionsActivated = profile.HasUserGrant(identity.ID, appwrite.ActionRead)
	return response, nil
}
