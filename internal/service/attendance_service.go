package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
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
)

// AttendanceService manages attendance records on behalf of staff.
type AttendanceService interface {
	List(ctx context.Context) ([]dto.AttendanceResponse, error)
	Create(ctx context.Context, req dto.AttendanceRequest, actor ActivityActor) (dto.AttendanceResponse, error)
	Update(ctx context.Context, id string, req dto.AttendanceRequest, actor ActivityActor) (dto.AttendanceResponse, error)
	Delete(ctx context.Context, id string, actor ActivityActor) error
}

type attendanceService struct {
	repo      repository.AttendanceRepository
	students  StudentService
	validator *validator.Validate
	activity  ActivityRecorder
	events    AttendanceEventPublisher
	sanitizer *bluemonday.Policy
	tracer    trace.Tracer
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAttendanceService constructs the attendance service. activity and events are optional.
func NewAttendanceService(repo repository.AttendanceRepository, students StudentService, validate *validator.Validate, activity ActivityRecorder, events AttendanceEventPublisher, logger zerolog.Logger) AttendanceService {
	return &attendanceService{
		repo:      repo,
		students:  students,
		validator: validate,
		activity:  activity,
		events:    events,
		sanitizer: bluemonday.StrictPolicy(),
		tracer:    otel.Tracer("github.com/noah-isme/attendance-portal/internal/service/attendance"),
		logger:    logger.With().Str("component", "attendance_service").Logger(),
		now:       time.Now,
	}
}

func (s *attendanceService) List(ctx context.Context) ([]dto.AttendanceResponse, error) {
	ctx, span := s.tracer.Start(ctx, "attendance.list")
	defer span.End()

	started := time.Now()
	records, err := s.repo.List(ctx)
	observability.ObserveBackendCall("documents.list", started, &err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list_failed")
		return nil, apperror.Backend("failed to fetch attendance records", err)
	}

	span.SetAttributes(attribute.Int("attendance.count", len(records)))
	return dto.NewAttendanceResponseSlice(records), nil
}

func (s *attendanceService) Create(ctx context.Context, req dto.AttendanceRequest, actor ActivityActor) (dto.AttendanceResponse, error) {
	const op = "failed to create attendance"

	ctx, span := s.tracer.Start(ctx, "attendance.create")
	defer span.End()

	req = s.normalize(req)
	if req.StudentID == "" {
		span.SetStatus(codes.Error, "validation_failed")
		return dto.AttendanceResponse{}, apperror.Wrap(apperror.KindValidation, op, apperror.Validation("student id is required"))
	}
	span.SetAttributes(attribute.String("attendance.student_id", string(req.StudentID)))

	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.AttendanceResponse{}, apperror.Wrap(apperror.KindValidation, op, err)
	}

	if err := s.ensureStudent(ctx, string(req.StudentID), op); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "student_lookup_failed")
		return dto.AttendanceResponse{}, err
	}

	record := s.toRecord(req)
	if record.MarkedBy == "" {
		record.MarkedBy = actor.ID
	}
	if record.MarkedAt.IsZero() {
		record.MarkedAt = s.now().UTC()
	}

	started := time.Now()
	created, err := s.repo.Create(ctx, record)
	observability.ObserveBackendCall("documents.create", started, &err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create_failed")
		return dto.AttendanceResponse{}, apperror.Backend(op, err)
	}

	response := dto.NewAttendanceResponse(created)
	s.afterMutation(ctx, actor, AttendanceEventCreated, created.ID, &response)
	return response, nil
}

func (s *attendanceService) Update(ctx context.Context, id string, req dto.AttendanceRequest, actor ActivityActor) (dto.AttendanceResponse, error) {
	const op = "failed to update attendance"

	ctx, span := s.tracer.Start(ctx, "attendance.update")
	defer span.End()

	id = strings.TrimSpace(id)
	if id == "" {
		return dto.AttendanceResponse{}, apperror.Validation("attendance id is required")
	}
	span.SetAttributes(attribute.String("attendance.id", id))

	req = s.normalize(req)
	if req.StudentID == "" {
		span.SetStatus(codes.Error, "validation_failed")
		return dto.AttendanceResponse{}, apperror.Validation("invalid student id provided for update")
	}

	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.AttendanceResponse{}, apperror.Wrap(apperror.KindValidation, op, err)
	}

	if err := s.ensureStudent(ctx, string(req.StudentID), op); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "student_lookup_failed")
		return dto.AttendanceResponse{}, err
	}

	started := time.Now()
	updated, err := s.repo.Update(ctx, id, s.toRecord(req))
	observability.ObserveBackendCall("documents.update", started, &err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update_failed")
		return dto.AttendanceResponse{}, apperror.Backend(op, err)
	}

	response := dto.NewAttendanceResponse(updated)
	s.afterMutation(ctx, actor, AttendanceEventUpdated, updated.ID, &response)
	return response, nil
}

// Delete removes the record without touching anything that references it.
func (s *attendanceService) Delete(ctx context.Context, id string, actor ActivityActor) error {
	ctx, span := s.tracer.Start(ctx, "attendance.delete")
	defer span.End()

	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.Validation("attendance id is required")
	}
	span.SetAttributes(attribute.String("attendance.id", id))

	started := time.Now()
	err := s.repo.Delete(ctx, id)
	observability.ObserveBackendCall("documents.delete", started, &err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete_failed")
		return apperror.Backend("failed to delete attendance", err)
	}

	s.afterMutation(ctx, actor, AttendanceEventDeleted, id, nil)
	return nil
}

func (s *attendanceService) ensureStudent(ctx context.Context, studentID, op string) error {
	if _, err := s.students.Get(ctx, studentID); err != nil {
		if apperror.IsKind(err, apperror.KindNotFound) || apperror.IsKind(err, apperror.KindValidation) {
			return apperror.Wrap(apperror.KindValidation, op, err)
		}
		return apperror.Wrap(apperror.KindBackend, op, err)
	}
	return nil
}

func (s *attendanceService) normalize(req dto.AttendanceRequest) dto.AttendanceRequest {
	req.StudentID = dto.StudentRef(strings.TrimSpace(string(req.StudentID)))
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	req.CourseID = strings.TrimSpace(s.sanitizer.Sanitize(req.CourseID))
	req.MarkedBy = strings.TrimSpace(s.sanitizer.Sanitize(req.MarkedBy))
	return req
}

// toRecord carries only what the caller supplied; unset optional attributes stay unset.
func (s *attendanceService) toRecord(req dto.AttendanceRequest) models.AttendanceRecord {
	record := models.AttendanceRecord{
		StudentID: string(req.StudentID),
		Status:    req.Status,
		CourseID:  req.CourseID,
		MarkedBy:  req.MarkedBy,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}
	if req.MarkedAt != nil {
		record.MarkedAt = req.MarkedAt.UTC()
	}
	return record
}

func (s *attendanceService) afterMutation(ctx context.Context, actor ActivityActor, eventType, id string, record *dto.AttendanceResponse) {
	metadata := map[string]interface{}{}
	if record != nil {
		metadata["student_id"] = record.StudentID
		metadata["status"] = record.Status
	}
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     eventType,
		EntityType: "attendance",
		EntityID:   id,
		Metadata:   metadata,
	})

	if s.events == nil {
		return
	}
	event := AttendanceEvent{
		Type:         eventType,
		AttendanceID: id,
		Record:       record,
		ActorID:      actor.ID,
		OccurredAt:   s.now().UTC(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("type", eventType).Msg("failed to publish attendance event")
	}
}
