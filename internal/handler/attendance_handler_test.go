package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-portal/internal/apperror"
	"github.com/noah-isme/attendance-portal/internal/dto"
	"github.com/noah-isme/attendance-portal/internal/handler"
	"github.com/noah-isme/attendance-portal/internal/service"
	"github.com/noah-isme/attendance-portal/pkg/appwrite"
)

type stubAttendanceService struct {
	records   []dto.AttendanceResponse
	err       error
	lastReq   dto.AttendanceRequest
	lastID    string
	lastActor service.ActivityActor
}

func (s *stubAttendanceService) List(context.Context) ([]dto.AttendanceResponse, error) {
	return s.records, s.err
}

func (s *stubAttendanceService) Create(_ context.Context, req dto.AttendanceRequest, actor service.ActivityActor) (dto.AttendanceResponse, error) {
	s.lastReq = req
	s.lastActor = actor
	if s.err != nil {
		return dto.AttendanceResponse{}, s.err
	}
	return dto.AttendanceResponse{ID: "att_new", StudentID: string(req.StudentID), Status: req.Status}, nil
}

func (s *stubAttendanceService) Update(_ context.Context, id string, req dto.AttendanceRequest, actor service.ActivityActor) (dto.AttendanceResponse, error) {
	s.lastID = id
	s.lastReq = req
	s.lastActor = actor
	if s.err != nil {
		return dto.AttendanceResponse{}, s.err
	}
	return dto.AttendanceResponse{ID: id, StudentID: string(req.StudentID), Status: req.Status}, nil
}

func (s *stubAttendanceService) Delete(_ context.Context, id string, actor service.ActivityActor) error {
	s.lastID = id
	s.lastActor = actor
	return s.err
}

var _ service.AttendanceService = (*stubAttendanceService)(nil)

func newAttendanceApp(svc service.AttendanceService) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1/attendance", withIdentity(teacherIdentity))
	handler.NewAttendanceHandler(svc, zerolog.Nop()).Register(group)
	return app
}

func TestAttendanceHandler_List(t *testing.T) {
	svc := &stubAttendanceService{records: []dto.AttendanceResponse{{ID: "t3"}, {ID: "t2"}, {ID: "t1"}}}
	app := newAttendanceApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/attendance", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	payload := decodeEnvelope(t, resp)
	var records []dto.AttendanceResponse
	decodeData(t, payload, &records)
	require.Len(t, records, 3)
	require.Equal(t, "t3", records[0].ID)
	require.EqualValues(t, 3, payload.Meta["total"])
}

func TestAttendanceHandler_CreateAcceptsExpandedStudent(t *testing.T) {
	svc := &stubAttendanceService{}
	app := newAttendanceApp(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance", jsonBody(`{"Student_Id":{"$id":"stu_1","name":"Asha"},"Status":"present"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	require.Equal(t, dto.StudentRef("stu_1"), svc.lastReq.StudentID)
	require.Equal(t, "u_teacher", svc.lastActor.ID)
	require.Equal(t, "teacher", svc.lastActor.Role)
}

func TestAttendanceHandler_CreateUnknownStudentIsBadRequest(t *testing.T) {
	svc := &stubAttendanceService{
		err: apperror.Wrap(apperror.KindValidation, "failed to create attendance", apperror.NotFound("student %s not found", "stu_9")),
	}
	app := newAttendanceApp(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance", jsonBody(`{"Student_Id":"stu_9","Status":"present"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	payload := decodeEnvelope(t, resp)
	require.Equal(t, "failed to create attendance: student stu_9 not found", payload.Message)
}

func TestAttendanceHandler_UpdatePassesID(t *testing.T) {
	svc := &stubAttendanceService{}
	app := newAttendanceApp(svc)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/attendance/att_7", jsonBody(`{"Student_Id":"stu_1","Status":"late"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "att_7", svc.lastID)
	require.Equal(t, "late", svc.lastReq.Status)
}

func TestAttendanceHandler_DeleteStatusMapping(t *testing.T) {
	notFound := &appwrite.Error{Code: http.StatusNotFound, Message: "Document with the requested ID could not be found."}
	svc := &stubAttendanceService{err: apperror.Backend("failed to delete attendance", notFound)}
	app := newAttendanceApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/api/v1/attendance/missing", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	payload := decodeEnvelope(t, resp)
	require.Equal(t, "failed to delete attendance: Document with the requested ID could not be found.", payload.Message)

	svc.err = apperror.Backend("failed to delete attendance", &appwrite.Error{Code: http.StatusInternalServerError, Message: "boom"})
	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/api/v1/attendance/att_1", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadGateway, resp.StatusCode)

	svc.err = errors.New("unexpected")
	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/api/v1/attendance/att_1", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, "failed to delete attendance", decodeEnvelope(t, resp).Message)
}
