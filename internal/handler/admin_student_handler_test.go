package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-portal/internal/apperror"
	"github.com/noah-isme/attendance-portal/internal/handler"
	"github.com/noah-isme/attendance-portal/internal/models"
)

func newAdminStudentApp(svc *stubPermissionService) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1/admin/students", withIdentity(teacherIdentity))
	handler.NewAdminStudentHandler(svc, zerolog.Nop()).Register(group)
	return app
}

func TestAdminStudentHandler_ListUserIDs(t *testing.T) {
	svc := &stubPermissionService{userIDs: []models.StudentUserID{
		{DocumentID: "stu_2", UserID: models.MissingUserID},
		{DocumentID: "stu_1", UserID: "u1"},
	}}
	app := newAdminStudentApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/admin/students/user-ids", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var items []models.StudentUserID
	decodeData(t, decodeEnvelope(t, resp), &items)
	require.Equal(t, models.MissingUserID, items[0].UserID)
	require.Equal(t, "u1", items[1].UserID)
}

func TestAdminStudentHandler_ExplicitUserID(t *testing.T) {
	svc := &stubPermissionService{}
	app := newAdminStudentApp(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/students/stu_1/permissions", jsonBody(`{"userId":"u1"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, 1, svc.setCalls)
	require.Equal(t, 0, svc.documentCalls)
	require.Equal(t, "stu_1", svc.lastDocument)
	require.Equal(t, "u1", svc.lastUserID)
}

func TestAdminStudentHandler_DocumentOwnerFallback(t *testing.T) {
	svc := &stubPermissionService{}
	app := newAdminStudentApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/admin/students/stu_1/permissions", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, 0, svc.setCalls)
	require.Equal(t, 1, svc.documentCalls)
	require.Equal(t, "u_teacher", svc.lastActor.ID)
}

func TestAdminStudentHandler_SentinelRejected(t *testing.T) {
	svc := &stubPermissionService{err: apperror.Validation("invalid user id: %q", models.MissingUserID)}
	app := newAdminStudentApp(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/students/stu_1/permissions", jsonBody(`{"userId":"No userId found"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, `invalid user id: "No userId found"`, decodeEnvelope(t, resp).Message)
}
