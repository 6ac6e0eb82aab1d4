package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-portal/internal/config"
	"github.com/noah-isme/attendance-portal/internal/dto"
	"github.com/noah-isme/attendance-portal/internal/handler"
	"github.com/noah-isme/attendance-portal/internal/service"
)

type stubActivityService struct {
	lastReq dto.AdminActivityListRequest
}

func (s *stubActivityService) Record(context.Context, service.ActivityEntry) (dto.AdminActivityResponse, error) {
	return dto.AdminActivityResponse{}, nil
}

func (s *stubActivityService) List(_ context.Context, req dto.AdminActivityListRequest) (dto.AdminActivityListResponse, error) {
	s.lastReq = req
	return dto.AdminActivityListResponse{
		Items:      []dto.AdminActivityResponse{{ID: 1, Action: "attendance.created"}},
		Pagination: dto.PaginationMeta{Page: req.Page, PageSize: req.PageSize, TotalItems: 1, TotalPages: 1},
	}, nil
}

var _ service.ActivityService = (*stubActivityService)(nil)

func TestAdminActivityHandler_ListFilters(t *testing.T) {
	svc := &stubActivityService{}
	app := fiber.New()
	handler.NewAdminActivityHandler(svc, zerolog.Nop()).Register(app.Group("/api/v1/admin/activity"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/activity?page=2&page_size=500&actor_id=u_teacher&action=attendance.created&entity_type=attendance", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.Equal(t, 2, svc.lastReq.Page)
	require.Equal(t, 200, svc.lastReq.PageSize)
	require.Equal(t, "u_teacher", svc.lastReq.ActorID)
	require.Equal(t, "attendance.created", svc.lastReq.Action)
	require.Equal(t, "attendance", svc.lastReq.EntityType)

	var list dto.AdminActivityListResponse
	decodeData(t, decodeEnvelope(t, resp), &list)
	require.Len(t, list.Items, 1)
}

func TestAdminActivityHandler_TimeWindow(t *testing.T) {
	svc := &stubActivityService{}
	app := fiber.New()
	handler.NewAdminActivityHandler(svc, zerolog.Nop()).Register(app.Group("/api/v1/admin/activity"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/activity?actor_role=teacher&from=2026-03-01T00:00:00Z&to=2026-03-02T07:00:00%2B07:00", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.Equal(t, "teacher", svc.lastReq.ActorRole)
	require.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), svc.lastReq.From)
	require.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), svc.lastReq.Until)
	require.Equal(t, 1, svc.lastReq.Page)
	require.Equal(t, 25, svc.lastReq.PageSize)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/admin/activity?to=yesterday", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "invalid to timestamp", decodeEnvelope(t, resp).Message)
}

func TestAdminActivityHandler_InvalidPage(t *testing.T) {
	app := fiber.New()
	handler.NewAdminActivityHandler(&stubActivityService{}, zerolog.Nop()).Register(app.Group("/api/v1/admin/activity"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/admin/activity?page=abc", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHealthCheckReportsProbes(t *testing.T) {
	cfg := config.Config{AppName: "Attendance Portal API", AppEnv: "test"}
	app := fiber.New()
	app.Get("/health", handler.HealthCheck(cfg, handler.HealthProbe{
		Name:  "audit_store",
		Check: func(context.Context) error { return nil },
	}))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var health handler.HealthResponse
	decodeData(t, decodeEnvelope(t, resp), &health)
	require.Equal(t, "ok", health.Status)
	require.Equal(t, "ok", health.Checks["audit_store"])
}

func TestHealthCheckDegraded(t *testing.T) {
	app := fiber.New()
	app.Get("/health", handler.HealthCheck(config.Config{}, handler.HealthProbe{
		Name:  "cache",
		Check: func(context.Context) error { return context.DeadlineExceeded },
	}))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}
