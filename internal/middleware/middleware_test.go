package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-portal/internal/middleware"
	"github.com/noah-isme/attendance-portal/internal/models"
	"github.com/noah-isme/attendance-portal/internal/repository"
)

type stubResolver struct {
	identities map[string]models.Identity
	calls      int
}

func (s *stubResolver) CurrentUser(_ context.Context, secret string) *models.Identity {
	s.calls++
	identity, ok := s.identities[secret]
	if !ok {
		return nil
	}
	return &identity
}

func newSessionStore(t *testing.T) (repository.SessionStore, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return repository.NewRedisSessionStore(client), server
}

func newTokens(t *testing.T) *middleware.SessionTokens {
	t.Helper()
	store, _ := newSessionStore(t)
	tokens, err := middleware.NewSessionTokens("test-secret", time.Hour, store)
	require.NoError(t, err)
	return tokens
}

func issue(t *testing.T, tokens *middleware.SessionTokens, secret, userID string) string {
	t.Helper()
	token, _, err := tokens.Issue(context.Background(), models.Session{Secret: secret, UserID: userID}, "")
	require.NoError(t, err)
	return token
}

func guardedApp(tokens *middleware.SessionTokens, resolver middleware.IdentityResolver, roles ...string) *fiber.App {
	app := fiber.New()
	app.Use(middleware.Session(tokens))
	app.Get("/student/dashboard", middleware.RequireRole(resolver, "/login/student", roles...), func(c *fiber.Ctx) error {
		identity := middleware.CurrentIdentity(c)
		return c.SendString(identity.ID)
	})
	return app
}

func TestSessionTokensRoundTrip(t *testing.T) {
	store, _ := newSessionStore(t)
	tokens, err := middleware.NewSessionTokens("test-secret", time.Hour, store)
	require.NoError(t, err)
	ctx := context.Background()
	expire := time.Now().Add(10 * time.Minute)

	token, expires, err := tokens.Issue(ctx, models.Session{Secret: "s1", UserID: "u1", Expire: expire}, "student")
	require.NoError(t, err)
	require.WithinDuration(t, expire, expires, time.Second)

	claims, secret, err := tokens.Resolve(ctx, token)
	require.NoError(t, err)
	require.Equal(t, "s1", secret)
	require.Equal(t, "u1", claims.Subject)
	require.NotEqual(t, "s1", claims.SessionID)

	other, err := middleware.NewSessionTokens("other-secret", time.Hour, store)
	require.NoError(t, err)
	_, err = other.Parse(token)
	require.Error(t, err)

	_, err = middleware.NewSessionTokens("", time.Hour, store)
	require.Error(t, err)
	_, err = middleware.NewSessionTokens("test-secret", time.Hour, nil)
	require.Error(t, err)
}

func TestSessionTokenDoesNotCarryBackendSecret(t *testing.T) {
	tokens := newTokens(t)
	token := issue(t, tokens, "backend-secret-value", "u1")

	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, claims)
	require.NoError(t, err)
	for key, value := range claims {
		require.NotEqual(t, "backend-secret-value", value, "claim %s leaks the backend secret", key)
	}
}

func TestRevokedSessionLeavesRequestAnonymous(t *testing.T) {
	store, server := newSessionStore(t)
	tokens, err := middleware.NewSessionTokens("test-secret", time.Hour, store)
	require.NoError(t, err)
	resolver := &stubResolver{identities: map[string]models.Identity{"s1": {ID: "u1", Roles: []string{"student"}}}}
	app := guardedApp(tokens, resolver, models.RoleStudent)
	token := issue(t, tokens, "s1", "u1")

	claims, err := tokens.Parse(token)
	require.NoError(t, err)
	require.True(t, server.Exists("portal:session:"+claims.SessionID))
	require.NoError(t, tokens.Revoke(context.Background(), claims.SessionID))
	require.False(t, server.Exists("portal:session:"+claims.SessionID))

	req := httptest.NewRequest(http.MethodGet, "/student/dashboard", nil)
	req.Header.Set("Accept", "application/json")
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: token})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	require.Zero(t, resolver.calls)
}

func TestRequireRoleAllowsStudentViaCookie(t *testing.T) {
	tokens := newTokens(t)
	resolver := &stubResolver{identities: map[string]models.Identity{"s1": {ID: "u1", Roles: []string{"student"}}}}
	app := guardedApp(tokens, resolver, models.RoleStudent)

	req := httptest.NewRequest(http.MethodGet, "/student/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: issue(t, tokens, "s1", "u1")})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, 1, resolver.calls)
}

func TestRequireRoleDeniesTeacherOnStudentRoute(t *testing.T) {
	tokens := newTokens(t)
	resolver := &stubResolver{identities: map[string]models.Identity{"s2": {ID: "t1", Roles: []string{"teacher"}}}}
	app := guardedApp(tokens, resolver, models.RoleStudent)

	req := httptest.NewRequest(http.MethodGet, "/student/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+issue(t, tokens, "s2", "t1"))
	req.Header.Set("Accept", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	var payload struct {
		Success bool              `json:"success"`
		Details map[string]string `json:"details"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	resp.Body.Close()
	require.False(t, payload.Success)
	require.Equal(t, "/login/student", payload.Details["redirect"])
}

func TestRequireRoleRedirectsBrowsers(t *testing.T) {
	tokens := newTokens(t)
	resolver := &stubResolver{}
	app := guardedApp(tokens, resolver, models.RoleStudent)

	req := httptest.NewRequest(http.MethodGet, "/student/dashboard", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,*/*;q=0.8")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/login/student", resp.Header.Get("Location"))
	require.Equal(t, 0, resolver.calls)
}

func TestRequireRoleRejectsRevokedSession(t *testing.T) {
	tokens := newTokens(t)
	resolver := &stubResolver{identities: map[string]models.Identity{}}
	app := guardedApp(tokens, resolver, models.RoleTeacher, models.RoleAdmin)

	req := httptest.NewRequest(http.MethodGet, "/student/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+issue(t, tokens, "gone", "t1"))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, 1, resolver.calls)
}

func TestRequireRoleAcceptsAdminOnStaffRoute(t *testing.T) {
	tokens := newTokens(t)
	resolver := &stubResolver{identities: map[string]models.Identity{"s3": {ID: "a1", Roles: []string{"admin"}}}}
	app := guardedApp(tokens, resolver, models.RoleTeacher, models.RoleAdmin)

	req := httptest.NewRequest(http.MethodGet, "/student/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+issue(t, tokens, "s3", "a1"))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestCorrelationIDEchoesIncomingHeader(t *testing.T) {
	app := fiber.New()
	app.Use(middleware.CorrelationID())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(middleware.CorrelationIDFromContext(c.UserContext()))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Correlation-ID", "abc-123")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, "abc-123", resp.Header.Get("X-Correlation-ID"))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Header.Get("X-Correlation-ID"))
}

func TestRateLimitRejectsAfterMax(t *testing.T) {
	app := fiber.New()
	app.Post("/login", middleware.RateLimit("login", 2, time.Minute), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil), -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}
