package handler_test

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-portal/internal/middleware"
	"github.com/noah-isme/attendance-portal/internal/models"
)

type envelope struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    json.RawMessage        `json:"data"`
	Meta    map[string]interface{} `json:"meta"`
	Details map[string]interface{} `json:"details"`
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	defer resp.Body.Close()

	var payload envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return payload
}

func decodeData(t *testing.T, payload envelope, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(payload.Data, target))
}

func jsonBody(raw string) io.Reader {
	return strings.NewReader(raw)
}

// withIdentity stands in for the role guard.
func withIdentity(identity *models.Identity) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if identity != nil {
			c.Locals(middleware.LocalIdentity, identity)
			c.Locals(middleware.LocalUserID, identity.ID)
			c.Locals(middleware.LocalUserRole, identity.PrimaryRole())
		}
		return c.Next()
	}
}

var (
	studentIdentity = &models.Identity{ID: "u_student", Name: "Asha", Email: "asha@example.com", Roles: []string{"student"}}
	teacherIdentity = &models.Identity{ID: "u_teacher", Name: "Budi", Email: "budi@example.com", Roles: []string{"teacher"}}
)
