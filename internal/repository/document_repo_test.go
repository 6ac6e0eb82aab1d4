package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-portal/internal/models"
	"github.com/noah-isme/attendance-portal/internal/testutil"
	"github.com/noah-isme/attendance-portal/pkg/appwrite"
)

var (
	studentCollection    = Collection{DatabaseID: "main", CollectionID: "students"}
	attendanceCollection = Collection{DatabaseID: "main", CollectionID: "attendance"}
)

func TestAttendanceRepositoryListsNewestFirst(t *testing.T) {
	backend := testutil.NewMemoryBackend()
	repo := NewAttendanceRepository(backend, attendanceCollection)
	ctx := context.Background()

	for _, status := range []string{"present", "late", "absent"} {
		_, err := repo.Create(ctx, models.AttendanceRecord{StudentID: "stu_1", Status: status})
		require.NoError(t, err)
	}

	records, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, "absent", records[0].Status, "expected newest record first")
	require.Equal(t, "present", records[2].Status)
	require.True(t, records[0].CreatedAt.After(records[1].CreatedAt))
}

func TestAttendanceRepositoryUpdateAndDelete(t *testing.T) {
	backend := testutil.NewMemoryBackend()
	repo := NewAttendanceRepository(backend, attendanceCollection)
	ctx := context.Background()

	created, err := repo.Create(ctx, models.AttendanceRecord{StudentID: "stu_1", Status: "present"})
	require.NoError(t, err)
	require.NotEqual(t, appwrite.UniqueID(), created.ID)

	updated, err := repo.Update(ctx, created.ID, models.AttendanceRecord{StudentID: "stu_1", Status: "late"})
	require.NoError(t, err)
	require.Equal(t, "late", updated.Status)

	require.NoError(t, repo.Delete(ctx, created.ID))
	err = repo.Delete(ctx, created.ID)
	require.Error(t, err)
	require.True(t, appwrite.IsNotFound(err))
}

func TestStudentRepositoryFindByUserID(t *testing.T) {
	backend := testutil.NewMemoryBackend()
	backend.Seed("main", "students", appwrite.Document{ID: "stu_1", Data: map[string]interface{}{"userId": "u1", "name": "Asha"}})
	backend.Seed("main", "students", appwrite.Document{ID: "stu_2", Data: map[string]interface{}{"userId": "u2", "name": "Budi"}})
	repo := NewStudentRepository(backend, studentCollection)

	profiles, err := repo.FindByUserID(context.Background(), "u2")
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	require.Equal(t, "stu_2", profiles[0].ID)

	profiles, err = repo.FindByUserID(context.Background(), "missing")
	require.NoError(t, err)
	require.Empty(t, profiles)

	all, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, "stu_2", all[0].ID)
}

func TestStudentRepositoryReplacePermissionsKeepsFields(t *testing.T) {
	backend := testutil.NewMemoryBackend()
	backend.Seed("main", "students", appwrite.Document{
		ID:          "stu_1",
		Permissions: []string{`read("users")`},
		Data:        map[string]interface{}{"userId": "u1", "name": "Asha"},
	})
	repo := NewStudentRepository(backend, studentCollection)
	grants := []appwrite.Permission{appwrite.Read(appwrite.RoleUser("u1")), appwrite.Update(appwrite.RoleUser("u1"))}

	for i := 0; i < 2; i++ {
		profile, err := repo.ReplacePermissions(context.Background(), "stu_1", grants)
		require.NoError(t, err)
		require.Equal(t, grants, profile.Permissions)
	}

	doc, ok := backend.Document("main", "students", "stu_1")
	require.True(t, ok)
	require.Equal(t, []string{`read("user:u1")`, `update("user:u1")`}, doc.Permissions)
	require.Equal(t, "Asha", doc.Data["name"])

	_, err := repo.ReplacePermissions(context.Background(), "missing", grants)
	require.True(t, appwrite.IsNotFound(err))
}

func TestStudentRepositoryListWalksEveryPage(t *testing.T) {
	backend := testutil.NewMemoryBackend()
	for i := 0; i < appwrite.DefaultPageSize+5; i++ {
		backend.Seed("main", "students", appwrite.Document{
			ID:   fmt.Sprintf("stu_%03d", i),
			Data: map[string]interface{}{"userId": fmt.Sprintf("u%d", i)},
		})
	}
	repo := NewStudentRepository(backend, studentCollection)

	all, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, appwrite.DefaultPageSize+5)
	require.Equal(t, "stu_029", all[0].ID)
	require.Equal(t, "stu_000", all[len(all)-1].ID)
}

// pagedDocumentServer serves total attendance documents in pages of pageSize, resuming after the
// cursor document when one is sent.
func pagedDocumentServer(t *testing.T, total, pageSize int, requests *[]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/databases/main/collections/attendance/documents", r.URL.Path)
		raw, err := url.QueryUnescape(r.URL.RawQuery)
		require.NoError(t, err)
		*requests = append(*requests, raw)

		start := 0
		for i := 0; i < total; i++ {
			if strings.Contains(raw, "cursorAfter") && strings.Contains(raw, fmt.Sprintf("%q", fmt.Sprintf("att_%03d", i))) {
				start = i + 1
			}
		}
		end := start + pageSize
		if end > total {
			end = total
		}

		base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		documents := make([]map[string]interface{}, 0, end-start)
		for i := start; i < end; i++ {
			documents = append(documents, map[string]interface{}{
				"$id":          fmt.Sprintf("att_%03d", i),
				"$createdAt":   base.Add(-time.Duration(i) * time.Minute).Format(time.RFC3339Nano),
				"$permissions": []string{},
				"Student_Id":   "stu_1",
				"Status":       "present",
			})
		}

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(map[string]interface{}{
			"total":     total,
			"documents": documents,
		}))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestAttendanceRepositoryListFollowsCursorOverHTTP(t *testing.T) {
	var requests []string
	server := pagedDocumentServer(t, listPageSize+30, listPageSize, &requests)

	client, err := appwrite.NewClient(appwrite.Config{Endpoint: server.URL + "/v1", ProjectID: "portal", APIKey: "server-key"})
	require.NoError(t, err)
	repo := NewAttendanceRepository(appwrite.NewDatabases(client), attendanceCollection)

	records, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, listPageSize+30)
	require.Equal(t, "att_000", records[0].ID)
	require.Equal(t, fmt.Sprintf("att_%03d", listPageSize+29), records[len(records)-1].ID)

	require.Len(t, requests, 2)
	require.Contains(t, requests[0], "limit")
	require.NotContains(t, requests[0], "cursorAfter")
	require.Contains(t, requests[1], "cursorAfter")
	require.Contains(t, requests[1], fmt.Sprintf("att_%03d", listPageSize-1))
}
