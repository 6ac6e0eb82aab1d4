package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/attendance-portal/internal/models"
	"github.com/noah-isme/attendance-portal/internal/repository"
	"github.com/noah-isme/attendance-portal/internal/testutil"
	"github.com/noah-isme/attendance-portal/pkg/appwrite"
)

const (
	testDatabase             = "main"
	testStudentCollection    = "students"
	testAttendanceCollection = "attendance"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

type memoryActivityRepo struct {
	mu         sync.Mutex
	entries    []models.ActivityLog
	lastFilter repository.ActivityLogFilter
}

func (m *memoryActivityRepo) Create(ctx context.Context, entry *models.ActivityLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = uint(len(m.entries) + 1)
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memoryActivityRepo) List(ctx context.Context, filter repository.ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFilter = filter
	return append([]models.ActivityLog(nil), m.entries...), int64(len(m.entries)), nil
}

func (m *memoryActivityRepo) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	actions := make([]string, 0, len(m.entries))
	for _, entry := range m.entries {
		actions = append(actions, entry.Action)
	}
	return actions
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []AttendanceEvent
}

func (r *recordingPublisher) Publish(ctx context.Context, event AttendanceEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

type fixture struct {
	backend     *testutil.MemoryBackend
	activityLog *memoryActivityRepo
	events      *recordingPublisher
	studentRepo repository.StudentRepository
	students    StudentService
	attendance  AttendanceService
	permissions PermissionService
	auth        AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	backend := testutil.NewMemoryBackend()
	activityLog := &memoryActivityRepo{}
	events := &recordingPublisher{}
	activity := NewActivityService(activityLog, testLogger())

	studentRepo := repository.NewStudentRepository(backend, repository.Collection{DatabaseID: testDatabase, CollectionID: testStudentCollection})
	attendanceRepo := repository.NewAttendanceRepository(backend, repository.Collection{DatabaseID: testDatabase, CollectionID: testAttendanceCollection})
	students := NewStudentService(studentRepo, nil, 0, testLogger())

	return &fixture{
		backend:     backend,
		activityLog: activityLog,
		events:      events,
		studentRepo: studentRepo,
		students:    students,
		attendance:  NewAttendanceService(attendanceRepo, students, testValidator(), activity, events, testLogger()),
		permissions: NewPermissionService(studentRepo, students, activity, testLogger()),
		auth:        NewAuthService(backend, testValidator(), activity, testLogger()),
	}
}

func (f *fixture) seedStudent(id, userID string, permissions ...string) {
	data := map[string]interface{}{"name": "Student " + id}
	if userID != "" {
		data[models.StudentUserIDField] = userID
	}
	f.backend.Seed(testDatabase, testStudentCollection, appwrite.Document{ID: id, Data: data, Permissions: permissions})
}

func (f *fixture) seedUser(id, email, password string, labels []string, prefs map[string]interface{}) {
	f.backend.AddUser(appwrite.User{ID: id, Name: "User " + id, Email: email, Labels: labels, Prefs: prefs}, password)
}

func ptrFloat(v float64) *float64 {
	return &v
}
