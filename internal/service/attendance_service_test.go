package service

import (
	"bytes"
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/jiu-academy-api/internal/models"
	appErrors "github.com/noah-isme/jiu-academy-api/pkg/errors"
)

type mockAttendanceRepo struct {
	records map[string]*models.Attendance
	history []models.AttendanceHistoryItem
}

func newMockAttendanceRepo() *mockAttendanceRepo {
	return &mockAttendanceRepo{records: map[string]*models.Attendance{}}
}

func (m *mockAttendanceRepo) Upsert(ctx context.Context, attendance *models.Attendance) (*models.Attendance, error) {
	key := attendance.LessonID + "/" + attendance.UserID
	now := time.Now()
	if existing, ok := m.records[key]; ok {
		existing.Status = attendance.Status
		existing.Notes = attendance.Notes
		existing.CheckInTime = &now
		copy := *existing
		return &copy, nil
	}
	stored := *attendance
	stored.ID = "att-" + attendance.UserID
	stored.CheckInTime = &now
	m.records[key] = &stored
	copy := stored
	return &copy, nil
}

func (m *mockAttendanceRepo) FindByLessonAndUser(ctx context.Context, lessonID, userID string) (*models.Attendance, error) {
	if a, ok := m.records[lessonID+"/"+userID]; ok {
		copy := *a
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAttendanceRepo) ListByLesson(ctx context.Context, lessonID string) ([]models.LessonAttendance, error) {
	var out []models.LessonAttendance
	for _, a := range m.records {
		if a.LessonID == lessonID {
			out = append(out, models.LessonAttendance{Attendance: *a})
		}
	}
	return out, nil
}

func (m *mockAttendanceRepo) ListHistoryByUser(ctx context.Context, userID string) ([]models.AttendanceHistoryItem, error) {
	var out []models.AttendanceHistoryItem
	for _, item := range m.history {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	return out, nil
}

type recordingNotifier struct {
	calls []*models.Attendance
}

func (n *recordingNotifier) AttendanceRecorded(ctx context.Context, attendance *models.Attendance, lesson *models.LessonDetail, user *models.User) {
	n.calls = append(n.calls, attendance)
}

type recordingInvalidator struct {
	keys []string
}

func (r *recordingInvalidator) Delete(ctx context.Context, keys ...string) error {
	r.keys = append(r.keys, keys...)
	return nil
}

type attendanceFixture struct {
	svc      *AttendanceService
	repo     *mockAttendanceRepo
	notifier *recordingNotifier
	cache    *recordingInvalidator
}

func newAttendanceFixture(t *testing.T) attendanceFixture {
	t.Helper()
	lessons := newMockLessonRepo()
	lessons.lessons["l1"] = &models.ScheduledLesson{ID: "l1", ClassID: "c1", Date: "2024-05-01", StartTime: "19:00", EndTime: "20:30"}
	users := &mockUserRepo{users: map[string]*models.User{
		"s1": {ID: "s1", Name: "Ana", Email: "ana@jiu.local", Role: models.RoleAluno},
		"p1": {ID: "p1", Name: "Rafa", Email: "rafa@jiu.local", Role: models.RoleProfessor},
	}}
	fx := attendanceFixture{
		repo:     newMockAttendanceRepo(),
		notifier: &recordingNotifier{},
		cache:    &recordingInvalidator{},
	}
	fx.svc = NewAttendanceService(AttendanceServiceParams{
		Repo:        fx.repo,
		Lessons:     lessons,
		Users:       users,
		Enrollments: newMockClassRepo(),
		Notifier:    fx.notifier,
		Cache:       fx.cache,
	})
	return fx
}

func TestAttendanceRegisterCreatesThenUpdates(t *testing.T) {
	fx := newAttendanceFixture(t)
	ctx := context.Background()

	first, err := fx.svc.Register(ctx, "l1", "p1", RegisterAttendanceRequest{UserID: "s1", Status: models.AttendanceLate})
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceLate, first.Status)
	require.NotNil(t, first.CheckedBy)
	assert.Equal(t, "p1", *first.CheckedBy)

	notes := "arrived after warm-up"
	second, err := fx.svc.Register(ctx, "l1", "p1", RegisterAttendanceRequest{UserID: "s1", Status: models.AttendancePresent, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, models.AttendancePresent, second.Status)
	assert.Len(t, fx.repo.records, 1)

	assert.Len(t, fx.notifier.calls, 2)
	assert.Equal(t, []string{"dash:aluno:s1", "dash:aluno:s1"}, fx.cache.keys)
}

func TestAttendanceRegisterValidationAndLookups(t *testing.T) {
	fx := newAttendanceFixture(t)
	ctx := context.Background()

	_, err := fx.svc.Register(ctx, "l1", "p1", RegisterAttendanceRequest{UserID: "s1", Status: "sleeping"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = fx.svc.Register(ctx, "missing", "p1", RegisterAttendanceRequest{UserID: "s1", Status: models.AttendancePresent})
	require.Error(t, err)
	assert.Equal(t, "Lesson not found", appErrors.FromError(err).Message)

	_, err = fx.svc.Register(ctx, "l1", "p1", RegisterAttendanceRequest{UserID: "ghost", Status: models.AttendancePresent})
	require.Error(t, err)
	assert.Equal(t, "User not found", appErrors.FromError(err).Message)
	assert.Empty(t, fx.notifier.calls)
}

func TestAttendanceCheckInAndStatus(t *testing.T) {
	fx := newAttendanceFixture(t)
	ctx := context.Background()

	status, err := fx.svc.Status(ctx, "l1", "s1")
	require.NoError(t, err)
	assert.False(t, status.CheckedIn)
	assert.Nil(t, status.Status)

	attendance, err := fx.svc.CheckIn(ctx, "s1", CheckInRequest{LessonID: "l1"})
	require.NoError(t, err)
	assert.Equal(t, models.AttendancePresent, attendance.Status)
	require.NotNil(t, attendance.Notes)
	assert.Equal(t, "Self check-in", *attendance.Notes)
	assert.Equal(t, "s1", *attendance.CheckedBy)

	status, err = fx.svc.Status(ctx, "l1", "s1")
	require.NoError(t, err)
	assert.True(t, status.CheckedIn)
	assert.Equal(t, models.AttendancePresent, *status.Status)
}

func TestAttendanceLessonAttendance(t *testing.T) {
	fx := newAttendanceFixture(t)
	ctx := context.Background()

	entries, err := fx.svc.LessonAttendance(ctx, "l1")
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)

	_, err = fx.svc.CheckIn(ctx, "s1", CheckInRequest{LessonID: "l1"})
	require.NoError(t, err)
	entries, err = fx.svc.LessonAttendance(ctx, "l1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = fx.svc.LessonAttendance(ctx, "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestAttendanceStatsAuthorization(t *testing.T) {
	fx := newAttendanceFixture(t)
	fx.repo.history = []models.AttendanceHistoryItem{
		{Attendance: models.Attendance{UserID: "s1", Status: models.AttendancePresent}, LessonDate: "2024-05-03", ClassName: "Fundamentals"},
		{Attendance: models.Attendance{UserID: "s1", Status: models.AttendanceAbsent}, LessonDate: "2024-05-01", ClassName: "Fundamentals"},
	}
	ctx := context.Background()
	student := &models.JWTClaims{UserID: "s1", Role: models.RoleAluno}
	professor := &models.JWTClaims{UserID: "p1", Role: models.RoleProfessor}

	stats, err := fx.svc.Stats(ctx, student, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Present)

	stats, err = fx.svc.Stats(ctx, professor, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)

	_, err = fx.svc.Stats(ctx, &models.JWTClaims{UserID: "s2", Role: models.RoleAluno}, "s1")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	stats, err = fx.svc.Stats(ctx, &models.JWTClaims{UserID: "s2", Role: models.RoleAluno}, "s2")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
	assert.NotNil(t, stats.History)
}

func TestAttendanceExport(t *testing.T) {
	fx := newAttendanceFixture(t)
	topic := "Armlock"
	fx.repo.history = []models.AttendanceHistoryItem{
		{Attendance: models.Attendance{UserID: "s1", Status: models.AttendancePresent}, LessonDate: "2024-05-03", LessonStartTime: "19:00", LessonTopic: &topic, ClassName: "Fundamentals"},
	}
	caller := &models.JWTClaims{UserID: "s1", Role: models.RoleAluno}

	out, format, err := fx.svc.Export(context.Background(), caller, "s1", "csv")
	require.NoError(t, err)
	assert.Equal(t, "csv", string(format))
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Date,Start,Class,Topic,Status,Notes", lines[0])
	assert.Equal(t, "2024-05-03,19:00,Fundamentals,Armlock,present,", lines[1])

	out, _, err = fx.svc.Export(context.Background(), caller, "s1", "pdf")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))

	_, _, err = fx.svc.Export(context.Background(), caller, "s1", "docx")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
