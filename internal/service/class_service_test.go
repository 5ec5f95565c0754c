package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/jiu-academy-api/internal/models"
	"github.com/noah-isme/jiu-academy-api/internal/repository"
	appErrors "github.com/noah-isme/jiu-academy-api/pkg/errors"
)

type mockClassRepo struct {
	classes     map[string]*models.Class
	enrollments map[string]*models.ClassEnrollment
	enrollErr   error
}

func newMockClassRepo(classes ...*models.Class) *mockClassRepo {
	repo := &mockClassRepo{classes: map[string]*models.Class{}, enrollments: map[string]*models.ClassEnrollment{}}
	for _, c := range classes {
		repo.classes[c.ID] = c
	}
	return repo
}

func enrollmentKey(classID, userID string) string { return classID + "/" + userID }

func (m *mockClassRepo) List(ctx context.Context) ([]models.Class, error) {
	var out []models.Class
	for _, c := range m.classes {
		out = append(out, *c)
	}
	return out, nil
}

func (m *mockClassRepo) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if c, ok := m.classes[id]; ok {
		copy := *c
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassRepo) Create(ctx context.Context, class *models.Class) error {
	class.ID = fmt.Sprintf("c%d", len(m.classes)+1)
	m.classes[class.ID] = class
	return nil
}

func (m *mockClassRepo) Update(ctx context.Context, class *models.Class) error {
	m.classes[class.ID] = class
	return nil
}

func (m *mockClassRepo) Delete(ctx context.Context, id string) (bool, error) {
	if _, ok := m.classes[id]; !ok {
		return false, nil
	}
	delete(m.classes, id)
	return true, nil
}

func (m *mockClassRepo) FindEnrollment(ctx context.Context, classID, userID string) (*models.ClassEnrollment, error) {
	if e, ok := m.enrollments[enrollmentKey(classID, userID)]; ok {
		return e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassRepo) Enroll(ctx context.Context, enrollment *models.ClassEnrollment) error {
	if m.enrollErr != nil {
		return m.enrollErr
	}
	enrollment.ID = "e1"
	m.enrollments[enrollmentKey(enrollment.ClassID, enrollment.UserID)] = enrollment
	return nil
}

func (m *mockClassRepo) Unenroll(ctx context.Context, classID, userID string) (bool, error) {
	key := enrollmentKey(classID, userID)
	if _, ok := m.enrollments[key]; !ok {
		return false, nil
	}
	delete(m.enrollments, key)
	return true, nil
}

func (m *mockClassRepo) ListStudents(ctx context.Context, classID string) ([]models.EnrolledStudent, error) {
	var out []models.EnrolledStudent
	for _, e := range m.enrollments {
		if e.ClassID == classID {
			out = append(out, models.EnrolledStudent{EnrollmentID: e.ID, UserID: e.UserID, Status: e.Status})
		}
	}
	return out, nil
}

func newClassServiceFixture() (*ClassService, *mockClassRepo) {
	repo := newMockClassRepo(&models.Class{ID: "c1", Name: "Fundamentals", MaxStudents: 20, IsActive: true})
	users := &mockUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", Name: "Ana", Role: models.RoleAluno},
	}}
	return NewClassService(repo, users, nil, zap.NewNop()), repo
}

func TestClassServiceCreateDefaults(t *testing.T) {
	svc, _ := newClassServiceFixture()

	class, err := svc.Create(context.Background(), CreateClassRequest{
		Name:     "No-Gi",
		Schedule: &ScheduleRequest{Days: []string{"tue", "thu"}, Time: "20:00"},
	})
	require.NoError(t, err)
	assert.Equal(t, 20, class.MaxStudents)
	assert.True(t, class.IsActive)
	assert.Equal(t, "20:00", class.Schedule.Time)
}

func TestClassServiceCreateValidation(t *testing.T) {
	svc, _ := newClassServiceFixture()
	zero := 0

	_, err := svc.Create(context.Background(), CreateClassRequest{Name: "X", MaxStudents: &zero, Schedule: &ScheduleRequest{Time: "8pm"}})
	appErr := appErrors.FromError(err)
	require.Equal(t, 400, appErr.Status)
	details := appErr.Details.([]FieldError)
	assert.Len(t, details, 3)
}

func TestClassServiceGetNotFound(t *testing.T) {
	svc, _ := newClassServiceFixture()

	_, err := svc.Get(context.Background(), "missing")
	appErr := appErrors.FromError(err)
	assert.Equal(t, 404, appErr.Status)
	assert.Equal(t, "Class not found", appErr.Message)
}

func TestClassServiceUpdateMerges(t *testing.T) {
	svc, repo := newClassServiceFixture()
	max := 30

	class, err := svc.Update(context.Background(), "c1", UpdateClassRequest{MaxStudents: &max})
	require.NoError(t, err)
	assert.Equal(t, "Fundamentals", class.Name)
	assert.Equal(t, 30, repo.classes["c1"].MaxStudents)
}

func TestClassServiceEnrollTwice(t *testing.T) {
	svc, _ := newClassServiceFixture()

	enrollment, err := svc.Enroll(context.Background(), "c1", EnrollRequest{StudentID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentActive, enrollment.Status)

	_, err = svc.Enroll(context.Background(), "c1", EnrollRequest{StudentID: "u1"})
	appErr := appErrors.FromError(err)
	assert.Equal(t, 409, appErr.Status)
	assert.Equal(t, "Student already enrolled", appErr.Message)
}

func TestClassServiceEnrollConstraintRace(t *testing.T) {
	svc, repo := newClassServiceFixture()
	repo.enrollErr = fmt.Errorf("enroll student: %w", repository.ErrDuplicate)

	_, err := svc.Enroll(context.Background(), "c1", EnrollRequest{StudentID: "u1"})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestClassServiceEnrollUnknownStudent(t *testing.T) {
	svc, _ := newClassServiceFixture()

	_, err := svc.Enroll(context.Background(), "c1", EnrollRequest{StudentID: "ghost"})
	appErr := appErrors.FromError(err)
	assert.Equal(t, 404, appErr.Status)
	assert.Equal(t, "Student not found", appErr.Message)
}

func TestClassServiceUnenroll(t *testing.T) {
	svc, _ := newClassServiceFixture()
	_, err := svc.Enroll(context.Background(), "c1", EnrollRequest{StudentID: "u1"})
	require.NoError(t, err)

	require.NoError(t, svc.Unenroll(context.Background(), "c1", "u1"))
	err = svc.Unenroll(context.Background(), "c1", "u1")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestClassServiceDeleteMissing(t *testing.T) {
	svc, _ := newClassServiceFixture()

	require.NoError(t, svc.Delete(context.Background(), "c1"))
	assert.ErrorIs(t, svc.Delete(context.Background(), "c1"), appErrors.ErrNotFound)
}
