package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/jiu-academy-api/internal/models"
	appErrors "github.com/noah-isme/jiu-academy-api/pkg/errors"
)

type mockUserRepo struct {
	users    map[string]*models.User
	updated  *models.User
	listRole *models.UserRole
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		copy := *user
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	m.listRole = filter.Role
	var users []models.User
	for _, u := range m.users {
		if filter.Role == nil || u.Role == *filter.Role {
			users = append(users, *u)
		}
	}
	return users, nil
}

func (m *mockUserRepo) UpdateAccount(ctx context.Context, user *models.User) error {
	copy := *user
	m.updated = &copy
	m.users[user.ID] = &copy
	return nil
}

type mockProfileRepo struct {
	profiles map[string]*models.Profile
}

func (m *mockProfileRepo) FindByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	if p, ok := m.profiles[userID]; ok {
		copy := *p
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockProfileRepo) Upsert(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	if profile.ID == "" {
		profile.ID = "p-" + profile.UserID
	}
	copy := *profile
	m.profiles[profile.UserID] = &copy
	return &copy, nil
}

func newUserServiceFixture() (*UserService, *mockUserRepo, *mockProfileRepo) {
	users := &mockUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", Email: "ana@example.com", Name: "Ana", Role: models.RoleAluno, BeltColor: "white"},
		"u2": {ID: "u2", Email: "prof@example.com", Name: "Prof", Role: models.RoleProfessor, BeltColor: "black"},
	}}
	profiles := &mockProfileRepo{profiles: map[string]*models.Profile{}}
	return NewUserService(users, profiles, nil, zap.NewNop()), users, profiles
}

func TestUserServiceMeWithoutProfile(t *testing.T) {
	svc, _, _ := newUserServiceFixture()

	me, err := svc.Me(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", me.Name)
	assert.Nil(t, me.Profile)
}

func TestUserServiceMeNotFound(t *testing.T) {
	svc, _, _ := newUserServiceFixture()

	_, err := svc.Me(context.Background(), "ghost")
	appErr := appErrors.FromError(err)
	assert.Equal(t, 404, appErr.Status)
	assert.Equal(t, "User not found", appErr.Message)
}

func TestUserServiceUpdateMeMergesProfile(t *testing.T) {
	svc, users, profiles := newUserServiceFixture()
	phone := "+55 11 99999-0000"
	profiles.profiles["u1"] = &models.Profile{ID: "p1", UserID: "u1", Phone: &phone}

	belt := "blue"
	birth := "1990-05-20"
	notes := "asthma"
	res, err := svc.UpdateMe(context.Background(), "u1", UpdateMeRequest{BeltColor: &belt, BirthDate: &birth, MedicalNotes: &notes})
	require.NoError(t, err)
	assert.Equal(t, "blue", users.updated.BeltColor)
	require.NotNil(t, res.Profile)
	assert.Equal(t, "p1", res.Profile.ID)
	assert.Equal(t, phone, *res.Profile.Phone)
	assert.Equal(t, "asthma", *res.Profile.MedicalNotes)
	assert.Equal(t, 1990, res.Profile.BirthDate.Year())
}

func TestUserServiceUpdateMeRejectsBadDate(t *testing.T) {
	svc, _, _ := newUserServiceFixture()
	bad := "20/05/1990"

	_, err := svc.UpdateMe(context.Background(), "u1", UpdateMeRequest{BirthDate: &bad})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestUserServiceListByRole(t *testing.T) {
	svc, repo, _ := newUserServiceFixture()

	users, err := svc.List(context.Background(), "professor")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "u2", users[0].ID)
	require.NotNil(t, repo.listRole)

	_, err = svc.List(context.Background(), "guest")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
