package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/jiu-academy-api/internal/models"
	appErrors "github.com/noah-isme/jiu-academy-api/pkg/errors"
)

type fakeDashboardSrv struct {
	called string
	userID string
	hit    bool
	err    error
}

func (f *fakeDashboardSrv) Student(_ context.Context, userID string) (*models.StudentDashboard, bool, error) {
	f.called, f.userID = "student", userID
	return &models.StudentDashboard{Stats: models.StudentDashboardStats{TotalAttended: 4}}, f.hit, f.err
}

func (f *fakeDashboardSrv) Professor(_ context.Context, userID string) (*models.ProfessorDashboard, bool, error) {
	f.called, f.userID = "professor", userID
	return &models.ProfessorDashboard{MyLessons: []models.LessonDetail{}}, f.hit, f.err
}

func (f *fakeDashboardSrv) Admin(_ context.Context, userID string) (*models.AdminDashboard, bool, error) {
	f.called, f.userID = "admin", userID
	return &models.AdminDashboard{TotalUsers: 12}, f.hit, f.err
}

func TestDashboardHandlerDispatchesByRole(t *testing.T) {
	tests := []struct {
		claims *models.JWTClaims
		want   string
	}{
		{claims: aluno("s1"), want: "student"},
		{claims: professor("p1"), want: "professor"},
		{claims: admin("a1"), want: "admin"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			svc := &fakeDashboardSrv{}
			h := NewDashboardHandler(svc)
			r := newTestRouter(tt.claims)
			r.GET("/dashboard", h.Dashboard)

			rec := perform(r, http.MethodGet, "/dashboard", "")

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, svc.called)
			assert.Equal(t, tt.claims.UserID, svc.userID)
		})
	}
}

func TestDashboardHandlerUnknownRole(t *testing.T) {
	h := NewDashboardHandler(&fakeDashboardSrv{})
	r := newTestRouter(&models.JWTClaims{UserID: "x", Role: models.UserRole("visitor")})
	r.GET("/dashboard", h.Dashboard)

	assert.Equal(t, http.StatusForbidden, perform(r, http.MethodGet, "/dashboard", "").Code)
}

func TestDashboardHandlerCacheMeta(t *testing.T) {
	h := NewDashboardHandler(&fakeDashboardSrv{hit: true})
	r := newTestRouter(admin("a1"))
	r.GET("/dashboard/admin", h.Admin)

	rec := perform(r, http.MethodGet, "/dashboard/admin", "")

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeData(t, rec)
	assert.Equal(t, true, env.Meta["cache_hit"])
	assert.Contains(t, env.Meta, "processing_time_ms")
	assert.EqualValues(t, 12, env.Data["totalUsers"])
}

func TestDashboardHandlerError(t *testing.T) {
	h := NewDashboardHandler(&fakeDashboardSrv{err: appErrors.ErrInternal})
	r := newTestRouter(aluno("s1"))
	r.GET("/dashboard/aluno", h.Student)

	assert.Equal(t, http.StatusInternalServerError, perform(r, http.MethodGet, "/dashboard/aluno", "").Code)
}
