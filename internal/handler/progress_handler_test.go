package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/jiu-academy-api/internal/models"
	"github.com/noah-isme/jiu-academy-api/internal/service"
	appErrors "github.com/noah-isme/jiu-academy-api/pkg/errors"
)

type fakeProgressService struct {
	studentID string
	req       service.UpsertProgressRequest
}

func (f *fakeProgressService) List(_ context.Context, caller *models.JWTClaims, studentID string) ([]models.StudentProgress, error) {
	f.studentID = studentID
	if !caller.Role.IsStaff() && caller.UserID != studentID {
		return nil, appErrors.ErrForbidden
	}
	return []models.StudentProgress{}, nil
}

func (f *fakeProgressService) Upsert(_ context.Context, studentID string, req service.UpsertProgressRequest) (*models.StudentProgress, error) {
	f.studentID, f.req = studentID, req
	return &models.StudentProgress{StudentID: studentID, SkillName: req.SkillName, ProficiencyLevel: req.ProficiencyLevel}, nil
}

func TestProgressHandler(t *testing.T) {
	svc := &fakeProgressService{}
	h := NewProgressHandler(svc)

	r := newTestRouter(aluno("s1"))
	r.GET("/progress/:studentId", h.List)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/progress/s1", "").Code)
	assert.Equal(t, http.StatusForbidden, perform(r, http.MethodGet, "/progress/s2", "").Code)

	staff := newTestRouter(professor("p1"))
	staff.PUT("/progress/:studentId", h.Upsert)
	rec := perform(staff, http.MethodPut, "/progress/s1", `{"skillName":"armbar","proficiencyLevel":3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "s1", svc.studentID)
	assert.Equal(t, "armbar", svc.req.SkillName)
}
