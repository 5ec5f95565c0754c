package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/jiu-academy-api/internal/middleware"
	"github.com/noah-isme/jiu-academy-api/internal/models"
	appErrors "github.com/noah-isme/jiu-academy-api/pkg/errors"
	"github.com/noah-isme/jiu-academy-api/pkg/response"
)

type dashboardService interface {
	Student(ctx context.Context, userID string) (*models.StudentDashboard, bool, error)
	Professor(ctx context.Context, userID string) (*models.ProfessorDashboard, bool, error)
	Admin(ctx context.Context, userID string) (*models.AdminDashboard, bool, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Dashboard godoc
// @Summary Dashboard for the caller's role
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	switch claims.Role {
	case models.RoleAdmin:
		h.Admin(c)
	case models.RoleProfessor:
		h.Professor(c)
	case models.RoleAluno:
		h.Student(c)
	default:
		response.Error(c, appErrors.ErrForbidden)
	}
}

// Student godoc
// @Summary Student dashboard
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/aluno [get]
func (h *DashboardHandler) Student(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	start := time.Now()
	summary, hit, err := h.service.Student(c.Request.Context(), claims.UserID)
	h.write(c, start, summary, hit, err)
}

// Professor godoc
// @Summary Professor dashboard
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/professor [get]
func (h *DashboardHandler) Professor(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	start := time.Now()
	summary, hit, err := h.service.Professor(c.Request.Context(), claims.UserID)
	h.write(c, start, summary, hit, err)
}

// Admin godoc
// @Summary Admin dashboard
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/admin [get]
func (h *DashboardHandler) Admin(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	start := time.Now()
	summary, hit, err := h.service.Admin(c.Request.Context(), claims.UserID)
	h.write(c, start, summary, hit, err)
}

func (h *DashboardHandler) write(c *gin.Context, start time.Time, summary interface{}, cacheHit bool, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, summary, nil, meta)
}
