package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/jiu-academy-api/internal/models"
	"github.com/noah-isme/jiu-academy-api/internal/service"
	"github.com/noah-isme/jiu-academy-api/pkg/response"
)

type progressService interface {
	List(ctx context.Context, caller *models.JWTClaims, studentID string) ([]models.StudentProgress, error)
	Upsert(ctx context.Context, studentID string, req service.UpsertProgressRequest) (*models.StudentProgress, error)
}

// ProgressHandler exposes technique progress per student.
type ProgressHandler struct {
	service progressService
}

// NewProgressHandler constructs a progress handler.
func NewProgressHandler(svc progressService) *ProgressHandler {
	return &ProgressHandler{service: svc}
}

// List godoc
// @Summary Progress of a student
// @Tags Progress
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.ErrorBody
// @Router /progress/{studentId} [get]
func (h *ProgressHandler) List(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	items, err := h.service.List(c.Request.Context(), claims, c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Upsert godoc
// @Summary Record skill progress
// @Tags Progress
// @Accept json
// @Produce json
// @Param studentId path string true "Student ID"
// @Param payload body service.UpsertProgressRequest true "Progress payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /progress/{studentId} [put]
func (h *ProgressHandler) Upsert(c *gin.Context) {
	var req service.UpsertProgressRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.service.Upsert(c.Request.Context(), c.Param("studentId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}
