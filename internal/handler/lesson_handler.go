package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/jiu-academy-api/internal/models"
	"github.com/noah-isme/jiu-academy-api/internal/service"
	appErrors "github.com/noah-isme/jiu-academy-api/pkg/errors"
	"github.com/noah-isme/jiu-academy-api/pkg/response"
)

type lessonService interface {
	Create(ctx context.Context, callerID string, req service.CreateLessonRequest) (*models.ScheduledLesson, error)
	List(ctx context.Context, query service.LessonQuery) ([]models.LessonDetail, error)
	Get(ctx context.Context, id string) (*models.LessonDetail, error)
	Upcoming(ctx context.Context) ([]models.LessonDetail, error)
	UpdateStatus(ctx context.Context, id string, req service.UpdateLessonStatusRequest) (*models.LessonDetail, error)
	Update(ctx context.Context, id string, req service.UpdateLessonRequest) (*models.LessonDetail, error)
	Delete(ctx context.Context, id string) error
}

// LessonHandler exposes the lesson calendar.
type LessonHandler struct {
	service lessonService
}

// NewLessonHandler constructs a lesson handler.
func NewLessonHandler(svc lessonService) *LessonHandler {
	return &LessonHandler{service: svc}
}

// Create godoc
// @Summary Schedule a lesson
// @Tags Lessons
// @Accept json
// @Produce json
// @Param payload body service.CreateLessonRequest true "Lesson payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /lessons [post]
func (h *LessonHandler) Create(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req service.CreateLessonRequest
	if !bindJSON(c, &req) {
		return
	}
	lesson, err := h.service.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lesson)
}

// List godoc
// @Summary List lessons
// @Tags Lessons
// @Produce json
// @Param classId query string false "Class ID"
// @Param professorId query string false "Professor ID"
// @Param status query string false "Lesson status"
// @Param startDate query string false "From date (YYYY-MM-DD)"
// @Param endDate query string false "To date (YYYY-MM-DD), requires startDate"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.ErrorBody
// @Router /lessons [get]
func (h *LessonHandler) List(c *gin.Context) {
	var query service.LessonQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "Invalid query parameters"))
		return
	}
	lessons, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lessons, nil)
}

// Upcoming godoc
// @Summary Next lessons
// @Description The next five lessons from today, cancelled ones excluded
// @Tags Lessons
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /lessons/upcoming [get]
func (h *LessonHandler) Upcoming(c *gin.Context) {
	lessons, err := h.service.Upcoming(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lessons, nil)
}

// Get godoc
// @Summary Get lesson
// @Tags Lessons
// @Produce json
// @Param id path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.ErrorBody
// @Router /lessons/{id} [get]
func (h *LessonHandler) Get(c *gin.Context) {
	lesson, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson, nil)
}

// UpdateStatus godoc
// @Summary Change lesson status
// @Tags Lessons
// @Accept json
// @Produce json
// @Param id path string true "Lesson ID"
// @Param payload body service.UpdateLessonStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /lessons/{id}/status [put]
func (h *LessonHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdateLessonStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	lesson, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson, nil)
}

// Update godoc
// @Summary Update lesson
// @Tags Lessons
// @Accept json
// @Produce json
// @Param id path string true "Lesson ID"
// @Param payload body service.UpdateLessonRequest true "Lesson payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /lessons/{id} [put]
func (h *LessonHandler) Update(c *gin.Context) {
	var req service.UpdateLessonRequest
	if !bindJSON(c, &req) {
		return
	}
	lesson, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson, nil)
}

// Delete godoc
// @Summary Delete lesson
// @Tags Lessons
// @Param id path string true "Lesson ID"
// @Success 204
// @Failure 404 {object} response.ErrorBody
// @Router /lessons/{id} [delete]
func (h *LessonHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
