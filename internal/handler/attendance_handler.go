package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/jiu-academy-api/internal/models"
	"github.com/noah-isme/jiu-academy-api/internal/service"
	"github.com/noah-isme/jiu-academy-api/pkg/export"
	"github.com/noah-isme/jiu-academy-api/pkg/response"
)

type attendanceService interface {
	Register(ctx context.Context, lessonID, checkedBy string, req service.RegisterAttendanceRequest) (*models.Attendance, error)
	CheckIn(ctx context.Context, userID string, req service.CheckInRequest) (*models.Attendance, error)
	Status(ctx context.Context, lessonID, userID string) (*models.AttendanceCheckStatus, error)
	LessonAttendance(ctx context.Context, lessonID string) ([]models.LessonAttendance, error)
	Stats(ctx context.Context, caller *models.JWTClaims, userID string) (*models.AttendanceStats, error)
	Export(ctx context.Context, caller *models.JWTClaims, userID, format string) ([]byte, export.Format, error)
}

// AttendanceHandler exposes attendance registration and reporting.
type AttendanceHandler struct {
	service attendanceService
	now     func() time.Time
}

// NewAttendanceHandler constructs an attendance handler.
func NewAttendanceHandler(svc attendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc, now: time.Now}
}

// lessonIDParam accepts both /attendance/lesson/:lessonId and /lessons/:id/attendance.
func lessonIDParam(c *gin.Context) string {
	if id := c.Param("lessonId"); id != "" {
		return id
	}
	return c.Param("id")
}

// Register godoc
// @Summary Register attendance
// @Description Records or updates a student's attendance for a lesson
// @Tags Attendance
// @Accept json
// @Produce json
// @Param lessonId path string true "Lesson ID"
// @Param payload body service.RegisterAttendanceRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /attendance/{lessonId} [put]
func (h *AttendanceHandler) Register(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req service.RegisterAttendanceRequest
	if !bindJSON(c, &req) {
		return
	}
	attendance, err := h.service.Register(c.Request.Context(), lessonIDParam(c), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, attendance, nil)
}

// CheckIn godoc
// @Summary Self check-in
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.CheckInRequest true "Check-in payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.ErrorBody
// @Router /attendance/check-in [post]
func (h *AttendanceHandler) CheckIn(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req service.CheckInRequest
	if !bindJSON(c, &req) {
		return
	}
	attendance, err := h.service.CheckIn(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, attendance, nil)
}

// Status godoc
// @Summary Check-in status of the caller
// @Tags Attendance
// @Produce json
// @Param lessonId path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Router /attendance/status/{lessonId} [get]
func (h *AttendanceHandler) Status(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	status, err := h.service.Status(c.Request.Context(), lessonIDParam(c), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// LessonAttendance godoc
// @Summary Attendance list of a lesson
// @Tags Attendance
// @Produce json
// @Param lessonId path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.ErrorBody
// @Router /attendance/lesson/{lessonId} [get]
func (h *AttendanceHandler) LessonAttendance(c *gin.Context) {
	entries, err := h.service.LessonAttendance(c.Request.Context(), lessonIDParam(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Stats godoc
// @Summary Attendance stats of a user
// @Tags Attendance
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.ErrorBody
// @Router /attendance/stats/{userId} [get]
func (h *AttendanceHandler) Stats(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	h.writeStats(c, claims, c.Param("userId"))
}

// MyStats godoc
// @Summary Attendance stats of the caller
// @Tags Attendance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /attendance/me/stats [get]
func (h *AttendanceHandler) MyStats(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	h.writeStats(c, claims, claims.UserID)
}

func (h *AttendanceHandler) writeStats(c *gin.Context, claims *models.JWTClaims, userID string) {
	stats, err := h.service.Stats(c.Request.Context(), claims, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Export godoc
// @Summary Export attendance history
// @Tags Attendance
// @Produce text/csv
// @Produce application/pdf
// @Param userId path string true "User ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Router /attendance/stats/{userId}/export [get]
func (h *AttendanceHandler) Export(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	userID := c.Param("userId")
	body, format, err := h.service.Export(c.Request.Context(), claims, userID, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("attendance-%s-%s.%s", userID, h.now().Format("20060102"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, format.ContentType(), body)
}
