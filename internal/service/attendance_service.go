package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/jiu-academy-api/internal/models"
	appErrors "github.com/noah-isme/jiu-academy-api/pkg/errors"
	"github.com/noah-isme/jiu-academy-api/pkg/export"
)

const selfCheckInNote = "Self check-in"

type attendanceRepository interface {
	Upsert(ctx context.Context, attendance *models.Attendance) (*models.Attendance, error)
	FindByLessonAndUser(ctx context.Context, lessonID, userID string) (*models.Attendance, error)
	ListByLesson(ctx context.Context, lessonID string) ([]models.LessonAttendance, error)
	ListHistoryByUser(ctx context.Context, userID string) ([]models.AttendanceHistoryItem, error)
}

type lessonFinder interface {
	FindByID(ctx context.Context, id string) (*models.LessonDetail, error)
}

type enrollmentFinder interface {
	FindEnrollment(ctx context.Context, classID, userID string) (*models.ClassEnrollment, error)
}

type attendanceNotifier interface {
	AttendanceRecorded(ctx context.Context, attendance *models.Attendance, lesson *models.LessonDetail, user *models.User)
}

type cacheInvalidator interface {
	Delete(ctx context.Context, keys ...string) error
}

// RegisterAttendanceRequest is the staff payload for PUT /attendance/:lessonId.
type RegisterAttendanceRequest struct {
	UserID string                  `json:"userId" validate:"required"`
	Status models.AttendanceStatus `json:"status" validate:"required,oneof=present absent late excused"`
	Notes  *string                 `json:"notes" validate:"omitempty,max=1000"`
}

// CheckInRequest is the student self check-in payload.
type CheckInRequest struct {
	LessonID string `json:"lessonId" validate:"required"`
}

// AttendanceServiceParams groups the collaborators of AttendanceService.
type AttendanceServiceParams struct {
	Repo        attendanceRepository
	Lessons     lessonFinder
	Users       userFinder
	Enrollments enrollmentFinder
	Notifier    attendanceNotifier
	Cache       cacheInvalidator
	Metrics     *MetricsService
	Validator   *validator.Validate
	Logger      *zap.Logger
}

// AttendanceService records presence per lesson and reports attendance history.
type AttendanceService struct {
	repo        attendanceRepository
	lessons     lessonFinder
	users       userFinder
	enrollments enrollmentFinder
	notifier    attendanceNotifier
	cache       cacheInvalidator
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(params AttendanceServiceParams) *AttendanceService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		repo:        params.Repo,
		lessons:     params.Lessons,
		users:       params.Users,
		enrollments: params.Enrollments,
		notifier:    params.Notifier,
		cache:       params.Cache,
		metrics:     params.Metrics,
		validator:   ensureValidator(params.Validator),
		logger:      logger,
	}
}

// Register records attendance for a student, replacing any earlier record for the lesson.
func (s *AttendanceService) Register(ctx context.Context, lessonID, checkedBy string, req RegisterAttendanceRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	return s.record(ctx, lessonID, req.UserID, req.Status, checkedBy, req.Notes)
}

// CheckIn marks the caller present.
func (s *AttendanceService) CheckIn(ctx context.Context, userID string, req CheckInRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	note := selfCheckInNote
	return s.record(ctx, req.LessonID, userID, models.AttendancePresent, userID, &note)
}

func (s *AttendanceService) record(ctx context.Context, lessonID, userID string, status models.AttendanceStatus, checkedBy string, notes *string) (*models.Attendance, error) {
	lesson, err := s.lesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "User not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	s.checkEnrollment(ctx, lesson.ClassID, userID)

	attendance := &models.Attendance{
		LessonID: lessonID,
		UserID:   userID,
		Status:   status,
		Notes:    notes,
	}
	if checkedBy != "" {
		attendance.CheckedBy = &checkedBy
	}
	stored, err := s.repo.Upsert(ctx, attendance)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}

	s.metrics.RecordAttendance(string(stored.Status))
	if s.cache != nil {
		// a failed invalidation only leaves the dashboard stale until its TTL
		_ = s.cache.Delete(ctx, dashboardCacheKey(models.RoleAluno, userID))
	}
	if s.notifier != nil {
		s.notifier.AttendanceRecorded(ctx, stored, lesson, user)
	}
	s.logger.Info("attendance recorded",
		zap.String("attendance_id", stored.ID),
		zap.String("lesson_id", lessonID),
		zap.String("user_id", userID),
		zap.String("status", string(stored.Status)),
	)
	return stored, nil
}

// checkEnrollment logs attendance for students outside the class roster. Trial
// sessions are allowed, so it never rejects.
func (s *AttendanceService) checkEnrollment(ctx context.Context, classID, userID string) {
	if s.enrollments == nil {
		return
	}
	_, err := s.enrollments.FindEnrollment(ctx, classID, userID)
	switch {
	case err == nil:
	case errors.Is(err, sql.ErrNoRows):
		s.logger.Debug("attendance for student not enrolled in class",
			zap.String("class_id", classID),
			zap.String("user_id", userID),
		)
	default:
		s.logger.Warn("enrollment lookup failed", zap.String("class_id", classID), zap.Error(err))
	}
}

// Status reports whether userID has an attendance record for the lesson.
func (s *AttendanceService) Status(ctx context.Context, lessonID, userID string) (*models.AttendanceCheckStatus, error) {
	attendance, err := s.repo.FindByLessonAndUser(ctx, lessonID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.AttendanceCheckStatus{CheckedIn: false}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	status := attendance.Status
	return &models.AttendanceCheckStatus{CheckedIn: true, Status: &status}, nil
}

// LessonAttendance lists the attendance of a lesson with the attendees.
func (s *AttendanceService) LessonAttendance(ctx context.Context, lessonID string) ([]models.LessonAttendance, error) {
	if _, err := s.lesson(ctx, lessonID); err != nil {
		return nil, err
	}
	entries, err := s.repo.ListByLesson(ctx, lessonID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	if entries == nil {
		entries = []models.LessonAttendance{}
	}
	return entries, nil
}

// Stats returns totals and history for userID. Students may only read their own.
func (s *AttendanceService) Stats(ctx context.Context, caller *models.JWTClaims, userID string) (*models.AttendanceStats, error) {
	if err := authorizeSelfOrStaff(caller, userID); err != nil {
		return nil, err
	}
	history, err := s.repo.ListHistoryByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance history")
	}
	if history == nil {
		history = []models.AttendanceHistoryItem{}
	}
	stats := &models.AttendanceStats{Total: len(history), History: history}
	for _, item := range history {
		if item.Status == models.AttendancePresent {
			stats.Present++
		}
	}
	return stats, nil
}

// Export renders the attendance history of userID as CSV or PDF.
func (s *AttendanceService) Export(ctx context.Context, caller *models.JWTClaims, userID, format string) ([]byte, export.Format, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return nil, "", fieldValidation("format", "must be one of: csv, pdf")
	}
	stats, err := s.Stats(ctx, caller, userID)
	if err != nil {
		return nil, "", err
	}

	table := export.Table{
		Title:   fmt.Sprintf("Attendance history - %d/%d present", stats.Present, stats.Total),
		Columns: []string{"Date", "Start", "Class", "Topic", "Status", "Notes"},
	}
	for _, item := range stats.History {
		table.AddRow(
			item.LessonDate,
			item.LessonStartTime,
			item.ClassName,
			deref(item.LessonTopic),
			string(item.Status),
			deref(item.Notes),
		)
	}
	out, err := export.Render(table, f)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return out, f, nil
}

func (s *AttendanceService) lesson(ctx context.Context, lessonID string) (*models.LessonDetail, error) {
	lesson, err := s.lessons.FindByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	return lesson, nil
}

// authorizeSelfOrStaff lets staff read any student and everyone else only themselves.
func authorizeSelfOrStaff(caller *models.JWTClaims, userID string) error {
	if caller == nil {
		return appErrors.ErrUnauthorized
	}
	if caller.Role.IsStaff() || caller.UserID == userID {
		return nil
	}
	return appErrors.ErrForbidden
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
