package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/jiu-academy-api/internal/models"
	"github.com/noah-isme/jiu-academy-api/internal/repository"
	appErrors "github.com/noah-isme/jiu-academy-api/pkg/errors"
)

const (
	upcomingLessonsLimit = 5
	lessonSlotTaken      = "Lesson already scheduled for this class at this time"
)

type lessonRepository interface {
	Create(ctx context.Context, lesson *models.ScheduledLesson) error
	FindByID(ctx context.Context, id string) (*models.LessonDetail, error)
	List(ctx context.Context, filter models.LessonFilter) ([]models.LessonDetail, error)
	Upcoming(ctx context.Context, filter models.UpcomingFilter) ([]models.LessonDetail, error)
	Update(ctx context.Context, lesson *models.ScheduledLesson) error
	UpdateStatus(ctx context.Context, id string, status models.LessonStatus) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type dashboardInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

type classFinder interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

// CreateLessonRequest schedules one occurrence of a class.
type CreateLessonRequest struct {
	ClassID     string  `json:"classId" validate:"required"`
	Date        string  `json:"date" validate:"required,isodate"`
	StartTime   string  `json:"startTime" validate:"required,hhmm"`
	EndTime     string  `json:"endTime" validate:"required,hhmm"`
	ProfessorID *string `json:"professorId"`
	Topic       *string `json:"topic" validate:"omitempty,max=255"`
}

// UpdateLessonRequest is a partial lesson update.
type UpdateLessonRequest struct {
	ClassID     *string `json:"classId" validate:"omitempty,min=1"`
	Date        *string `json:"date" validate:"omitempty,isodate"`
	StartTime   *string `json:"startTime" validate:"omitempty,hhmm"`
	EndTime     *string `json:"endTime" validate:"omitempty,hhmm"`
	ProfessorID *string `json:"professorId"`
	Topic       *string `json:"topic" validate:"omitempty,max=255"`
}

// UpdateLessonStatusRequest changes the lifecycle status of a lesson.
type UpdateLessonStatusRequest struct {
	Status models.LessonStatus `json:"status" validate:"required,oneof=scheduled in_progress completed cancelled"`
}

// LessonQuery holds the list filters accepted from the query string.
type LessonQuery struct {
	ClassID     string `form:"classId"`
	ProfessorID string `form:"professorId"`
	Status      string `form:"status" validate:"omitempty,oneof=scheduled in_progress completed cancelled"`
	StartDate   string `form:"startDate" validate:"omitempty,isodate"`
	EndDate     string `form:"endDate" validate:"omitempty,isodate"`
}

// LessonService manages the lesson calendar.
type LessonService struct {
	repo      lessonRepository
	classes   classFinder
	users     userFinder
	cache     dashboardInvalidator
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewLessonService constructs a LessonService.
func NewLessonService(repo lessonRepository, classes classFinder, users userFinder, validate *validator.Validate, logger *zap.Logger) *LessonService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LessonService{
		repo:      repo,
		classes:   classes,
		users:     users,
		validator: ensureValidator(validate),
		logger:    logger,
		now:       time.Now,
	}
}

// AttachCache makes lesson writes drop every cached dashboard.
func (s *LessonService) AttachCache(cache dashboardInvalidator) {
	s.cache = cache
}

// Create schedules a lesson. The professor defaults to the caller.
func (s *LessonService) Create(ctx context.Context, callerID string, req CreateLessonRequest) (*models.ScheduledLesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if req.EndTime <= req.StartTime {
		return nil, fieldValidation("endTime", "must be after startTime")
	}
	if err := s.ensureClass(ctx, req.ClassID); err != nil {
		return nil, err
	}

	professorID := callerID
	if req.ProfessorID != nil && strings.TrimSpace(*req.ProfessorID) != "" {
		professorID = strings.TrimSpace(*req.ProfessorID)
	}
	if err := s.ensureProfessor(ctx, professorID); err != nil {
		return nil, err
	}

	lesson := &models.ScheduledLesson{
		ClassID:     req.ClassID,
		Date:        req.Date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		ProfessorID: &professorID,
		Topic:       req.Topic,
		Status:      models.LessonScheduled,
	}
	if err := s.repo.Create(ctx, lesson); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, lessonSlotTaken)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lesson")
	}
	s.logger.Info("lesson scheduled",
		zap.String("lesson_id", lesson.ID),
		zap.String("class_id", lesson.ClassID),
		zap.String("date", lesson.Date),
	)
	s.invalidateDashboards(ctx)
	return lesson, nil
}

// List returns lessons ordered by date and start time.
func (s *LessonService) List(ctx context.Context, query LessonQuery) ([]models.LessonDetail, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, validationError(err)
	}
	filter := models.LessonFilter{
		ClassID:     query.ClassID,
		ProfessorID: query.ProfessorID,
		StartDate:   query.StartDate,
		EndDate:     query.EndDate,
	}
	if query.Status != "" {
		status := models.LessonStatus(query.Status)
		filter.Status = &status
	}
	lessons, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lessons")
	}
	if lessons == nil {
		lessons = []models.LessonDetail{}
	}
	return lessons, nil
}

// Get returns a lesson with its class and professor.
func (s *LessonService) Get(ctx context.Context, id string) (*models.LessonDetail, error) {
	lesson, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	return lesson, nil
}

// Upcoming returns the next non-cancelled lessons from today on.
func (s *LessonService) Upcoming(ctx context.Context) ([]models.LessonDetail, error) {
	lessons, err := s.repo.Upcoming(ctx, models.UpcomingFilter{From: s.today(), Limit: upcomingLessonsLimit})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list upcoming lessons")
	}
	if lessons == nil {
		lessons = []models.LessonDetail{}
	}
	return lessons, nil
}

// UpdateStatus sets the lifecycle status of a lesson.
func (s *LessonService) UpdateStatus(ctx context.Context, id string, req UpdateLessonStatusRequest) (*models.LessonDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	updated, err := s.repo.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lesson status")
	}
	if !updated {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "Lesson not found")
	}
	s.invalidateDashboards(ctx)
	return s.Get(ctx, id)
}

// Update merges the provided fields into a lesson.
func (s *LessonService) Update(ctx context.Context, id string, req UpdateLessonRequest) (*models.LessonDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	lesson := current.ScheduledLesson

	if req.ClassID != nil && *req.ClassID != lesson.ClassID {
		if err := s.ensureClass(ctx, *req.ClassID); err != nil {
			return nil, err
		}
		lesson.ClassID = *req.ClassID
	}
	if req.ProfessorID != nil {
		if err := s.ensureProfessor(ctx, *req.ProfessorID); err != nil {
			return nil, err
		}
		lesson.ProfessorID = req.ProfessorID
	}
	if req.Date != nil {
		lesson.Date = *req.Date
	}
	if req.StartTime != nil {
		lesson.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		lesson.EndTime = *req.EndTime
	}
	if req.Topic != nil {
		lesson.Topic = req.Topic
	}
	if lesson.EndTime <= lesson.StartTime {
		return nil, fieldValidation("endTime", "must be after startTime")
	}

	if err := s.repo.Update(ctx, &lesson); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, lessonSlotTaken)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lesson")
	}
	s.invalidateDashboards(ctx)
	return s.Get(ctx, id)
}

// Delete removes a lesson with its attendance and content.
func (s *LessonService) Delete(ctx context.Context, id string) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lesson")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "Lesson not found")
	}
	s.invalidateDashboards(ctx)
	return nil
}

// Upcoming lessons appear on every dashboard, so one write stales them all.
func (s *LessonService) invalidateDashboards(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Invalidate(ctx, "dash:*")
}

func (s *LessonService) ensureClass(ctx context.Context, classID string) error {
	if _, err := s.classes.FindByID(ctx, classID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "Class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return nil
}

func (s *LessonService) ensureProfessor(ctx context.Context, professorID string) error {
	user, err := s.users.FindByID(ctx, professorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "Professor not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load professor")
	}
	if !user.Role.IsStaff() {
		return appErrors.Clone(appErrors.ErrNotFound, "Professor not found")
	}
	return nil
}

func (s *LessonService) today() string {
	return s.now().Format(dateLayout)
}
