package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/jiu-academy-api/internal/models"
	"github.com/noah-isme/jiu-academy-api/internal/repository"
	appErrors "github.com/noah-isme/jiu-academy-api/pkg/errors"
)

const defaultMaxStudents = 20

type classRepository interface {
	List(ctx context.Context) ([]models.Class, error)
	FindByID(ctx context.Context, id string) (*models.Class, error)
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, class *models.Class) error
	Delete(ctx context.Context, id string) (bool, error)
	FindEnrollment(ctx context.Context, classID, userID string) (*models.ClassEnrollment, error)
	Enroll(ctx context.Context, enrollment *models.ClassEnrollment) error
	Unenroll(ctx context.Context, classID, userID string) (bool, error)
	ListStudents(ctx context.Context, classID string) ([]models.EnrolledStudent, error)
}

type userFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// ScheduleRequest describes the recurring days and start time of a class.
type ScheduleRequest struct {
	Days []string `json:"days" validate:"dive,required"`
	Time string   `json:"time" validate:"omitempty,hhmm"`
}

// CreateClassRequest payload for creating classes.
type CreateClassRequest struct {
	Name        string           `json:"name" validate:"required,min=2"`
	Description *string          `json:"description"`
	Schedule    *ScheduleRequest `json:"schedule"`
	MaxStudents *int             `json:"maxStudents" validate:"omitempty,gt=0"`
	AcademyID   *string          `json:"academyId" validate:"omitempty,uuid"`
}

// UpdateClassRequest is a partial class update.
type UpdateClassRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=2"`
	Description *string          `json:"description"`
	Schedule    *ScheduleRequest `json:"schedule"`
	MaxStudents *int             `json:"maxStudents" validate:"omitempty,gt=0"`
	IsActive    *bool            `json:"isActive"`
}

// EnrollRequest names the student to add to a class.
type EnrollRequest struct {
	StudentID string `json:"studentId" validate:"required"`
}

// ClassService manages classes and enrollments.
type ClassService struct {
	repo      classRepository
	users     userFinder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService constructs a ClassService.
func NewClassService(repo classRepository, users userFinder, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, users: users, validator: ensureValidator(validate), logger: logger}
}

// List returns all classes.
func (s *ClassService) List(ctx context.Context) ([]models.Class, error) {
	classes, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	if classes == nil {
		classes = []models.Class{}
	}
	return classes, nil
}

// Get returns a class by id.
func (s *ClassService) Get(ctx context.Context, id string) (*models.Class, error) {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

// Create validates and inserts a class.
func (s *ClassService) Create(ctx context.Context, req CreateClassRequest) (*models.Class, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	class := &models.Class{
		AcademyID:   req.AcademyID,
		Name:        req.Name,
		Description: req.Description,
		MaxStudents: defaultMaxStudents,
		IsActive:    true,
	}
	if req.MaxStudents != nil {
		class.MaxStudents = *req.MaxStudents
	}
	if req.Schedule != nil {
		class.Schedule = models.ClassSchedule{Days: req.Schedule.Days, Time: req.Schedule.Time}
	}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	s.logger.Info("class created", zap.String("class_id", class.ID))
	return class, nil
}

// Update merges the provided fields into an existing class.
func (s *ClassService) Update(ctx context.Context, id string, req UpdateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	class, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		class.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		class.Description = req.Description
	}
	if req.Schedule != nil {
		class.Schedule = models.ClassSchedule{Days: req.Schedule.Days, Time: req.Schedule.Time}
	}
	if req.MaxStudents != nil {
		class.MaxStudents = *req.MaxStudents
	}
	if req.IsActive != nil {
		class.IsActive = *req.IsActive
	}
	if err := s.repo.Update(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class")
	}
	return class, nil
}

// Delete removes a class together with its enrollments and lessons.
func (s *ClassService) Delete(ctx context.Context, id string) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "Class not found")
	}
	return nil
}

// Enroll adds a student to a class. Capacity is not enforced.
func (s *ClassService) Enroll(ctx context.Context, classID string, req EnrollRequest) (*models.ClassEnrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	class, err := s.Get(ctx, classID)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	if _, err := s.repo.FindEnrollment(ctx, classID, req.StudentID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "Student already enrolled")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}

	enrollment := &models.ClassEnrollment{ClassID: classID, UserID: req.StudentID, Status: models.EnrollmentActive}
	if err := s.repo.Enroll(ctx, enrollment); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "Student already enrolled")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll student")
	}
	s.logger.Info("student enrolled",
		zap.String("class_id", class.ID),
		zap.String("student_id", req.StudentID),
		zap.Int("max_students", class.MaxStudents),
	)
	return enrollment, nil
}

// Unenroll removes a student from a class.
func (s *ClassService) Unenroll(ctx context.Context, classID, studentID string) error {
	removed, err := s.repo.Unenroll(ctx, classID, studentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove student")
	}
	if !removed {
		return appErrors.Clone(appErrors.ErrNotFound, "Student not enrolled in this class")
	}
	return nil
}

// Students lists the students enrolled in a class.
func (s *ClassService) Students(ctx context.Context, classID string) ([]models.EnrolledStudent, error) {
	if _, err := s.Get(ctx, classID); err != nil {
		return nil, err
	}
	students, err := s.repo.ListStudents(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	if students == nil {
		students = []models.EnrolledStudent{}
	}
	return students, nil
}
