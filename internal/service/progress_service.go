package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/jiu-academy-api/internal/models"
	appErrors "github.com/noah-isme/jiu-academy-api/pkg/errors"
)

type progressRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.StudentProgress, error)
	Upsert(ctx context.Context, progress *models.StudentProgress) (*models.StudentProgress, error)
}

// UpsertProgressRequest records a skill assessment.
type UpsertProgressRequest struct {
	SkillName         string  `json:"skillName" validate:"required,min=2,max=100"`
	ProficiencyLevel  int     `json:"proficiencyLevel" validate:"required,min=1,max=5"`
	Notes             *string `json:"notes" validate:"omitempty,max=2000"`
	ProfessorFeedback *string `json:"professorFeedback" validate:"omitempty,max=2000"`
	LastPracticed     *string `json:"lastPracticed" validate:"omitempty,isodate"`
}

// ProgressService tracks per-skill proficiency of students.
type ProgressService struct {
	repo      progressRepository
	users     userFinder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProgressService constructs a ProgressService.
func NewProgressService(repo progressRepository, users userFinder, validate *validator.Validate, logger *zap.Logger) *ProgressService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressService{repo: repo, users: users, validator: ensureValidator(validate), logger: logger}
}

// List returns a student's skills. Students may only read their own.
func (s *ProgressService) List(ctx context.Context, caller *models.JWTClaims, studentID string) ([]models.StudentProgress, error) {
	if err := authorizeSelfOrStaff(caller, studentID); err != nil {
		return nil, err
	}
	items, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load progress")
	}
	if items == nil {
		items = []models.StudentProgress{}
	}
	return items, nil
}

// Upsert writes the assessment of one skill for studentID.
func (s *ProgressService) Upsert(ctx context.Context, studentID string, req UpsertProgressRequest) (*models.StudentProgress, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	student, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	progress := &models.StudentProgress{
		StudentID:         student.ID,
		SkillName:         strings.TrimSpace(req.SkillName),
		ProficiencyLevel:  req.ProficiencyLevel,
		Notes:             req.Notes,
		ProfessorFeedback: req.ProfessorFeedback,
	}
	if req.LastPracticed != nil {
		practiced, err := parseDate(*req.LastPracticed)
		if err != nil {
			return nil, fieldValidation("lastPracticed", "must be a date in YYYY-MM-DD format")
		}
		progress.LastPracticed = &practiced
	}

	stored, err := s.repo.Upsert(ctx, progress)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save progress")
	}
	s.logger.Info("student progress updated",
		zap.String("student_id", studentID),
		zap.String("skill", stored.SkillName),
		zap.Int("level", stored.ProficiencyLevel),
	)
	return stored, nil
}
