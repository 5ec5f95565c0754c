package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/jiu-academy-api/internal/models"
)

const progressColumns = `id, student_id, skill_name, proficiency_level, last_practiced, notes, professor_feedback, updated_at`

// ProgressRepository stores per-skill student progress.
type ProgressRepository struct {
	db *sqlx.DB
}

// NewProgressRepository constructs a ProgressRepository.
func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// ListByStudent returns a student's skills ordered by name.
func (r *ProgressRepository) ListByStudent(ctx context.Context, studentID string) ([]models.StudentProgress, error) {
	query := `SELECT ` + progressColumns + ` FROM student_progress WHERE student_id = $1 ORDER BY skill_name ASC`
	var rows []models.StudentProgress
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		if isInvalidInput(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list student progress: %w", err)
	}
	return rows, nil
}

// Upsert writes the progress row keyed by (student, skill).
func (r *ProgressRepository) Upsert(ctx context.Context, progress *models.StudentProgress) (*models.StudentProgress, error) {
	if progress.ID == "" {
		progress.ID = uuid.NewString()
	}
	progress.UpdatedAt = time.Now().UTC()
	query := `INSERT INTO student_progress (id, student_id, skill_name, proficiency_level, last_practiced, notes, professor_feedback, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (student_id, skill_name) DO UPDATE SET proficiency_level = EXCLUDED.proficiency_level, last_practiced = EXCLUDED.last_practiced, notes = EXCLUDED.notes, professor_feedback = EXCLUDED.professor_feedback, updated_at = EXCLUDED.updated_at
RETURNING ` + progressColumns
	var stored models.StudentProgress
	if err := r.db.GetContext(ctx, &stored, query,
		progress.ID,
		progress.StudentID,
		progress.SkillName,
		progress.ProficiencyLevel,
		progress.LastPracticed,
		progress.Notes,
		progress.ProfessorFeedback,
		progress.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("upsert student progress: %w", err)
	}
	return &stored, nil
}
