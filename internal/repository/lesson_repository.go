package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/jiu-academy-api/internal/models"
)

const lessonDetailSelect = `SELECT l.id, l.class_id, to_char(l.date, 'YYYY-MM-DD') AS date, to_char(l.start_time, 'HH24:MI') AS start_time, to_char(l.end_time, 'HH24:MI') AS end_time, l.professor_id, l.topic, l.status, l.created_at, c.name AS class_name, p.name AS professor_name
FROM scheduled_lessons l
JOIN classes c ON c.id = l.class_id
LEFT JOIN users p ON p.id = l.professor_id`

const lessonOrder = ` ORDER BY l.date ASC, l.start_time ASC`

// LessonRepository persists scheduled lessons.
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository constructs a LessonRepository.
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

// Create inserts a lesson. A taken (class, date, start time) slot yields ErrDuplicate.
func (r *LessonRepository) Create(ctx context.Context, lesson *models.ScheduledLesson) error {
	if lesson.ID == "" {
		lesson.ID = uuid.NewString()
	}
	if lesson.Status == "" {
		lesson.Status = models.LessonScheduled
	}
	if lesson.CreatedAt.IsZero() {
		lesson.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO scheduled_lessons (id, class_id, date, start_time, end_time, professor_id, topic, status, created_at) VALUES ($1, $2, $3::date, $4::time, $5::time, $6, $7, $8, $9)`
	if _, err := r.db.ExecContext(ctx, query,
		lesson.ID,
		lesson.ClassID,
		lesson.Date,
		lesson.StartTime,
		lesson.EndTime,
		lesson.ProfessorID,
		lesson.Topic,
		lesson.Status,
		lesson.CreatedAt,
	); err != nil {
		return fmt.Errorf("create lesson: %w", mapUniqueViolation(err))
	}
	return nil
}

// FindByID returns the lesson with class and professor names or sql.ErrNoRows.
func (r *LessonRepository) FindByID(ctx context.Context, id string) (*models.LessonDetail, error) {
	query := lessonDetailSelect + ` WHERE l.id = $1`
	var lesson models.LessonDetail
	if err := r.db.GetContext(ctx, &lesson, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidInput(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find lesson: %w", err)
	}
	return &lesson, nil
}

// List returns lessons matching the filter ordered by date then start time.
func (r *LessonRepository) List(ctx context.Context, filter models.LessonFilter) ([]models.LessonDetail, error) {
	var conditions []string
	var args []interface{}

	if filter.ClassID != "" {
		args = append(args, filter.ClassID)
		conditions = append(conditions, fmt.Sprintf("l.class_id = $%d", len(args)))
	}
	if filter.ProfessorID != "" {
		args = append(args, filter.ProfessorID)
		conditions = append(conditions, fmt.Sprintf("l.professor_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("l.status = $%d", len(args)))
	}
	if filter.StartDate != "" {
		args = append(args, filter.StartDate)
		if filter.EndDate != "" {
			args = append(args, filter.EndDate)
			conditions = append(conditions, fmt.Sprintf("l.date BETWEEN $%d::date AND $%d::date", len(args)-1, len(args)))
		} else {
			conditions = append(conditions, fmt.Sprintf("l.date >= $%d::date", len(args)))
		}
	}

	query := lessonDetailSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += lessonOrder

	var lessons []models.LessonDetail
	if err := r.db.SelectContext(ctx, &lessons, query, args...); err != nil {
		if isInvalidInput(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	return lessons, nil
}

// Upcoming returns non-cancelled lessons dated on or after filter.From.
func (r *LessonRepository) Upcoming(ctx context.Context, filter models.UpcomingFilter) ([]models.LessonDetail, error) {
	args := []interface{}{filter.From}
	query := lessonDetailSelect + ` WHERE l.date >= $1::date AND l.status <> 'cancelled'`
	if filter.ProfessorID != "" {
		args = append(args, filter.ProfessorID)
		query += fmt.Sprintf(" AND l.professor_id = $%d", len(args))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 5
	}
	query += lessonOrder + fmt.Sprintf(" LIMIT %d", limit)

	var lessons []models.LessonDetail
	if err := r.db.SelectContext(ctx, &lessons, query, args...); err != nil {
		return nil, fmt.Errorf("list upcoming lessons: %w", err)
	}
	return lessons, nil
}

// Update rewrites the schedule fields of a lesson. A slot collision yields ErrDuplicate.
func (r *LessonRepository) Update(ctx context.Context, lesson *models.ScheduledLesson) error {
	const query = `UPDATE scheduled_lessons SET class_id = $2, date = $3::date, start_time = $4::time, end_time = $5::time, professor_id = $6, topic = $7, status = $8 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query,
		lesson.ID,
		lesson.ClassID,
		lesson.Date,
		lesson.StartTime,
		lesson.EndTime,
		lesson.ProfessorID,
		lesson.Topic,
		lesson.Status,
	); err != nil {
		return fmt.Errorf("update lesson: %w", mapUniqueViolation(err))
	}
	return nil
}

// UpdateStatus sets the lifecycle status and reports whether the lesson existed.
func (r *LessonRepository) UpdateStatus(ctx context.Context, id string, status models.LessonStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE scheduled_lessons SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		if isInvalidInput(err) {
			return false, nil
		}
		return false, fmt.Errorf("update lesson status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update lesson status: %w", err)
	}
	return affected > 0, nil
}

// Delete removes a lesson and reports whether it existed.
func (r *LessonRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM scheduled_lessons WHERE id = $1`, id)
	if err != nil {
		if isInvalidInput(err) {
			return false, nil
		}
		return false, fmt.Errorf("delete lesson: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete lesson: %w", err)
	}
	return affected > 0, nil
}

// CountOnDate returns the number of non-cancelled lessons on a date.
func (r *LessonRepository) CountOnDate(ctx context.Context, date string) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM scheduled_lessons WHERE date = $1::date AND status <> 'cancelled'`, date); err != nil {
		return 0, fmt.Errorf("count lessons on date: %w", err)
	}
	return total, nil
}
