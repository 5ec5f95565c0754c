package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/jiu-academy-api/internal/models"
)

const classColumns = `id, academy_id, name, description, schedule, max_students, is_active, created_at`

// ClassRepository manages classes and their enrollments.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a ClassRepository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// List returns all classes ordered by name.
func (r *ClassRepository) List(ctx context.Context) ([]models.Class, error) {
	query := `SELECT ` + classColumns + ` FROM classes ORDER BY name ASC`
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// FindByID returns a class or sql.ErrNoRows.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	query := `SELECT ` + classColumns + ` FROM classes WHERE id = $1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidInput(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find class: %w", err)
	}
	return &class, nil
}

// Create inserts a new class.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	if class.CreatedAt.IsZero() {
		class.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO classes (id, academy_id, name, description, schedule, max_students, is_active, created_at) VALUES (:id, :academy_id, :name, :description, :schedule, :max_students, :is_active, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// Update replaces the mutable columns of a class.
func (r *ClassRepository) Update(ctx context.Context, class *models.Class) error {
	const query = `UPDATE classes SET academy_id = :academy_id, name = :name, description = :description, schedule = :schedule, max_students = :max_students, is_active = :is_active WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("update class: %w", err)
	}
	return nil
}

// Delete removes a class and reports whether it existed.
func (r *ClassRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, id)
	if err != nil {
		if isInvalidInput(err) {
			return false, nil
		}
		return false, fmt.Errorf("delete class: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete class: %w", err)
	}
	return affected > 0, nil
}

// Count returns the number of active classes.
func (r *ClassRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM classes WHERE is_active = TRUE`); err != nil {
		return 0, fmt.Errorf("count classes: %w", err)
	}
	return total, nil
}

// FindEnrollment returns the enrollment for (class, user) or sql.ErrNoRows.
func (r *ClassRepository) FindEnrollment(ctx context.Context, classID, userID string) (*models.ClassEnrollment, error) {
	const query = `SELECT id, class_id, user_id, enrolled_at, status FROM class_enrollments WHERE class_id = $1 AND user_id = $2`
	var enrollment models.ClassEnrollment
	if err := r.db.GetContext(ctx, &enrollment, query, classID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidInput(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find enrollment: %w", err)
	}
	return &enrollment, nil
}

// Enroll inserts an enrollment. A repeated (class, user) pair yields ErrDuplicate.
func (r *ClassRepository) Enroll(ctx context.Context, enrollment *models.ClassEnrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = time.Now().UTC()
	}
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentActive
	}
	const query = `INSERT INTO class_enrollments (id, class_id, user_id, enrolled_at, status) VALUES (:id, :class_id, :user_id, :enrolled_at, :status)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("enroll student: %w", mapUniqueViolation(err))
	}
	return nil
}

// Unenroll deletes the enrollment and reports whether it existed.
func (r *ClassRepository) Unenroll(ctx context.Context, classID, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM class_enrollments WHERE class_id = $1 AND user_id = $2`, classID, userID)
	if err != nil {
		if isInvalidInput(err) {
			return false, nil
		}
		return false, fmt.Errorf("unenroll student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("unenroll student: %w", err)
	}
	return affected > 0, nil
}

// ListStudents returns the students enrolled in a class ordered by name.
func (r *ClassRepository) ListStudents(ctx context.Context, classID string) ([]models.EnrolledStudent, error) {
	const query = `SELECT e.id AS enrollment_id, e.status, e.enrolled_at, u.id AS user_id, u.name, u.email, u.belt_color, u.stripe_count
FROM class_enrollments e
JOIN users u ON u.id = e.user_id
WHERE e.class_id = $1
ORDER BY u.name ASC`
	var students []models.EnrolledStudent
	if err := r.db.SelectContext(ctx, &students, query, classID); err != nil {
		if isInvalidInput(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list class students: %w", err)
	}
	return students, nil
}
