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

const attendanceColumns = `id, lesson_id, user_id, status, check_in_time, checked_by, notes, created_at`

const attendanceHistorySelect = `SELECT a.id, a.lesson_id, a.user_id, a.status, a.check_in_time, a.checked_by, a.notes, a.created_at,
to_char(l.date, 'YYYY-MM-DD') AS lesson_date, to_char(l.start_time, 'HH24:MI') AS lesson_start_time, l.topic AS lesson_topic, c.id AS class_id, c.name AS class_name
FROM attendances a
JOIN scheduled_lessons l ON l.id = a.lesson_id
JOIN classes c ON c.id = l.class_id
WHERE a.user_id = $1`

// AttendanceRepository persists attendance records keyed by (lesson, user).
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Upsert writes the attendance for (lesson, user) in a single statement. An existing
// row keeps its id, created_at and checked_by; status, notes and check-in time are replaced.
func (r *AttendanceRepository) Upsert(ctx context.Context, attendance *models.Attendance) (*models.Attendance, error) {
	if attendance.ID == "" {
		attendance.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if attendance.CreatedAt.IsZero() {
		attendance.CreatedAt = now
	}
	if attendance.CheckInTime == nil {
		attendance.CheckInTime = &now
	}
	query := `INSERT INTO attendances (id, lesson_id, user_id, status, check_in_time, checked_by, notes, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (lesson_id, user_id) DO UPDATE SET status = EXCLUDED.status, notes = EXCLUDED.notes, check_in_time = EXCLUDED.check_in_time
RETURNING ` + attendanceColumns
	var stored models.Attendance
	if err := r.db.GetContext(ctx, &stored, query,
		attendance.ID,
		attendance.LessonID,
		attendance.UserID,
		attendance.Status,
		attendance.CheckInTime,
		attendance.CheckedBy,
		attendance.Notes,
		attendance.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("upsert attendance: %w", err)
	}
	return &stored, nil
}

// FindByLessonAndUser returns the attendance row for the pair or sql.ErrNoRows.
func (r *AttendanceRepository) FindByLessonAndUser(ctx context.Context, lessonID, userID string) (*models.Attendance, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendances WHERE lesson_id = $1 AND user_id = $2`
	var attendance models.Attendance
	if err := r.db.GetContext(ctx, &attendance, query, lessonID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidInput(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find attendance: %w", err)
	}
	return &attendance, nil
}

// ListByLesson returns the attendance of a lesson joined with each attendee.
func (r *AttendanceRepository) ListByLesson(ctx context.Context, lessonID string) ([]models.LessonAttendance, error) {
	const query = `SELECT a.id, a.lesson_id, a.user_id, a.status, a.check_in_time, a.checked_by, a.notes, a.created_at,
u.name AS user_name, u.email AS user_email, u.belt_color
FROM attendances a
JOIN users u ON u.id = a.user_id
WHERE a.lesson_id = $1
ORDER BY u.name ASC`
	var rows []models.LessonAttendance
	if err := r.db.SelectContext(ctx, &rows, query, lessonID); err != nil {
		if isInvalidInput(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list lesson attendance: %w", err)
	}
	return rows, nil
}

// ListHistoryByUser returns every attendance of a user with its lesson, newest lesson first.
func (r *AttendanceRepository) ListHistoryByUser(ctx context.Context, userID string) ([]models.AttendanceHistoryItem, error) {
	query := attendanceHistorySelect + ` ORDER BY l.date DESC, l.start_time DESC`
	var rows []models.AttendanceHistoryItem
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		if isInvalidInput(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list attendance history: %w", err)
	}
	return rows, nil
}

// Recent returns the latest attendance records of a user by creation time.
func (r *AttendanceRepository) Recent(ctx context.Context, userID string, limit int) ([]models.AttendanceHistoryItem, error) {
	if limit <= 0 {
		limit = 5
	}
	query := attendanceHistorySelect + fmt.Sprintf(` ORDER BY a.created_at DESC LIMIT %d`, limit)
	var rows []models.AttendanceHistoryItem
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		if isInvalidInput(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list recent attendance: %w", err)
	}
	return rows, nil
}

// CountByStatus counts a user's attendance rows with the given status.
func (r *AttendanceRepository) CountByStatus(ctx context.Context, userID string, status models.AttendanceStatus) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM attendances WHERE user_id = $1 AND status = $2`, userID, status); err != nil {
		if isInvalidInput(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("count attendance: %w", err)
	}
	return total, nil
}
