package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/jiu-academy-api/internal/models"
)

const contentColumns = `id, lesson_id, title, description, content_type, file_url, file_name, file_size, duration, positions, techniques, created_by, created_at`

// ContentRepository stores lesson content metadata.
type ContentRepository struct {
	db *sqlx.DB
}

// NewContentRepository constructs a ContentRepository.
func NewContentRepository(db *sqlx.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// Create inserts a content row.
func (r *ContentRepository) Create(ctx context.Context, content *models.LessonContent) error {
	if content.ID == "" {
		content.ID = uuid.NewString()
	}
	if content.CreatedAt.IsZero() {
		content.CreatedAt = time.Now().UTC()
	}
	if content.Positions == nil {
		content.Positions = pq.StringArray{}
	}
	if content.Techniques == nil {
		content.Techniques = pq.StringArray{}
	}
	const query = `INSERT INTO lesson_contents (id, lesson_id, title, description, content_type, file_url, file_name, file_size, duration, positions, techniques, created_by, created_at) VALUES (:id, :lesson_id, :title, :description, :content_type, :file_url, :file_name, :file_size, :duration, :positions, :techniques, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, content); err != nil {
		return fmt.Errorf("create lesson content: %w", err)
	}
	return nil
}

// FindByID returns a content row or sql.ErrNoRows.
func (r *ContentRepository) FindByID(ctx context.Context, id string) (*models.LessonContent, error) {
	query := `SELECT ` + contentColumns + ` FROM lesson_contents WHERE id = $1`
	var content models.LessonContent
	if err := r.db.GetContext(ctx, &content, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidInput(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find lesson content: %w", err)
	}
	return &content, nil
}

// ListByLesson returns the content of a lesson, newest first.
func (r *ContentRepository) ListByLesson(ctx context.Context, lessonID string) ([]models.LessonContent, error) {
	query := `SELECT ` + contentColumns + ` FROM lesson_contents WHERE lesson_id = $1 ORDER BY created_at DESC`
	var contents []models.LessonContent
	if err := r.db.SelectContext(ctx, &contents, query, lessonID); err != nil {
		if isInvalidInput(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list lesson content: %w", err)
	}
	return contents, nil
}

// Library returns the latest content across all lessons.
func (r *ContentRepository) Library(ctx context.Context, limit int) ([]models.LibraryItem, error) {
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT lc.id, lc.lesson_id, lc.title, lc.description, lc.content_type, lc.file_url, lc.file_name, lc.file_size, lc.duration, lc.positions, lc.techniques, lc.created_by, lc.created_at,
to_char(l.date, 'YYYY-MM-DD') AS lesson_date, l.topic AS lesson_topic
FROM lesson_contents lc
JOIN scheduled_lessons l ON l.id = lc.lesson_id
ORDER BY lc.created_at DESC
LIMIT %d`, limit)
	var items []models.LibraryItem
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list content library: %w", err)
	}
	return items, nil
}
