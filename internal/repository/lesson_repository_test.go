package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/jiu-academy-api/internal/models"
)

var lessonRowColumns = []string{"id", "class_id", "date", "start_time", "end_time", "professor_id", "topic", "status", "created_at", "class_name", "professor_name"}

func TestCreateLessonSlotTaken(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO scheduled_lessons")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "scheduled_lessons_class_id_date_start_time_key"})

	err := repo.Create(context.Background(), &models.ScheduledLesson{ClassID: "c1", Date: "2024-03-01", StartTime: "19:00", EndTime: "20:30"})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateLessonDefaults(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("VALUES ($1, $2, $3::date, $4::time, $5::time, $6, $7, $8, $9)")).
		WithArgs(sqlmock.AnyArg(), "c1", "2024-03-01", "19:00", "20:30", nil, nil, models.LessonScheduled, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	lesson := &models.ScheduledLesson{ClassID: "c1", Date: "2024-03-01", StartTime: "19:00", EndTime: "20:30"}
	require.NoError(t, repo.Create(context.Background(), lesson))
	assert.NotEmpty(t, lesson.ID)
	assert.Equal(t, models.LessonScheduled, lesson.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListLessonsDateRange(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(lessonRowColumns).
		AddRow("l1", "c1", "2024-03-01", "19:00", "20:30", "p1", "Guard passing", "scheduled", now, "Fundamentals", "Prof")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE l.class_id = $1 AND l.date BETWEEN $2::date AND $3::date ORDER BY l.date ASC, l.start_time ASC")).
		WithArgs("c1", "2024-03-01", "2024-03-31").
		WillReturnRows(rows)

	lessons, err := repo.List(context.Background(), models.LessonFilter{ClassID: "c1", StartDate: "2024-03-01", EndDate: "2024-03-31"})
	require.NoError(t, err)
	require.Len(t, lessons, 1)
	assert.Equal(t, "Fundamentals", lessons[0].ClassName)
	assert.Equal(t, "19:00", lessons[0].StartTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListLessonsEndDateIgnoredWithoutStart(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN users p ON p.id = l.professor_id ORDER BY l.date ASC")).
		WithArgs().
		WillReturnRows(sqlmock.NewRows(lessonRowColumns))

	lessons, err := repo.List(context.Background(), models.LessonFilter{EndDate: "2024-03-31"})
	require.NoError(t, err)
	assert.Empty(t, lessons)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpcomingForProfessor(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE l.date >= $1::date AND l.status <> 'cancelled' AND l.professor_id = $2 ORDER BY l.date ASC, l.start_time ASC LIMIT 10")).
		WithArgs("2024-03-01", "p1").
		WillReturnRows(sqlmock.NewRows(lessonRowColumns))

	_, err := repo.Upcoming(context.Background(), models.UpcomingFilter{From: "2024-03-01", ProfessorID: "p1", Limit: 10})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateLessonStatusMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE scheduled_lessons SET status = $2 WHERE id = $1")).
		WithArgs("nope", models.LessonCompleted).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.UpdateStatus(context.Background(), "nope", models.LessonCompleted)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
