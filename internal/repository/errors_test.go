package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/jiu-academy-api/internal/models"
)

func malformedUUID() error {
	return &pq.Error{Code: "22P02", Message: `invalid input syntax for type uuid: "abc"`}
}

func TestIsInvalidInput(t *testing.T) {
	assert.True(t, isInvalidInput(malformedUUID()))
	assert.True(t, isInvalidInput(errors.Join(errors.New("find lesson"), malformedUUID())))
	assert.False(t, isInvalidInput(&pq.Error{Code: "23505"}))
	assert.False(t, isInvalidInput(sql.ErrNoRows))
}

func TestFindLessonMalformedIDIsNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE l.id = $1")).
		WithArgs("abc").
		WillReturnError(malformedUUID())

	lesson, err := repo.FindByID(context.Background(), "abc")
	assert.Nil(t, lesson)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindClassMalformedIDIsNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM classes WHERE id = $1")).
		WithArgs("abc").
		WillReturnError(malformedUUID())

	_, err := repo.FindByID(context.Background(), "abc")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindUserMalformedIDIsNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1")).
		WithArgs("x").
		WillReturnError(malformedUUID())

	_, err := repo.FindByID(context.Background(), "x")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteLessonMalformedIDReportsMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM scheduled_lessons WHERE id = $1")).
		WithArgs("abc").
		WillReturnError(malformedUUID())

	deleted, err := repo.Delete(context.Background(), "abc")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnenrollMalformedIDReportsMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM class_enrollments")).
		WithArgs("c1", "x").
		WillReturnError(malformedUUID())

	removed, err := repo.Unenroll(context.Background(), "c1", "x")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListLessonsMalformedFilterIsEmpty(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE l.class_id = $1")).
		WithArgs("abc").
		WillReturnError(malformedUUID())

	lessons, err := repo.List(context.Background(), models.LessonFilter{ClassID: "abc"})
	require.NoError(t, err)
	assert.Empty(t, lessons)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListLessonsOtherErrorsPropagate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM scheduled_lessons")).
		WillReturnError(&pq.Error{Code: "57014"})

	_, err := repo.List(context.Background(), models.LessonFilter{})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProgressMalformedStudentIsEmpty(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProgressRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM student_progress WHERE student_id = $1")).
		WithArgs("x").
		WillReturnError(malformedUUID())

	rows, err := repo.ListByStudent(context.Background(), "x")
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
