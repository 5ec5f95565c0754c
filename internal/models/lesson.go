package models

import "time"

// LessonStatus describes the lifecycle of a scheduled lesson.
type LessonStatus string

const (
	LessonScheduled  LessonStatus = "scheduled"
	LessonInProgress LessonStatus = "in_progress"
	LessonCompleted  LessonStatus = "completed"
	LessonCancelled  LessonStatus = "cancelled"
)

// IsValid reports whether s is a known lesson status.
func (s LessonStatus) IsValid() bool {
	switch s {
	case LessonScheduled, LessonInProgress, LessonCompleted, LessonCancelled:
		return true
	}
	return false
}

// ScheduledLesson is one dated occurrence of a class. Unique per (class_id, date, start_time).
// Date is formatted YYYY-MM-DD and times HH:MM.
type ScheduledLesson struct {
	ID          string       `db:"id" json:"id"`
	ClassID     string       `db:"class_id" json:"classId"`
	Date        string       `db:"date" json:"date"`
	StartTime   string       `db:"start_time" json:"startTime"`
	EndTime     string       `db:"end_time" json:"endTime"`
	ProfessorID *string      `db:"professor_id" json:"professorId,omitempty"`
	Topic       *string      `db:"topic" json:"topic,omitempty"`
	Status      LessonStatus `db:"status" json:"status"`
	CreatedAt   time.Time    `db:"created_at" json:"createdAt"`
}

// LessonDetail is a lesson joined with its class and professor names.
type LessonDetail struct {
	ScheduledLesson
	ClassName     string  `db:"class_name" json:"className"`
	ProfessorName *string `db:"professor_name" json:"professorName,omitempty"`
}

// LessonFilter captures list criteria. EndDate is only honoured together with StartDate.
type LessonFilter struct {
	ClassID     string
	ProfessorID string
	Status      *LessonStatus
	StartDate   string
	EndDate     string
}

// UpcomingFilter selects lessons dated on or after From.
type UpcomingFilter struct {
	From        string
	ProfessorID string
	Limit       int
}
