package models

import "time"

// AttendanceStatus is the recorded presence state for a lesson.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceExcused AttendanceStatus = "excused"
)

// IsValid reports whether s is a known attendance status.
func (s AttendanceStatus) IsValid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused:
		return true
	}
	return false
}

// Attendance is one record per (lesson_id, user_id).
type Attendance struct {
	ID          string           `db:"id" json:"id"`
	LessonID    string           `db:"lesson_id" json:"lessonId"`
	UserID      string           `db:"user_id" json:"userId"`
	Status      AttendanceStatus `db:"status" json:"status"`
	CheckInTime *time.Time       `db:"check_in_time" json:"checkInTime,omitempty"`
	CheckedBy   *string          `db:"checked_by" json:"checkedBy,omitempty"`
	Notes       *string          `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time        `db:"created_at" json:"createdAt"`
}

// LessonAttendance is an attendance row joined with the attendee.
type LessonAttendance struct {
	Attendance
	UserName  string `db:"user_name" json:"userName"`
	UserEmail string `db:"user_email" json:"userEmail"`
	BeltColor string `db:"belt_color" json:"beltColor"`
}

// AttendanceHistoryItem is an attendance row joined with its lesson and class.
type AttendanceHistoryItem struct {
	Attendance
	LessonDate      string  `db:"lesson_date" json:"lessonDate"`
	LessonStartTime string  `db:"lesson_start_time" json:"lessonStartTime"`
	LessonTopic     *string `db:"lesson_topic" json:"lessonTopic,omitempty"`
	ClassID         string  `db:"class_id" json:"classId"`
	ClassName       string  `db:"class_name" json:"className"`
}

// AttendanceStats aggregates a user's attendance history.
type AttendanceStats struct {
	Total   int                     `json:"total"`
	Present int                     `json:"present"`
	History []AttendanceHistoryItem `json:"history"`
}

// AttendanceCheckStatus answers whether the caller already checked in.
type AttendanceCheckStatus struct {
	CheckedIn bool              `json:"checkedIn"`
	Status    *AttendanceStatus `json:"status,omitempty"`
}
