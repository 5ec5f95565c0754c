package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ClassSchedule stores the recurring days and start time of a class as jsonb.
type ClassSchedule struct {
	Days []string `json:"days"`
	Time string   `json:"time"`
}

// Value implements driver.Valuer.
func (s ClassSchedule) Value() (driver.Value, error) {
	if len(s.Days) == 0 && s.Time == "" {
		return nil, nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner.
func (s *ClassSchedule) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = ClassSchedule{}
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("unsupported schedule type %T", src)
	}
}

// Class is a recurring course offering.
type Class struct {
	ID          string        `db:"id" json:"id"`
	AcademyID   *string       `db:"academy_id" json:"academyId,omitempty"`
	Name        string        `db:"name" json:"name"`
	Description *string       `db:"description" json:"description,omitempty"`
	Schedule    ClassSchedule `db:"schedule" json:"schedule"`
	MaxStudents int           `db:"max_students" json:"maxStudents"`
	IsActive    bool          `db:"is_active" json:"isActive"`
	CreatedAt   time.Time     `db:"created_at" json:"createdAt"`
}

// EnrollmentStatus tracks whether a student still belongs to a class.
type EnrollmentStatus string

const (
	EnrollmentActive   EnrollmentStatus = "active"
	EnrollmentInactive EnrollmentStatus = "inactive"
)

// ClassEnrollment joins a user to a class. Unique per (class_id, user_id).
type ClassEnrollment struct {
	ID         string           `db:"id" json:"id"`
	ClassID    string           `db:"class_id" json:"classId"`
	UserID     string           `db:"user_id" json:"userId"`
	EnrolledAt time.Time        `db:"enrolled_at" json:"enrolledAt"`
	Status     EnrollmentStatus `db:"status" json:"status"`
}

// EnrolledStudent is an enrollment joined with its user.
type EnrolledStudent struct {
	EnrollmentID string           `db:"enrollment_id" json:"enrollmentId"`
	Status       EnrollmentStatus `db:"status" json:"status"`
	EnrolledAt   time.Time        `db:"enrolled_at" json:"enrolledAt"`
	UserID       string           `db:"user_id" json:"userId"`
	Name         string           `db:"name" json:"name"`
	Email        string           `db:"email" json:"email"`
	BeltColor    string           `db:"belt_color" json:"beltColor"`
	StripeCount  int              `db:"stripe_count" json:"stripeCount"`
}
