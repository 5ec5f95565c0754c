package models

import "time"

// Profile is the optional 1:1 extension of a user.
type Profile struct {
	ID               string     `db:"id" json:"id"`
	UserID           string     `db:"user_id" json:"userId"`
	BirthDate        *time.Time `db:"birth_date" json:"birthDate,omitempty"`
	Phone            *string    `db:"phone" json:"phone,omitempty"`
	EmergencyContact *string    `db:"emergency_contact" json:"emergencyContact,omitempty"`
	MedicalNotes     *string    `db:"medical_notes" json:"medicalNotes,omitempty"`
	StartDate        *time.Time `db:"start_date" json:"startDate,omitempty"`
	GraduationDate   *time.Time `db:"graduation_date" json:"graduationDate,omitempty"`
}
