package models

import "time"

// StudentProgress tracks a student's proficiency in one skill. Unique per (student_id, skill_name).
type StudentProgress struct {
	ID                string     `db:"id" json:"id"`
	StudentID         string     `db:"student_id" json:"studentId"`
	SkillName         string     `db:"skill_name" json:"skillName"`
	ProficiencyLevel  int        `db:"proficiency_level" json:"proficiencyLevel"`
	LastPracticed     *time.Time `db:"last_practiced" json:"lastPracticed,omitempty"`
	Notes             *string    `db:"notes" json:"notes,omitempty"`
	ProfessorFeedback *string    `db:"professor_feedback" json:"professorFeedback,omitempty"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updatedAt"`
}
