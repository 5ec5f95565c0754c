package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/jiu-academy-api/internal/models"
)

const profileColumns = `id, user_id, birth_date, phone, emergency_contact, medical_notes, start_date, graduation_date`

// ProfileRepository persists the optional user profile.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository constructs a ProfileRepository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// FindByUserID returns the profile for a user or sql.ErrNoRows.
func (r *ProfileRepository) FindByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`
	var profile models.Profile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidInput(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return &profile, nil
}

// Upsert inserts or replaces the profile keyed by user_id.
func (r *ProfileRepository) Upsert(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	query := `INSERT INTO profiles (id, user_id, birth_date, phone, emergency_contact, medical_notes, start_date, graduation_date)
VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, CURRENT_DATE), $8)
ON CONFLICT (user_id) DO UPDATE SET birth_date = EXCLUDED.birth_date, phone = EXCLUDED.phone, emergency_contact = EXCLUDED.emergency_contact, medical_notes = EXCLUDED.medical_notes, start_date = EXCLUDED.start_date, graduation_date = EXCLUDED.graduation_date
RETURNING ` + profileColumns
	var stored models.Profile
	if err := r.db.GetContext(ctx, &stored, query,
		profile.ID,
		profile.UserID,
		profile.BirthDate,
		profile.Phone,
		profile.EmergencyContact,
		profile.MedicalNotes,
		profile.StartDate,
		profile.GraduationDate,
	); err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}
	return &stored, nil
}
