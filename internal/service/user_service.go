package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/jiu-academy-api/internal/models"
	appErrors "github.com/noah-isme/jiu-academy-api/pkg/errors"
)

type userRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, error)
	UpdateAccount(ctx context.Context, user *models.User) error
}

type profileRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.Profile, error)
	Upsert(ctx context.Context, profile *models.Profile) (*models.Profile, error)
}

// UpdateMeRequest is a partial update of the caller's account and profile.
// Nil fields are left untouched.
type UpdateMeRequest struct {
	Name             *string `json:"name" validate:"omitempty,min=2"`
	BeltColor        *string `json:"beltColor" validate:"omitempty,oneof=white blue purple brown black"`
	StripeCount      *int    `json:"stripeCount" validate:"omitempty,min=0,max=4"`
	AvatarURL        *string `json:"avatarUrl" validate:"omitempty,url"`
	Phone            *string `json:"phone" validate:"omitempty,max=32"`
	BirthDate        *string `json:"birthDate" validate:"omitempty,isodate"`
	EmergencyContact *string `json:"emergencyContact"`
	MedicalNotes     *string `json:"medicalNotes"`
	StartDate        *string `json:"startDate" validate:"omitempty,isodate"`
	GraduationDate   *string `json:"graduationDate" validate:"omitempty,isodate"`
}

func (r UpdateMeRequest) touchesAccount() bool {
	return r.Name != nil || r.BeltColor != nil || r.StripeCount != nil || r.AvatarURL != nil
}

func (r UpdateMeRequest) touchesProfile() bool {
	return r.Phone != nil || r.BirthDate != nil || r.EmergencyContact != nil || r.MedicalNotes != nil || r.StartDate != nil || r.GraduationDate != nil
}

// UserService handles account and profile workflows.
type UserService struct {
	repo      userRepository
	profiles  profileRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, profiles profileRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, profiles: profiles, validator: ensureValidator(validate), logger: logger}
}

// Me returns the user with its profile, which is nil when none was created yet.
func (s *UserService) Me(ctx context.Context, userID string) (*models.UserWithProfile, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "User not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	profile, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
		}
		profile = nil
	}
	return &models.UserWithProfile{User: *user, Profile: profile}, nil
}

// UpdateMe merges the request into the caller's account and profile.
func (s *UserService) UpdateMe(ctx context.Context, userID string, req UpdateMeRequest) (*models.UserWithProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	current, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.touchesAccount() {
		user := current.User
		if req.Name != nil {
			user.Name = strings.TrimSpace(*req.Name)
		}
		if req.BeltColor != nil {
			user.BeltColor = *req.BeltColor
		}
		if req.StripeCount != nil {
			user.StripeCount = *req.StripeCount
		}
		if req.AvatarURL != nil {
			user.AvatarURL = req.AvatarURL
		}
		if err := s.repo.UpdateAccount(ctx, &user); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
		}
		current.User = user
	}

	if req.touchesProfile() {
		profile := models.Profile{UserID: userID}
		if current.Profile != nil {
			profile = *current.Profile
		}
		if req.Phone != nil {
			profile.Phone = req.Phone
		}
		if req.EmergencyContact != nil {
			profile.EmergencyContact = req.EmergencyContact
		}
		if req.MedicalNotes != nil {
			profile.MedicalNotes = req.MedicalNotes
		}
		if err := mergeDate(&profile.BirthDate, req.BirthDate); err != nil {
			return nil, fieldValidation("birthDate", "must be a date in YYYY-MM-DD format")
		}
		if err := mergeDate(&profile.StartDate, req.StartDate); err != nil {
			return nil, fieldValidation("startDate", "must be a date in YYYY-MM-DD format")
		}
		if err := mergeDate(&profile.GraduationDate, req.GraduationDate); err != nil {
			return nil, fieldValidation("graduationDate", "must be a date in YYYY-MM-DD format")
		}
		stored, err := s.profiles.Upsert(ctx, &profile)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save profile")
		}
		current.Profile = stored
	}

	s.logger.Debug("profile updated", zap.String("user_id", userID))
	return current, nil
}

// List returns users filtered by an optional role.
func (s *UserService) List(ctx context.Context, role string) ([]models.User, error) {
	var filter models.UserFilter
	if role = strings.TrimSpace(role); role != "" {
		r := models.UserRole(role)
		if !r.IsValid() {
			return nil, fieldValidation("role", "must be one of: aluno, professor, admin")
		}
		filter.Role = &r
	}
	users, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

func mergeDate(dst **time.Time, raw *string) error {
	if raw == nil {
		return nil
	}
	if *raw == "" {
		*dst = nil
		return nil
	}
	parsed, err := parseDate(*raw)
	if err != nil {
		return err
	}
	*dst = &parsed
	return nil
}
