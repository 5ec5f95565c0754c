package models

import "time"

// UserRole represents the closed set of roles understood by the route guards.
type UserRole string

const (
	RoleAluno     UserRole = "aluno"
	RoleProfessor UserRole = "professor"
	RoleAdmin     UserRole = "admin"
)

// IsValid reports whether r is one of the known roles.
func (r UserRole) IsValid() bool {
	switch r {
	case RoleAluno, RoleProfessor, RoleAdmin:
		return true
	}
	return false
}

// IsStaff reports whether the role may manage classes, lessons and attendance.
func (r UserRole) IsStaff() bool {
	return r == RoleAdmin || r == RoleProfessor
}

// User represents an application user stored in the users table.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Name         string    `db:"name" json:"name"`
	Role         UserRole  `db:"role" json:"role"`
	BeltColor    string    `db:"belt_color" json:"beltColor"`
	StripeCount  int       `db:"stripe_count" json:"stripeCount"`
	AvatarURL    *string   `db:"avatar_url" json:"avatarUrl,omitempty"`
	IsActive     bool      `db:"is_active" json:"isActive"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role *UserRole
}

// UserWithProfile is returned by the /users/me endpoint.
type UserWithProfile struct {
	User
	Profile *Profile `json:"profile"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalCount int `json:"totalCount"`
}
