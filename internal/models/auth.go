package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RegisterRequest holds the sign-up payload.
type RegisterRequest struct {
	Email     string   `json:"email" validate:"required,email"`
	Password  string   `json:"password" validate:"required,min=8"`
	Name      string   `json:"name" validate:"required,min=2"`
	Role      UserRole `json:"role" validate:"required,oneof=aluno professor admin"`
	BeltColor string   `json:"beltColor" validate:"omitempty,oneof=white blue purple brown black"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshTokenRequest exchanges a refresh token for a new token pair.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// AuthResponse returns the issued tokens and user info.
type AuthResponse struct {
	User                  UserInfo  `json:"user"`
	AccessToken           string    `json:"accessToken"`
	RefreshToken          string    `json:"refreshToken"`
	ExpiresIn             int64     `json:"expiresIn"`
	RefreshTokenExpiresAt time.Time `json:"refreshTokenExpiresAt"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	Name      string   `json:"name"`
	Role      UserRole `json:"role"`
	BeltColor string   `json:"beltColor"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID string   `json:"userId"`
	Email  string   `json:"email"`
	Role   UserRole `json:"role"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of a refresh token.
type RefreshClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}
