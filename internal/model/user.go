package model

import (
	"errors"
	"time"
)

// User represents a registered account. Username is stored lowercase and the
// refresh token column holds at most one live value per user.
type User struct {
	ID             int64     `db:"id" json:"id"`
	Username       string    `db:"username" json:"username"`
	Email          string    `db:"email" json:"email"`
	FullName       string    `db:"full_name" json:"full_name"`
	PasswordHashed string    `db:"password_hashed" json:"-"` // "-" hides from JSON output
	AvatarURL      string    `db:"avatar_url" json:"avatar_url"`
	CoverImageURL  *string   `db:"cover_image_url" json:"cover_image_url"`
	RefreshToken   *string   `db:"refresh_token" json:"-"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// RegisterRequest carries the fields needed to create an account. Avatar and
// cover image are uploaded by the handler before the service sees them, so
// only the resulting URLs appear here.
type RegisterRequest struct {
	FullName      string  `json:"full_name"`
	Email         string  `json:"email"`
	Password      string  `json:"password"`
	Username      string  `json:"username"`
	AvatarURL     string  `json:"-"`
	CoverImageURL *string `json:"-"`
}

// LoginRequest accepts either email or username as the identifier.
type LoginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest is the body for POST /auth/change-password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

// UpdateAccountRequest is the body for PATCH /users/account.
type UpdateAccountRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
}

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists is returned when the email or username is already taken
	ErrUserExists = errors.New("user already exists with this email or username")

	// ErrFieldsRequired is returned when a required registration field is empty
	ErrFieldsRequired = errors.New("all fields are required")

	// ErrIdentifierRequired is returned when neither email nor username was supplied
	ErrIdentifierRequired = errors.New("username or email is required")

	// ErrInvalidCredentials is returned when login credentials are incorrect
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrWrongPassword is returned when the current password check fails on a
	// password change. Maps to a bad-request, not an unauthorized response.
	ErrWrongPassword = errors.New("invalid old password")

	// ErrRegistrationIncomplete is returned when the re-read after a
	// successful insert yields nothing. Persistence anomaly, not caller error.
	ErrRegistrationIncomplete = errors.New("user could not be read back after registration")
)
