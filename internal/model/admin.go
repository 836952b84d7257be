package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Admin is the single privileged identity. The password hash never leaves the server.
type Admin struct {
	ID                int64     `json:"id" db:"id"`
	Username          string    `json:"username" db:"username"`
	PasswordHash      string    `json:"-" db:"password_hash"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	PasswordChangedAt time.Time `json:"-" db:"password_changed_at"`
}

// AdminIdentity is the verified identity embedded in a session token.
type AdminIdentity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// LoginRequest represents the admin login payload.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate checks that both credentials are present.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required.Error("username is required")),
		validation.Field(&r.Password, validation.Required.Error("password is required")),
	)
}

// MinPasswordLength is the shortest password accepted by a password reset.
const MinPasswordLength = 8

// PasswordResetRequest is the input of an out-of-band admin password reset.
type PasswordResetRequest struct {
	Username    string `json:"username"`
	NewPassword string `json:"new_password"`
}

// Validate checks the reset input. bcrypt ignores bytes beyond 72.
func (r PasswordResetRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required.Error("username is required")),
		validation.Field(&r.NewPassword,
			validation.Required.Error("password is required"),
			validation.Length(MinPasswordLength, 72).Error("password must be 8-72 bytes"),
		),
	)
}

// LoginResponse carries an issued session token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
