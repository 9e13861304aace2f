package models

import (
	"errors"
	"strings"
	"time"
)

// MaxEmailLength caps user-supplied email addresses.
const MaxEmailLength = 254

// AnonymousOwnerID is the owner attributed to unauthenticated item creation.
// Typed to match Item.OwnerID so comparisons never need a conversion.
const AnonymousOwnerID int64 = 1

// User represents a registered user.
// PasswordHash is never serialized.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserCreate represents the data needed to register a user.
type UserCreate struct {
	Email    string
	Username string
	Password string
}

// User validation errors
var (
	ErrEmptyEmail       = errors.New("email cannot be empty")
	ErrInvalidEmail     = errors.New("email must contain '@'")
	ErrEmailTooLong     = errors.New("email exceeds maximum length")
	ErrEmptyUsername    = errors.New("username cannot be empty")
	ErrEmptyPassword    = errors.New("password cannot be empty")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrUserNotFound     = errors.New("user not found")
	ErrDuplicateEmail   = errors.New("email already registered")
	ErrUserInactive     = errors.New("user account is inactive")
	ErrWrongCredentials = errors.New("incorrect email or password")
)

// Validate validates the UserCreate data.
func (c *UserCreate) Validate() error {
	email := strings.TrimSpace(c.Email)
	if email == "" {
		return ErrEmptyEmail
	}
	if len(email) > MaxEmailLength {
		return ErrEmailTooLong
	}
	if !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}
	if strings.TrimSpace(c.Username) == "" {
		return ErrEmptyUsername
	}
	if c.Password == "" {
		return ErrEmptyPassword
	}
	if len(c.Password) < 8 {
		return ErrPasswordTooShort
	}
	return nil
}
