// Package auth provides password hashing and bearer token handling.
package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrWrongPassword is returned when a password does not match its hash.
var ErrWrongPassword = errors.New("incorrect password")

// DefaultBcryptCost is used when no cost is configured.
const DefaultBcryptCost = 12

// HashPassword hashes a plaintext password with bcrypt at the given cost.
func HashPassword(plaintext string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword verifies a plaintext password against a bcrypt hash.
func CheckPassword(hash, plaintext string) error {
	if hash == "" {
		return ErrWrongPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)); err != nil {
		return ErrWrongPassword
	}
	return nil
}
