// Package models contains domain models and entities.
package models

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// Field length limits for item payloads.
const (
	MaxTitleLength       = 255
	MaxDescriptionLength = 2000
)

// Item represents a stored item entity.
type Item struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OwnerID     int64     `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	ViewCount   int64     `json:"view_count"`
}

// ItemCreate represents the data needed to create a new item.
type ItemCreate struct {
	Title       string
	Description string
	OwnerID     int64
}

// ItemUpdate represents the data needed to update an existing item.
type ItemUpdate struct {
	Title       string
	Description string
}

// Validation errors
var (
	ErrEmptyTitle         = errors.New("title cannot be empty")
	ErrTitleTooLong       = errors.New("title exceeds maximum length")
	ErrEmptyDescription   = errors.New("description cannot be empty")
	ErrDescriptionTooLong = errors.New("description exceeds maximum length")
	ErrItemNotFound       = errors.New("item not found")
	ErrDuplicateTitle     = errors.New("item with this title already exists")
)

// Validate validates the ItemCreate data.
func (c *ItemCreate) Validate() error {
	return validateFields(c.Title, c.Description)
}

// Validate validates the ItemUpdate data.
func (u *ItemUpdate) Validate() error {
	return validateFields(u.Title, u.Description)
}

func validateFields(title, description string) error {
	if strings.TrimSpace(title) == "" {
		return ErrEmptyTitle
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if strings.TrimSpace(description) == "" {
		return ErrEmptyDescription
	}
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}
