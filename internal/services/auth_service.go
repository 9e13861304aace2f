package services

import (
	"context"
	"errors"
	"strings"

	"github.com/itemhub/itemhub/internal/auth"
	"github.com/itemhub/itemhub/internal/models"
	"github.com/itemhub/itemhub/internal/repository"
	"github.com/itemhub/itemhub/internal/validation"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// RegisterInput carries the decoded registration payload.
type RegisterInput struct {
	Email    *string
	Username *string
	Password *string
}

// LoginInput carries the decoded login payload.
type LoginInput struct {
	Email    *string
	Password *string
}

// Token is an issued bearer token with its type and lifetime in seconds.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// AuthService defines the interface for authentication operations.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Login(ctx context.Context, input LoginInput) (*Token, error)
	CurrentUser(ctx context.Context, userID int64) (*models.User, error)
}

// AuthServiceImpl implements AuthService.
type AuthServiceImpl struct {
	users      repository.UserRepository
	tokens     *auth.TokenManager
	bcryptCost int
}

// NewAuthService creates a new AuthService instance.
func NewAuthService(users repository.UserRepository, tokens *auth.TokenManager, bcryptCost int) *AuthServiceImpl {
	return &AuthServiceImpl{
		users:      users,
		tokens:     tokens,
		bcryptCost: bcryptCost,
	}
}

func validateRegister(input RegisterInput) validation.Errors {
	var errs validation.Errors

	if email, ok := validation.RequiredString(&errs, "email", input.Email); ok {
		validation.Email(&errs, "email", email)
	}
	if username, ok := validation.RequiredString(&errs, "username", input.Username); ok {
		validation.BoundedString(&errs, "username", username, 64)
	}
	if password, ok := validation.RequiredString(&errs, "password", input.Password); ok {
		if len(password) < MinPasswordLength {
			errs.Add("password", "ensure this value has at least 8 characters", validation.TypeMinLength)
		}
	}

	return errs
}

func validateLogin(input LoginInput) validation.Errors {
	var errs validation.Errors

	if email, ok := validation.RequiredString(&errs, "email", input.Email); ok {
		validation.Email(&errs, "email", email)
	}
	validation.RequiredString(&errs, "password", input.Password)

	return errs
}

// Register validates the payload and creates a new user.
func (s *AuthServiceImpl) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	if errs := validateRegister(input); len(errs) > 0 {
		return nil, errs
	}

	hash, err := auth.HashPassword(*input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	return s.users.Create(ctx, &models.UserCreate{
		Email:    strings.ToLower(strings.TrimSpace(*input.Email)),
		Username: strings.TrimSpace(*input.Username),
		Password: *input.Password,
	}, hash)
}

// Login verifies credentials and issues a bearer token.
// Unknown emails and wrong passwords both map to ErrWrongCredentials so the
// response does not reveal which one failed.
func (s *AuthServiceImpl) Login(ctx context.Context, input LoginInput) (*Token, error) {
	if errs := validateLogin(input); len(errs) > 0 {
		return nil, errs
	}

	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(*input.Email)))
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, models.ErrWrongCredentials
		}
		return nil, err
	}

	if err := auth.CheckPassword(user.PasswordHash, *input.Password); err != nil {
		return nil, models.ErrWrongCredentials
	}
	if !user.IsActive {
		return nil, models.ErrUserInactive
	}

	raw, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	return &Token{
		AccessToken: raw,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.tokens.TTL().Seconds()),
	}, nil
}

// CurrentUser loads the user for an authenticated request.
func (s *AuthServiceImpl) CurrentUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, models.ErrUserInactive
	}
	return user, nil
}
