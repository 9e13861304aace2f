package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/itemhub/itemhub/internal/middleware"
	"github.com/itemhub/itemhub/internal/models"
	"github.com/itemhub/itemhub/internal/services"
	"github.com/itemhub/itemhub/internal/validation"
)

// MockAuthService is a mock implementation of services.AuthService.
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, input services.RegisterInput) (*models.User, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, input services.LoginInput) (*services.Token, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Token), args.Error(1)
}

func (m *MockAuthService) CurrentUser(ctx context.Context, userID int64) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func sampleUser() *models.User {
	return &models.User{
		ID:        7,
		Email:     "test@example.com",
		Username:  "testuser",
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
}

func TestAuthHandler_Register(t *testing.T) {
	t.Run("valid payload returns 201 with the user", func(t *testing.T) {
		mockService := new(MockAuthService)
		mockService.On("Register", mock.Anything, mock.MatchedBy(func(in services.RegisterInput) bool {
			return in.Email != nil && *in.Email == "test@example.com"
		})).Return(sampleUser(), nil)

		handler := NewAuthHandler(mockService)
		req := httptest.NewRequest(http.MethodPost, "/auth/register",
			strings.NewReader(`{"email":"test@example.com","username":"testuser","password":"password123"}`))
		rec := httptest.NewRecorder()

		handler.Register(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)

		var user models.User
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&user))
		assert.Equal(t, int64(7), user.ID)
		assert.Equal(t, "test@example.com", user.Email)
		// Password hash must never appear in responses
		assert.NotContains(t, rec.Body.String(), "password")
		mockService.AssertExpectations(t)
	})

	t.Run("validation failure becomes 422", func(t *testing.T) {
		mockService := new(MockAuthService)
		mockService.On("Register", mock.Anything, mock.Anything).Return(nil, validation.Errors{{
			Loc:  []string{"body", "password"},
			Msg:  "ensure this value has at least 8 characters",
			Type: "value_error.any_str.min_length",
		}})

		handler := NewAuthHandler(mockService)
		req := httptest.NewRequest(http.MethodPost, "/auth/register",
			strings.NewReader(`{"email":"test@example.com","username":"testuser","password":"short"}`))
		rec := httptest.NewRecorder()

		handler.Register(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		resp := decodeValidation(t, rec)
		require.Len(t, resp.Detail, 1)
		assert.Equal(t, []string{"body", "password"}, resp.Detail[0].Loc)
	})

	t.Run("duplicate email maps to 409", func(t *testing.T) {
		mockService := new(MockAuthService)
		mockService.On("Register", mock.Anything, mock.Anything).Return(nil, models.ErrDuplicateEmail)

		handler := NewAuthHandler(mockService)
		req := httptest.NewRequest(http.MethodPost, "/auth/register",
			strings.NewReader(`{"email":"test@example.com","username":"testuser","password":"password123"}`))
		rec := httptest.NewRecorder()

		handler.Register(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)

		var resp ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "DUPLICATE_EMAIL", resp.Code)
	})

	t.Run("malformed body becomes 422", func(t *testing.T) {
		handler := NewAuthHandler(new(MockAuthService))
		req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(`{`))
		rec := httptest.NewRecorder()

		handler.Register(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("valid credentials return a bearer token", func(t *testing.T) {
		mockService := new(MockAuthService)
		mockService.On("Login", mock.Anything, mock.Anything).
			Return(&services.Token{AccessToken: "signed-token", TokenType: "bearer"}, nil)

		handler := NewAuthHandler(mockService)
		req := httptest.NewRequest(http.MethodPost, "/auth/login",
			strings.NewReader(`{"email":"test@example.com","password":"password123"}`))
		rec := httptest.NewRecorder()

		handler.Login(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var token services.Token
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&token))
		assert.Equal(t, "signed-token", token.AccessToken)
		assert.Equal(t, "bearer", token.TokenType)
	})

	t.Run("wrong credentials map to 401", func(t *testing.T) {
		mockService := new(MockAuthService)
		mockService.On("Login", mock.Anything, mock.Anything).Return(nil, models.ErrWrongCredentials)

		handler := NewAuthHandler(mockService)
		req := httptest.NewRequest(http.MethodPost, "/auth/login",
			strings.NewReader(`{"email":"test@example.com","password":"nope-nope"}`))
		rec := httptest.NewRecorder()

		handler.Login(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		var resp ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "WRONG_CREDENTIALS", resp.Code)
	})

	t.Run("inactive user maps to 403", func(t *testing.T) {
		mockService := new(MockAuthService)
		mockService.On("Login", mock.Anything, mock.Anything).Return(nil, models.ErrUserInactive)

		handler := NewAuthHandler(mockService)
		req := httptest.NewRequest(http.MethodPost, "/auth/login",
			strings.NewReader(`{"email":"test@example.com","password":"password123"}`))
		rec := httptest.NewRecorder()

		handler.Login(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestAuthHandler_Me(t *testing.T) {
	t.Run("returns the authenticated user", func(t *testing.T) {
		mockService := new(MockAuthService)
		mockService.On("CurrentUser", mock.Anything, int64(7)).Return(sampleUser(), nil)

		handler := NewAuthHandler(mockService)
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req = req.WithContext(middleware.WithUserID(req.Context(), 7))
		rec := httptest.NewRecorder()

		handler.Me(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var user models.User
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&user))
		assert.Equal(t, int64(7), user.ID)
		mockService.AssertExpectations(t)
	})

	t.Run("missing user id in context maps to 401", func(t *testing.T) {
		handler := NewAuthHandler(new(MockAuthService))
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		rec := httptest.NewRecorder()

		handler.Me(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("deleted user maps to 404", func(t *testing.T) {
		mockService := new(MockAuthService)
		mockService.On("CurrentUser", mock.Anything, int64(99)).Return(nil, models.ErrUserNotFound)

		handler := NewAuthHandler(mockService)
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req = req.WithContext(middleware.WithUserID(req.Context(), 99))
		rec := httptest.NewRecorder()

		handler.Me(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestDocsHandler(t *testing.T) {
	t.Run("spec is served as yaml", func(t *testing.T) {
		handler := NewDocsHandler("")

		rec := httptest.NewRecorder()
		handler.OpenAPISpec(rec, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/x-yaml", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Body.String(), "openapi:")
		assert.Contains(t, rec.Body.String(), "/items/")
	})

	t.Run("ui page embeds the title", func(t *testing.T) {
		handler := NewDocsHandler("Custom API")

		rec := httptest.NewRecorder()
		handler.UI(rec, httptest.NewRequest(http.MethodGet, "/docs", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "<title>Custom API</title>")
		assert.Contains(t, rec.Body.String(), "/openapi.yaml")
	})
}
