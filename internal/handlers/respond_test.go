package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/itemhub/itemhub/internal/models"
)

func TestMapErrorToResponse(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"item not found", models.ErrItemNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"user not found", models.ErrUserNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"duplicate title", models.ErrDuplicateTitle, http.StatusConflict, "DUPLICATE_TITLE"},
		{"duplicate email", models.ErrDuplicateEmail, http.StatusConflict, "DUPLICATE_EMAIL"},
		{"wrong credentials", models.ErrWrongCredentials, http.StatusUnauthorized, "WRONG_CREDENTIALS"},
		{"inactive user", models.ErrUserInactive, http.StatusForbidden, "USER_INACTIVE"},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := mapErrorToResponse(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, resp.Code)
		})
	}
}

func TestMapErrorToResponse_WrappedError(t *testing.T) {
	wrapped := errors.Join(errors.New("fetching item"), models.ErrItemNotFound)
	status, resp := mapErrorToResponse(wrapped)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", resp.Code)
}

func TestMapErrorToResponse_InternalErrorHidesDetail(t *testing.T) {
	_, resp := mapErrorToResponse(errors.New("pg: connection refused"))
	assert.Equal(t, "internal server error", resp.Error)
	assert.NotContains(t, resp.Error, "connection refused")
}
