package handlers

import (
	"net/http"

	"github.com/itemhub/itemhub/internal/middleware"
	"github.com/itemhub/itemhub/internal/services"
	"github.com/itemhub/itemhub/internal/validation"
)

// RegisterPayload is the request body for user registration.
type RegisterPayload struct {
	Email    *string `json:"email"`
	Username *string `json:"username"`
	Password *string `json:"password"`
}

// LoginPayload is the request body for login.
type LoginPayload struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	service services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc services.AuthService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Register handles POST /auth/register requests.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if errs := validation.DecodeBody(r.Body, &payload); errs != nil {
		writeValidationError(w, errs)
		return
	}

	user, err := h.service.Register(r.Context(), services.RegisterInput{
		Email:    payload.Email,
		Username: payload.Username,
		Password: payload.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// Login handles POST /auth/login requests.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if errs := validation.DecodeBody(r.Body, &payload); errs != nil {
		writeValidationError(w, errs)
		return
	}

	token, err := h.service.Login(r.Context(), services.LoginInput{
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, token)
}

// Me handles GET /auth/me requests. The route must sit behind RequireAuth.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "not authenticated",
			Code:  "UNAUTHORIZED",
		})
		return
	}

	user, err := h.service.CurrentUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
