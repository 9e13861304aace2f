// Package handlers contains HTTP request handlers.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/itemhub/itemhub/internal/models"
	"github.com/itemhub/itemhub/internal/validation"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// ValidationErrorResponse carries field-level validation failures.
type ValidationErrorResponse struct {
	Detail []validation.Error `json:"detail"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeValidationError writes a 422 response with the failure detail list.
func writeValidationError(w http.ResponseWriter, errs validation.Errors) {
	writeJSON(w, http.StatusUnprocessableEntity, ValidationErrorResponse{Detail: errs})
}

// writeError maps an error to a response. Validation failures become 422s,
// everything else goes through mapErrorToResponse.
func writeError(w http.ResponseWriter, err error) {
	if verrs, ok := validation.AsErrors(err); ok {
		writeValidationError(w, verrs)
		return
	}

	status, resp := mapErrorToResponse(err)
	writeJSON(w, status, resp)
}

// mapErrorToResponse maps service errors to HTTP status codes and error responses.
func mapErrorToResponse(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, models.ErrItemNotFound):
		return http.StatusNotFound, ErrorResponse{
			Error: err.Error(),
			Code:  "NOT_FOUND",
		}
	case errors.Is(err, models.ErrUserNotFound):
		return http.StatusNotFound, ErrorResponse{
			Error: err.Error(),
			Code:  "NOT_FOUND",
		}
	case errors.Is(err, models.ErrDuplicateTitle):
		return http.StatusConflict, ErrorResponse{
			Error: err.Error(),
			Code:  "DUPLICATE_TITLE",
		}
	case errors.Is(err, models.ErrDuplicateEmail):
		return http.StatusConflict, ErrorResponse{
			Error: err.Error(),
			Code:  "DUPLICATE_EMAIL",
		}
	case errors.Is(err, models.ErrWrongCredentials):
		return http.StatusUnauthorized, ErrorResponse{
			Error: err.Error(),
			Code:  "WRONG_CREDENTIALS",
		}
	case errors.Is(err, models.ErrUserInactive):
		return http.StatusForbidden, ErrorResponse{
			Error: err.Error(),
			Code:  "USER_INACTIVE",
		}
	default:
		return http.StatusInternalServerError, ErrorResponse{
			Error: "internal server error",
			Code:  "INTERNAL_ERROR",
		}
	}
}
