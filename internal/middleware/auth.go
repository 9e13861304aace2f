package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/itemhub/itemhub/internal/auth"
	"github.com/itemhub/itemhub/internal/metrics"
)

// HeaderAuthorization is the header carrying the bearer token.
const HeaderAuthorization = "Authorization"

const bearerPrefix = "Bearer "

// TokenVerifier validates a bearer token and returns the user ID it names.
type TokenVerifier interface {
	Verify(raw string) (int64, error)
}

// authErrorResponse is the JSON body for authentication failures.
type authErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// RequireAuth returns a middleware that rejects requests without a valid
// bearer token. On success the user ID is stored in the request context.
func RequireAuth(verifier TokenVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := userIDFromRequest(r, verifier)
			if err != nil {
				metrics.RecordAuthFailure()
				writeAuthError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// OptionalAuth returns a middleware that extracts the user ID from a bearer
// token when one is present. Requests without a token pass through
// unauthenticated; requests with an invalid token are rejected.
func OptionalAuth(verifier TokenVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get(HeaderAuthorization) == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := userIDFromRequest(r, verifier)
			if err != nil {
				metrics.RecordAuthFailure()
				writeAuthError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

var errMissingToken = errors.New("missing bearer token")

func userIDFromRequest(r *http.Request, verifier TokenVerifier) (int64, error) {
	header := r.Header.Get(HeaderAuthorization)
	if header == "" || !strings.HasPrefix(header, bearerPrefix) {
		return 0, errMissingToken
	}

	raw := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	if raw == "" {
		return 0, errMissingToken
	}

	return verifier.Verify(raw)
}

func writeAuthError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)

	resp := authErrorResponse{
		Error: "not authenticated",
		Code:  "UNAUTHORIZED",
	}
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		resp.Error = "token has expired"
		resp.Code = "TOKEN_EXPIRED"
	case errors.Is(err, errMissingToken):
		resp.Error = "missing bearer token"
	case errors.Is(err, auth.ErrInvalidToken):
		resp.Error = "invalid token"
		resp.Code = "TOKEN_INVALID"
	}

	json.NewEncoder(w).Encode(resp)
}
