package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestID(t *testing.T) {
	t.Run("generates uuid when header absent", func(t *testing.T) {
		var captured string
		handler := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = GetRequestID(r.Context())
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.NotEmpty(t, captured)
		_, err := uuid.Parse(captured)
		assert.NoError(t, err)
		assert.Equal(t, captured, rec.Header().Get(HeaderXRequestID))
	})

	t.Run("keeps valid incoming id", func(t *testing.T) {
		var captured string
		handler := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = GetRequestID(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderXRequestID, "client-supplied-id_01")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, "client-supplied-id_01", captured)
		assert.Equal(t, "client-supplied-id_01", rec.Header().Get(HeaderXRequestID))
	})

	t.Run("replaces invalid incoming id", func(t *testing.T) {
		tests := []string{
			"",
			"has spaces",
			"bad;chars",
			strings.Repeat("x", 200),
		}

		for _, bad := range tests {
			var captured string
			handler := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				captured = GetRequestID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(HeaderXRequestID, bad)
			handler.ServeHTTP(httptest.NewRecorder(), req)

			assert.NotEqual(t, bad, captured)
			_, err := uuid.Parse(captured)
			assert.NoError(t, err)
		}
	})
}

func TestClientIP(t *testing.T) {
	t.Run("uses remote addr by default", func(t *testing.T) {
		var captured string
		handler := ClientIP(false, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = GetClientIP(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.7:51234"
		handler.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "203.0.113.7", captured)
	})

	t.Run("ignores forwarded headers when proxy untrusted", func(t *testing.T) {
		var captured string
		handler := ClientIP(false, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = GetClientIP(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.7:51234"
		req.Header.Set(HeaderXForwardedFor, "198.51.100.9")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "203.0.113.7", captured)
	})

	t.Run("uses x-forwarded-for when proxy trusted", func(t *testing.T) {
		var captured string
		handler := ClientIP(true, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = GetClientIP(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:51234"
		req.Header.Set(HeaderXForwardedFor, "198.51.100.9, 10.0.0.1")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "198.51.100.9", captured)
	})

	t.Run("uses x-real-ip as fallback", func(t *testing.T) {
		var captured string
		handler := ClientIP(true, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = GetClientIP(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:51234"
		req.Header.Set(HeaderXRealIP, "198.51.100.42")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "198.51.100.42", captured)
	})

	t.Run("untrusted proxy list blocks forwarded headers", func(t *testing.T) {
		var captured string
		handler := ClientIP(true, []string{"10.0.0.99"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = GetClientIP(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:51234"
		req.Header.Set(HeaderXForwardedFor, "198.51.100.9")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "10.0.0.1", captured)
	})
}
