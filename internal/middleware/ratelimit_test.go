package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itemhub/itemhub/internal/ratelimit"
)

// stubLimiter returns a fixed result or error from Allow.
type stubLimiter struct {
	result      *ratelimit.Result
	err         error
	identifiers []string
}

func (s *stubLimiter) Allow(_ context.Context, identifier string) (*ratelimit.Result, error) {
	s.identifiers = append(s.identifiers, identifier)
	return s.result, s.err
}

func (s *stubLimiter) Reset(_ context.Context, _ string) error { return nil }
func (s *stubLimiter) Close() error                            { return nil }

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimit(t *testing.T) {
	t.Run("allowed request passes with headers", func(t *testing.T) {
		limiter := &stubLimiter{result: &ratelimit.Result{
			Allowed:    true,
			Remaining:  9,
			Limit:      10,
			ResetAfter: 30 * time.Second,
		}}

		handler := RateLimit(limiter, RateLimitConfig{})(okHandler())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "10", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "9", rec.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
	})

	t.Run("blocked request gets 429 with retry-after", func(t *testing.T) {
		limiter := &stubLimiter{result: &ratelimit.Result{
			Allowed:    false,
			Remaining:  0,
			Limit:      10,
			ResetAfter: 45 * time.Second,
			RetryAfter: 45 * time.Second,
		}}

		handler := RateLimit(limiter, RateLimitConfig{})(okHandler())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/", nil))

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "45", rec.Header().Get("Retry-After"))

		var resp RateLimitResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "RATE_LIMIT_EXCEEDED", resp.Code)
		assert.Equal(t, 45, resp.RetryAfter)
	})

	t.Run("fails open on limiter error", func(t *testing.T) {
		limiter := &stubLimiter{err: errors.New("limiter down")}

		handler := RateLimit(limiter, RateLimitConfig{})(okHandler())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("identifies by api key when configured", func(t *testing.T) {
		limiter := &stubLimiter{result: &ratelimit.Result{Allowed: true, Limit: 10}}

		handler := RateLimit(limiter, RateLimitConfig{APIKeyHeader: "X-API-Key"})(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/items/", nil)
		req.Header.Set("X-API-Key", "secret-key")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		require.Len(t, limiter.identifiers, 1)
		assert.Equal(t, "api:secret-key", limiter.identifiers[0])
	})

	t.Run("identifies by client ip otherwise", func(t *testing.T) {
		limiter := &stubLimiter{result: &ratelimit.Result{Allowed: true, Limit: 10}}

		handler := RateLimit(limiter, RateLimitConfig{})(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/items/", nil)
		req.RemoteAddr = "203.0.113.7:1234"
		handler.ServeHTTP(httptest.NewRecorder(), req)

		require.Len(t, limiter.identifiers, 1)
		assert.Equal(t, "ip:203.0.113.7", limiter.identifiers[0])
	})

	t.Run("prefers ip from context", func(t *testing.T) {
		limiter := &stubLimiter{result: &ratelimit.Result{Allowed: true, Limit: 10}}

		handler := New(
			ClientIP(true, nil),
			RateLimit(limiter, RateLimitConfig{TrustProxy: true}),
		).Then(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/items/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		req.Header.Set(HeaderXForwardedFor, "198.51.100.9")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		require.Len(t, limiter.identifiers, 1)
		assert.Equal(t, "ip:198.51.100.9", limiter.identifiers[0])
	})
}

func TestRateLimit_EndToEnd(t *testing.T) {
	// Real limiter with a small window
	limiter := ratelimit.NewMemoryLimiter(ratelimit.Config{Requests: 2, Window: time.Minute})
	defer limiter.Close()

	handler := RateLimit(limiter, RateLimitConfig{})(okHandler())

	req := func() *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/items/", nil)
		r.RemoteAddr = "192.0.2.1:1000"
		return r
	}

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req())
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req())
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
