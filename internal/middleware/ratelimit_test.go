package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiter_AllowsWithinBurst(t *testing.T) {
	handler := RateLimiter(RateLimitConfig{RequestsPerSecond: 100, Burst: 10})(okHandler())

	for range 5 {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimiter_RejectsOverBurst(t *testing.T) {
	handler := RateLimiter(RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2})(okHandler())

	for range 2 {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "rate limit exceeded", body["message"])
}

func TestRateLimiter_PerClientIsolation(t *testing.T) {
	handler := RateLimiter(RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1})(okHandler())

	first := httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil)
	first.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	require.Equal(t, http.StatusOK, rec.Code)

	// The first client's bucket is empty now.
	again := httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil)
	again.RemoteAddr = "10.0.0.1:5678"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, again)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// A different client gets its own bucket.
	other := httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil)
	other.RemoteAddr = "10.0.0.2:1234"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter_HealthzExempt(t *testing.T) {
	handler := RateLimiter(RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1})(okHandler())

	for range 10 {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:4711"
	assert.Equal(t, "192.0.2.7", clientIP(req))

	req.RemoteAddr = "no-port"
	assert.Equal(t, "no-port", clientIP(req))
}
