package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureRequestID(t *testing.T, headerID string) (string, *httptest.ResponseRecorder) {
	t.Helper()
	var captured string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if headerID != "" {
		req.Header.Set(RequestIDHeader, headerID)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return captured, rec
}

func TestRequestID_GeneratesUUID(t *testing.T) {
	captured, rec := captureRequestID(t, "")
	require.NotEmpty(t, captured)
	_, err := uuid.Parse(captured)
	assert.NoError(t, err)
	assert.Equal(t, captured, rec.Header().Get(RequestIDHeader))
}

func TestRequestID_ReusesValidUUID(t *testing.T) {
	supplied := uuid.NewString()
	captured, rec := captureRequestID(t, supplied)
	assert.Equal(t, supplied, captured)
	assert.Equal(t, supplied, rec.Header().Get(RequestIDHeader))
}

func TestRequestID_ReplacesMalformedID(t *testing.T) {
	for _, bad := range []string{
		"not-a-uuid",
		"fake-id\nINJECTED: forged log line",
		"<script>alert(1)</script>",
	} {
		captured, _ := captureRequestID(t, bad)
		require.NotEmpty(t, captured)
		assert.NotEqual(t, bad, captured)
		_, err := uuid.Parse(captured)
		assert.NoError(t, err)
	}
}

func TestRequestIDFromContext_EmptyWithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, RequestIDFromContext(req.Context()))
}
