package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
)

// APIKeyHeader is the header clients present their key in.
const APIKeyHeader = "X-API-Key"

// APIKeyAuth rejects requests that do not present the configured key. An
// empty configured key disables the check entirely. /healthz stays open so
// liveness probes need no credentials.
func APIKeyAuth(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" || r.URL.Path == "/healthz" {
				next.ServeHTTP(w, r)
				return
			}
			presented := r.Header.Get(APIKeyHeader)
			if subtle.ConstantTimeCompare([]byte(presented), []byte(key)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"code":    http.StatusUnauthorized,
					"message": "missing or invalid API key",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
