package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig holds the per-client token bucket parameters.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate (tokens added per second).
	RequestsPerSecond float64
	// Burst is the bucket capacity.
	Burst int
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter enforces a per-client token-bucket limit keyed by remote IP.
// Health probes are exempt so orchestrators never get throttled out.
func RateLimiter(cfg RateLimitConfig) func(http.Handler) http.Handler {
	var (
		mu      sync.Mutex
		clients = make(map[string]*clientBucket)
	)

	// Drop buckets idle for 10 minutes so the map stays bounded.
	go func() {
		for {
			time.Sleep(5 * time.Minute)
			mu.Lock()
			for ip, b := range clients {
				if time.Since(b.lastSeen) > 10*time.Minute {
					delete(clients, ip)
				}
			}
			mu.Unlock()
		}
	}()

	bucketFor := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		b, ok := clients[ip]
		if !ok {
			b = &clientBucket{limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)}
			clients[ip] = b
		}
		b.lastSeen = time.Now()
		return b.limiter
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" {
				next.ServeHTTP(w, r)
				return
			}

			limiter := bucketFor(clientIP(r))
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"code":    http.StatusTooManyRequests,
					"message": "rate limit exceeded",
				})
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Burst))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(limiter.Tokens())))
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP strips the port from RemoteAddr. X-Forwarded-For is deliberately
// ignored: a spoofed header must not grant a fresh bucket.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
