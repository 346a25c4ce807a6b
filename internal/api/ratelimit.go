package api

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/shelfside/shelfside/internal/http/response"
	"github.com/shelfside/shelfside/internal/ratelimit"
)

// RateLimiter is the keyed token bucket used to throttle clients.
type RateLimiter = ratelimit.KeyedRateLimiter

// NewRateLimiter allows perMinute sustained requests per key with the given burst.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	return ratelimit.New(float64(perMinute)/time.Minute.Seconds(), burst)
}

// RateLimitMiddleware rejects requests with 429 once the client IP has used
// up its allowance.
func RateLimitMiddleware(limiter *RateLimiter, logger interface{ Warn(msg string, args ...any) }) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := getClientIP(r)

			if !limiter.Allow(key) {
				logger.Warn("Rate limit exceeded",
					"ip", key,
					"path", r.URL.Path,
				)
				response.TooManyRequests(w, "Too many requests. Please try again later.", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// limitPath applies mw only to requests with the given method and path.
func limitPath(method, path string, mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		limited := mw(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == method && r.URL.Path == path {
				limited.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP extracts the client IP from the request.
// Checks X-Forwarded-For and X-Real-IP headers before falling back to RemoteAddr.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
