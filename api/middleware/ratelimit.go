package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/MonkyMars/gecho"
)

// getClientIP extracts the client IP. chi's RealIP middleware has already folded
// X-Forwarded-For and X-Real-IP into RemoteAddr.
func (mw *Middleware) getClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// generateRateLimitKey creates a unique cache key for rate limiting
func (mw *Middleware) generateRateLimitKey(ip, endpoint string) string {
	// Normalize endpoint to group similar requests
	normalizedEndpoint := strings.TrimSuffix(endpoint, "/")

	// Group dynamic routes by their base path, e.g. /products/123 -> /products/:id
	parts := strings.Split(normalizedEndpoint, "/")
	if len(parts) > 0 {
		last := parts[len(parts)-1]
		if last != "" && strings.Trim(last, "0123456789") == "" {
			parts[len(parts)-1] = ":id"
			normalizedEndpoint = strings.Join(parts, "/")
		}
	}

	return fmt.Sprintf("%s:%s", ip, normalizedEndpoint)
}

// RateLimitMiddleware counts requests per client and endpoint and fails open on backend errors
func (mw *Middleware) RateLimitMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip if rate limiting is disabled
			if !mw.cfg.RateLimit.Enabled || mw.limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			// Skip rate limiting for health checks and scrapes
			if r.URL.Path == "/metrics" || strings.HasPrefix(r.URL.Path, "/health/") {
				next.ServeHTTP(w, r)
				return
			}

			clientIP := mw.getClientIP(r)
			key := mw.generateRateLimitKey(clientIP, r.URL.Path)

			result, err := mw.limiter.Hit(r.Context(), key)
			if err != nil {
				// Cache error - log and allow request (fail open)
				mw.logger.Warn("Rate limit backend error, allowing request",
					gecho.Field("error", err),
					gecho.Field("ip", clientIP),
					gecho.Field("endpoint", r.URL.Path),
				)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", result.Limit))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", result.Remaining))
			w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(result.Window).Unix()))

			if !result.Allowed {
				mw.logger.Warn("Rate limit exceeded",
					gecho.Field("ip", clientIP),
					gecho.Field("endpoint", r.URL.Path),
					gecho.Field("limit", result.Limit),
				)

				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(result.Window.Seconds())))
				gecho.TooManyRequests(w,
					gecho.WithMessage("Rate limit exceeded. Please try again later."),
					gecho.Send(),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
