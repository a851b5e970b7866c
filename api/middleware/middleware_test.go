package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"productos_catalog/api/health"
	"productos_catalog/config"
	"productos_catalog/lib"
	"productos_catalog/services"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMiddleware(t *testing.T, limiter services.RateLimiter) *Middleware {
	t.Helper()
	cfg := config.Load()
	return NewMiddleware(cfg, gecho.NewDefaultLogger(), limiter)
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRateLimitMiddleware(t *testing.T) {
	mw := newTestMiddleware(t, services.NewMemoryRateLimiter(1, time.Hour))
	mw.cfg.RateLimit.Enabled = true
	h := mw.RateLimitMiddleware()(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/products/1", nil)
	req.RemoteAddr = "10.1.1.1:5555"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))

	// Another id maps to the same bucket
	req2 := httptest.NewRequest(http.MethodGet, "/products/2", nil)
	req2.RemoteAddr = "10.1.1.1:6666"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req2)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Health probes are never limited
	rec = httptest.NewRecorder()
	probe := httptest.NewRequest(http.MethodGet, "/health/server", nil)
	probe.RemoteAddr = "10.1.1.1:7777"
	h.ServeHTTP(rec, probe)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitDisabled(t *testing.T) {
	mw := newTestMiddleware(t, services.NewMemoryRateLimiter(1, time.Hour))
	h := mw.RateLimitMiddleware()(okHandler)

	for range 3 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestGenerateRateLimitKey(t *testing.T) {
	mw := newTestMiddleware(t, nil)

	assert.Equal(t, "1.2.3.4:/products/:id", mw.generateRateLimitKey("1.2.3.4", "/products/42/"))
	assert.Equal(t, "1.2.3.4:/products", mw.generateRateLimitKey("1.2.3.4", "/products"))
	assert.Equal(t, "1.2.3.4:/api/Product/deleteProduct/:id", mw.generateRateLimitKey("1.2.3.4", "/api/Product/deleteProduct/7"))
}

func TestServiceTokenMiddleware(t *testing.T) {
	mw := newTestMiddleware(t, nil)
	mw.cfg.Auth.RequireToken = true
	mw.cfg.Auth.ServiceTokenSecret = "s3cret"

	var subject string
	h := mw.ServiceTokenMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := GetClaimsFromContext(r.Context())
		require.True(t, ok)
		subject = claims.Subject
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/products", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/products", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := lib.IssueServiceToken("s3cret", "catalogctl", time.Minute)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, "/products", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "catalogctl", subject)
}

func TestServiceTokenNotRequired(t *testing.T) {
	mw := newTestMiddleware(t, nil)
	rec := httptest.NewRecorder()
	mw.ServiceTokenMiddleware(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/products/1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSecurityHeadersAndBodyLimit(t *testing.T) {
	mw := newTestMiddleware(t, nil)

	var readErr error
	h := mw.SecurityHeaders()(mw.BodyLimit(4)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/products", strings.NewReader("too large")))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Error(t, readErr)
}

func TestMetricsMiddlewareUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(MetricsMiddleware)
	r.Get("/products/{id}", okHandler)

	counter := health.HttpRequests.WithLabelValues(http.MethodGet, "/products/{id}", "200")
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/5", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
