package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"productos_catalog/config"
	"productos_catalog/database/dbtest"
	"productos_catalog/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) http.Handler {
	t.Helper()
	cfg := config.Load()
	svc := services.NewServiceManager(config.NewLogger(false), cfg, dbtest.Open(t))
	return NewRouter(cfg, svc)
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouterEndToEnd(t *testing.T) {
	h := newTestApp(t)

	rec := serve(h, http.MethodPost, "/products", `{"productName":"Lily","productNumber":"L-1","photos":[{"largePhoto":"https://cdn/l.jpg"}],"documents":[]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(h, http.MethodGet, "/products", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"productName":"Lily"`)
	assert.Contains(t, rec.Body.String(), `"largePhoto":"https://cdn/l.jpg"`)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = serve(h, http.MethodGet, "/api/Product/getProductById/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "["))

	rec = serve(h, http.MethodDelete, "/products/1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(h, http.MethodDelete, "/products/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "No product found with id 1")
}

func TestRouterInfraRoutes(t *testing.T) {
	h := newTestApp(t)

	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/", "").Code)
	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/health/server", "").Code)
	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/health/database", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodGet, "/nope", "").Code)

	rec := serve(h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "api_http_requests_total")
}
