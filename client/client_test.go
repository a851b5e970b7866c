package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"productos_catalog/structs"
	"productos_catalog/structs/tables"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvelope(w http.ResponseWriter, status int, message string, data any) {
	body := map[string]any{"success": status < 300, "status": status, "message": message}
	if data != nil {
		body["data"] = data
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestListAndGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/products":
			writeEnvelope(w, http.StatusOK, "", []tables.Product{{ID: 1, Name: "Rose", Photos: []tables.ProductPhoto{{ID: 3, LargePhoto: "u"}}}})
		case "/products/1":
			writeEnvelope(w, http.StatusOK, "", []tables.Product{{ID: 1, Name: "Rose"}})
		default:
			writeEnvelope(w, http.StatusOK, "", []tables.Product{})
		}
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL + "/"})
	ctx := context.Background()

	products, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "u", products[0].Photos[0].LargePhoto)

	p, err := c.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Rose", p.Name)

	_, err = c.Get(ctx, 2)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMutationsSendBodyAndToken(t *testing.T) {
	var got structs.ProductRequest
	var auth, method string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		method = r.Method
		if r.Body != nil && r.ContentLength > 0 {
			_ = json.NewDecoder(r.Body).Decode(&got)
		}
		writeEnvelope(w, http.StatusOK, "ok", nil)
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, Token: "tok"})
	ctx := context.Background()

	req := structs.NewProductRequest("Rose", "R-1", []tables.ProductPhoto{{LargePhoto: "https://cdn/r.jpg"}}, nil)
	require.NoError(t, c.Create(ctx, req))
	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "Bearer tok", auth)
	assert.Equal(t, "Rose", got.ProductName)
	require.Len(t, got.Photos, 1)
	assert.NotNil(t, got.Documents)

	require.NoError(t, c.Update(ctx, 4, req))
	assert.Equal(t, http.MethodPut, method)

	require.NoError(t, c.Delete(ctx, 4))
	assert.Equal(t, http.MethodDelete, method)
}

func TestStatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodDelete:
			writeEnvelope(w, http.StatusNotFound, "No product found with id 9", nil)
		default:
			writeEnvelope(w, http.StatusBadRequest, "Invalid request body", nil)
		}
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL})
	ctx := context.Background()

	err := c.Delete(ctx, 9)
	assert.ErrorIs(t, err, ErrNotFound)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "No product found with id 9", se.Message)

	err = c.Create(ctx, &structs.ProductRequest{})
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Status)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeEnvelope(w, http.StatusInternalServerError, "", nil)
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL})
	ctx := context.Background()

	for range 3 {
		_, err := c.List(ctx)
		require.Error(t, err)
	}

	_, err := c.List(ctx)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(3), calls.Load())
}

func TestBreakerIgnoresClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusNotFound, "", nil)
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL})
	for range 5 {
		err := c.Delete(context.Background(), 1)
		assert.ErrorIs(t, err, ErrNotFound)
	}
}
