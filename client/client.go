// Package client talks to the catalog over its HTTP routes.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"productos_catalog/config"
	"productos_catalog/structs"
	"productos_catalog/structs/tables"

	"github.com/MonkyMars/gecho"
	"github.com/sony/gobreaker/v2"
)

// envelope mirrors the response body written by the server
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Options configures a Client. Zero values fall back to sensible defaults.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	Token      string
	HTTPClient *http.Client
	Logger     *gecho.Logger
}

type Client struct {
	logger  *gecho.Logger
	baseURL string
	token   string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
}

var (
	defaultClient *Client
	defaultOnce   sync.Once
)

// Default returns the process-wide client built from configuration
func Default() *Client {
	defaultOnce.Do(func() {
		cfg := config.GetConfig().Client
		defaultClient = New(Options{
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
			Token:   cfg.APIToken,
			Logger:  config.GetLogger(),
		})
	})
	return defaultClient
}

func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := opts.Logger
	if logger == nil {
		logger = gecho.NewDefaultLogger()
	}

	return &Client{
		logger:  logger,
		baseURL: strings.TrimSuffix(opts.BaseURL, "/"),
		token:   opts.Token,
		http:    httpClient,
		breaker: newBreaker("catalog", logger),
	}
}

// newBreaker trips after most of the recent calls failed at the transport or server level.
// Client errors such as 404 or 400 do not count against the catalog.
func newBreaker(name string, logger *gecho.Logger) *gobreaker.CircuitBreaker[[]byte] {
	var st gobreaker.Settings
	st.Name = name
	st.Timeout = 30 * time.Second
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
		return counts.Requests >= 3 && failureRatio >= 0.6
	}
	st.IsSuccessful = func(err error) bool {
		var se *StatusError
		if errors.As(err, &se) {
			return se.Status < http.StatusInternalServerError
		}
		return err == nil
	}
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		logger.Warn("Circuit breaker state changed",
			gecho.Field("breaker", name),
			gecho.Field("from", from.String()),
			gecho.Field("to", to.String()),
		)
	}

	return gobreaker.NewCircuitBreaker[[]byte](st)
}

// do sends one request through the breaker and returns the envelope data
func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
	}

	return c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("catalog request %s %s failed: %w", method, path, err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog response: %w", err)
		}

		var env envelope
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
				return nil, fmt.Errorf("failed to decode catalog response: %w", err)
			}
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &StatusError{Status: resp.StatusCode, Message: env.Message}
		}

		return env.Data, nil
	})
}

// List returns every product in the catalog
func (c *Client) List(ctx context.Context) ([]tables.Product, error) {
	data, err := c.do(ctx, http.MethodGet, "/products", nil)
	if err != nil {
		return nil, err
	}

	products := []tables.Product{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &products); err != nil {
			return nil, fmt.Errorf("failed to decode products: %w", err)
		}
	}
	return products, nil
}

// Get returns one product or ErrNotFound
func (c *Client) Get(ctx context.Context, id int64) (*tables.Product, error) {
	data, err := c.do(ctx, http.MethodGet, productPath(id), nil)
	if err != nil {
		return nil, err
	}

	var products []tables.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("failed to decode product: %w", err)
	}
	if len(products) == 0 {
		return nil, ErrNotFound
	}
	return &products[0], nil
}

func (c *Client) Create(ctx context.Context, req *structs.ProductRequest) error {
	_, err := c.do(ctx, http.MethodPost, "/products", req)
	return err
}

func (c *Client) Update(ctx context.Context, id int64, req *structs.ProductRequest) error {
	_, err := c.do(ctx, http.MethodPut, productPath(id), req)
	return err
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	_, err := c.do(ctx, http.MethodDelete, productPath(id), nil)
	return err
}

func productPath(id int64) string {
	return "/products/" + strconv.FormatInt(id, 10)
}
