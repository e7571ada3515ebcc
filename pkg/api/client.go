// Package api is the HTTP client for the tagging backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ariyeh/bagtag/pkg/models"
)

// DefaultTimeout bounds each request when no http.Client is supplied.
const DefaultTimeout = 30 * time.Second

// Client talks to the backend over JSON/HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithTransport wraps the current transport, e.g. to record requests.
func WithTransport(wrap func(http.RoundTripper) http.RoundTripper) Option {
	return func(c *Client) {
		base := c.http.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		c.http.Transport = wrap(base)
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient returns a client for the server at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server address the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

// CreateBag creates a bag and binds its tag.
func (c *Client) CreateBag(ctx context.Context, req models.BagCreateRequest) (*models.BagWithTag, error) {
	var out models.BagWithTag
	if err := c.do(ctx, http.MethodPost, "/api/admin/bags", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListBags returns the inventory in server order.
func (c *Client) ListBags(ctx context.Context) ([]models.InventoryRow, error) {
	var out []models.InventoryRow
	if err := c.do(ctx, http.MethodGet, "/api/admin/bags", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpsertEntrupy creates or replaces the authentication record of a bag.
func (c *Client) UpsertEntrupy(ctx context.Context, req models.EntrupyCreateRequest) (*models.EntrupyRecord, error) {
	var out models.EntrupyRecord
	if err := c.do(ctx, http.MethodPost, "/api/admin/entrupy", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LookupTag resolves a tag code to its tag, bag and authentication record.
func (c *Client) LookupTag(ctx context.Context, code string) (*models.TagLookup, error) {
	var out models.TagLookup
	if err := c.do(ctx, http.MethodGet, "/api/tags/"+url.PathEscape(code), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health checks that the server is up.
func (c *Client) Health(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return err
	}
	if out.Status != "ok" {
		return fmt.Errorf("server reported status %q", out.Status)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, v any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal error: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("request creation failed: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("api request", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(resp.Body)
		return &RequestError{StatusCode: resp.StatusCode, Detail: parseDetail(data)}
	}

	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode error: %w", err)
	}
	return nil
}
