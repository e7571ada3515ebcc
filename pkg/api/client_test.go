package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariyeh/bagtag/pkg/models"
)

func TestCreateBag(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/admin/bags", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"bag":{"id":7,"display_name":"Tote A","brand":"Acme"},"tag":{"id":1,"tag_code":"TAG-1","bag_id":7,"status":"assigned"}}`)
	}))
	defer server.Close()

	c := NewClient(server.URL + "/")
	out, err := c.CreateBag(context.Background(), models.BagCreateRequest{
		DisplayName: "Tote A", Brand: "Acme", TagCode: "TAG-1",
	})
	require.NoError(t, err)

	id, ok := out.Bag.BagID()
	assert.True(t, ok)
	assert.Equal(t, int64(7), id)
	assert.Equal(t, "assigned", models.Value(out.Tag.Status))
	assert.Equal(t, map[string]any{"display_name": "Tote A", "brand": "Acme", "tag_code": "TAG-1"}, got)
}

func TestLookupTag_EscapesCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags/A%2FB%20C", r.URL.EscapedPath())
		_, _ = io.WriteString(w, `{"tag":{"tag_code":"A/B C","status":"unassigned"}}`)
	}))
	defer server.Close()

	out, err := NewClient(server.URL).LookupTag(context.Background(), "A/B C")
	require.NoError(t, err)
	assert.Equal(t, "A/B C", models.Value(out.Tag.TagCode))
	assert.Nil(t, out.Bag)
	assert.Nil(t, out.Entrupy)
}

func TestRequestError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"detail string", 404, `{"detail":"Tag not found"}`, "Request failed: 404 - Tag not found"},
		{"plain text", 500, "Internal Server Error", "Request failed: 500 - Internal Server Error"},
		{"empty body", 502, "", "Request failed: 502"},
		{
			"validation list", 422,
			`{"detail":[{"loc":["body","brand"],"msg":"field required"},{"loc":["body","tag_code"],"msg":"field required"}]}`,
			"Request failed: 422 - body.brand: field required; body.tag_code: field required",
		},
		{"json without detail", 400, `{"error":"bad"}`, `Request failed: 400 - {"error":"bad"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer server.Close()

			_, err := NewClient(server.URL).LookupTag(context.Background(), "UNKNOWN")
			var reqErr *RequestError
			require.True(t, errors.As(err, &reqErr))
			assert.Equal(t, tt.status, reqErr.StatusCode)
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}
}

func TestHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		_, _ = io.WriteString(w, `{"status":"ok"}`)
	}))
	defer server.Close()

	assert.NoError(t, NewClient(server.URL).Health(context.Background()))
}

func TestTransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewClient(url).ListBags(context.Background())
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "request failed:"))
	var reqErr *RequestError
	assert.False(t, errors.As(err, &reqErr))
}

type countingTransport struct {
	next  http.RoundTripper
	calls atomic.Int32
}

func (c *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	c.calls.Add(1)
	return c.next.RoundTrip(r)
}

func TestWithTransport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	}))
	defer server.Close()

	ct := &countingTransport{}
	c := NewClient(server.URL, WithTransport(func(next http.RoundTripper) http.RoundTripper {
		ct.next = next
		return ct
	}))

	rows, err := c.ListBags(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Equal(t, int32(1), ct.calls.Load())
}
