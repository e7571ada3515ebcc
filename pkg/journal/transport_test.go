package journal

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memAppender struct {
	mu     sync.Mutex
	events []*Event
	err    error
}

func (m *memAppender) Append(e *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, e)
	return nil
}

func TestTransport_RecordsMutatingRequests(t *testing.T) {
	var gotRequestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequestID = r.Header.Get(RequestIDHeader)
		if r.URL.Path == "/api/admin/entrupy" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	store := &memAppender{}
	client := &http.Client{Transport: NewTransport(nil, store, DefaultConfig(), nil)}

	resp, err := client.Post(server.URL+"/api/admin/bags", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	resp, err = client.Get(server.URL + "/api/admin/bags")
	require.NoError(t, err)
	resp.Body.Close()
	resp, err = client.Post(server.URL+"/api/admin/entrupy", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()

	require.Len(t, store.events, 2)
	assert.Equal(t, "create_bag", store.events[0].Action)
	assert.Equal(t, http.StatusCreated, store.events[0].StatusCode)
	assert.Equal(t, OutcomeSuccess, store.events[0].Outcome)
	assert.Equal(t, "upsert_entrupy", store.events[1].Action)
	assert.Equal(t, OutcomeFailure, store.events[1].Outcome)
	assert.Equal(t, store.events[1].RequestID, gotRequestID)
	assert.NotEmpty(t, gotRequestID)
}

func TestTransport_RecordReads(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	store := &memAppender{}
	client := &http.Client{Transport: NewTransport(nil, store, &Config{RecordReads: true}, nil)}
	resp, err := client.Get(server.URL + "/api/tags/TAG-1")
	require.NoError(t, err)
	resp.Body.Close()

	require.Len(t, store.events, 1)
	assert.Equal(t, "lookup_tag", store.events[0].Action)
}

type failingRoundTripper struct{}

func (failingRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("connection refused")
}

func TestTransport_TransportError(t *testing.T) {
	store := &memAppender{}
	client := &http.Client{Transport: NewTransport(failingRoundTripper{}, store, nil, nil)}

	_, err := client.Post("http://backend.invalid/api/admin/bags", "application/json", strings.NewReader(`{}`))
	require.Error(t, err)
	require.Len(t, store.events, 1)
	assert.Equal(t, OutcomeError, store.events[0].Outcome)
	assert.Contains(t, store.events[0].Error, "connection refused")
}

func TestTransport_AppendFailureDoesNotFailRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	store := &memAppender{err: errors.New("disk full")}
	client := &http.Client{Transport: NewTransport(nil, store, nil, nil)}
	resp, err := client.Post(server.URL+"/api/admin/bags", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestActionVerb(t *testing.T) {
	tests := []struct {
		method string
		path   string
		want   string
	}{
		{"POST", "/api/admin/bags", "create_bag"},
		{"POST", "/api/admin/bags/", "create_bag"},
		{"GET", "/api/admin/bags", "list_bags"},
		{"POST", "/api/admin/entrupy", "upsert_entrupy"},
		{"GET", "/api/tags/TAG-1", "lookup_tag"},
		{"GET", "/health", "health"},
		{"DELETE", "/api/admin/bags/7", "delete_7"},
		{"PUT", "/", "put"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, ActionVerb(tt.method, tt.path))
		})
	}
}
