package journal

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
)

// RequestIDHeader carries the id shared by a request and its journal event.
const RequestIDHeader = "X-Request-ID"

var mutatingMethods = mapset.NewThreadUnsafeSet(
	http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete,
)

// Appender is the write side of a Store.
type Appender interface {
	Append(event *Event) error
}

// Transport is an http.RoundTripper that records requests in a journal.
// Journal writes are best effort: a failed write is logged and the response
// is returned unchanged.
type Transport struct {
	next        http.RoundTripper
	store       Appender
	recordReads bool
	logger      *slog.Logger
	now         func() time.Time
}

// NewTransport wraps next. A nil next uses http.DefaultTransport.
func NewTransport(next http.RoundTripper, store Appender, cfg *Config, logger *slog.Logger) *Transport {
	if next == nil {
		next = http.DefaultTransport
	}
	if logger == nil {
		logger = slog.Default()
	}
	t := &Transport{next: next, store: store, logger: logger, now: time.Now}
	if cfg != nil {
		t.recordReads = cfg.RecordReads
	}
	return t
}

// Wrap returns a func suitable for api.WithTransport.
func Wrap(store Appender, cfg *Config, logger *slog.Logger) func(http.RoundTripper) http.RoundTripper {
	return func(next http.RoundTripper) http.RoundTripper {
		return NewTransport(next, store, cfg, logger)
	}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.store == nil || !t.shouldRecord(req.Method) {
		return t.next.RoundTrip(req)
	}

	requestID := req.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
		req = req.Clone(req.Context())
		req.Header.Set(RequestIDHeader, requestID)
	}

	start := t.now()
	resp, err := t.next.RoundTrip(req)

	event := &Event{
		ID:         uuid.NewString(),
		RequestID:  requestID,
		Method:     req.Method,
		Path:       req.URL.Path,
		Action:     ActionVerb(req.Method, req.URL.Path),
		DurationMs: t.now().Sub(start).Milliseconds(),
		CreatedAt:  start,
		Metadata:   JSONMap{"host": req.URL.Host},
	}
	switch {
	case err != nil:
		event.Outcome = OutcomeError
		event.Error = err.Error()
	default:
		event.StatusCode = resp.StatusCode
		event.Outcome = outcomeFromStatus(resp.StatusCode)
	}

	if werr := t.store.Append(event); werr != nil {
		t.logger.Error("failed to write journal event", "error", werr, "requestID", requestID)
	}
	return resp, err
}

func (t *Transport) shouldRecord(method string) bool {
	return t.recordReads || mutatingMethods.Contains(method)
}

func outcomeFromStatus(code int) string {
	if code >= 200 && code < 300 {
		return OutcomeSuccess
	}
	return OutcomeFailure
}

// ActionVerb names the console action behind a request.
//
//	POST /api/admin/bags     -> create_bag
//	GET  /api/admin/bags     -> list_bags
//	POST /api/admin/entrupy  -> upsert_entrupy
//	GET  /api/tags/{code}    -> lookup_tag
//	GET  /health             -> health
//
// Unrecognized requests yield the lowercased method and last path segment.
func ActionVerb(method, path string) string {
	path = strings.TrimRight(path, "/")
	switch {
	case path == "/api/admin/bags" && method == http.MethodPost:
		return "create_bag"
	case path == "/api/admin/bags" && method == http.MethodGet:
		return "list_bags"
	case path == "/api/admin/entrupy" && method == http.MethodPost:
		return "upsert_entrupy"
	case strings.HasPrefix(path, "/api/tags/") && method == http.MethodGet:
		return "lookup_tag"
	case path == "/health":
		return "health"
	}
	seg := path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		seg = path[i+1:]
	}
	if seg == "" {
		return strings.ToLower(method)
	}
	return strings.ToLower(method) + "_" + seg
}
