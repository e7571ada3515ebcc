package fakeapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ariyeh/bagtag/pkg/models"
)

// Server serves a Store over the backend's HTTP surface.
type Server struct {
	Store *Store

	mu     sync.Mutex
	faults map[string]int
}

// New returns a server over an unlimited store.
func New() *Server {
	return &Server{Store: NewStore(0), faults: make(map[string]int)}
}

// FailNext makes the next request to "METHOD /path-pattern" answer status.
func (s *Server) FailNext(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[route] = status
}

func (s *Server) takeFault(route string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status, ok := s.faults[route]
	if ok {
		delete(s.faults, route)
	}
	return status, ok
}

// Router returns the HTTP handler.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(echoRequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.faultInjector)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/api/admin", func(r chi.Router) {
		r.Post("/bags", s.createBag)
		r.Get("/bags", s.listBags)
		r.Post("/entrupy", s.upsertEntrupy)
	})
	r.Get("/api/tags/{tagCode}", s.lookupTag)
	return r
}

// echoRequestID returns the request id so callers can correlate journal entries.
func echoRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			w.Header().Set(middleware.RequestIDHeader, id)
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) faultInjector(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status, ok := s.takeFault(r.Method + " " + r.URL.Path); ok {
			writeError(w, status, http.StatusText(status))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) createBag(w http.ResponseWriter, r *http.Request) {
	var req models.BagCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("invalid body: %v", err))
		return
	}
	var missing []string
	for name, v := range map[string]string{"display_name": req.DisplayName, "brand": req.Brand, "tag_code": req.TagCode} {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		writeValidation(w, missing)
		return
	}
	writeJSON(w, http.StatusCreated, s.Store.CreateBag(req))
}

func (s *Server) listBags(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Store.ListBags())
}

func (s *Server) upsertEntrupy(w http.ResponseWriter, r *http.Request) {
	var req models.EntrupyCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("invalid body: %v", err))
		return
	}
	if strings.TrimSpace(req.CustomerItemID) == "" {
		writeValidation(w, []string{"customer_item_id"})
		return
	}
	rec, err := s.Store.UpsertEntrupy(req)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) lookupTag(w http.ResponseWriter, r *http.Request) {
	code, err := url.PathUnescape(chi.URLParam(r, "tagCode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tag code")
		return
	}
	out, err := s.Store.LookupTag(code)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeStoreError maps store errors to the backend's detail messages.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errBagNotFound):
		writeError(w, http.StatusNotFound, "Bag not found")
	case errors.Is(err, errTagNotFound):
		writeError(w, http.StatusNotFound, "Tag not found")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"detail": message})
}

type validationItem struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

func writeValidation(w http.ResponseWriter, fields []string) {
	items := make([]validationItem, 0, len(fields))
	sorted := append([]string(nil), fields...)
	sort.Strings(sorted)
	for _, f := range sorted {
		items = append(items, validationItem{Loc: []string{"body", f}, Msg: "field required", Type: "value_error.missing"})
	}
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": items})
}
