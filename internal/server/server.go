// Package server exposes the meal tracker's HTTP API.
//
// Handlers are thin: they validate input, call the durable store's
// query/execute primitives, and shape JSON responses. All durability
// concerns live behind the store.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lk9900/pojedi/internal/engine"
	"github.com/lk9900/pojedi/internal/store"
)

// Server routes API requests to the durable store.
type Server struct {
	store  *store.Store
	logger *slog.Logger
	router *mux.Router
}

// New builds the server and its routes.
func New(st *store.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{store: st, logger: logger, router: mux.NewRouter()}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(s.requestLog)

	api.HandleFunc("/restaurants", s.listRestaurants).Methods(http.MethodGet)
	api.HandleFunc("/restaurants", s.createRestaurant).Methods(http.MethodPost)
	api.HandleFunc("/restaurants/{id:[0-9]+}", s.deleteRestaurant).Methods(http.MethodDelete)
	api.HandleFunc("/restaurants/{id:[0-9]+}/sections", s.listSections).Methods(http.MethodGet)

	api.HandleFunc("/sections", s.createSection).Methods(http.MethodPost)
	api.HandleFunc("/sections/{id:[0-9]+}", s.deleteSection).Methods(http.MethodDelete)
	api.HandleFunc("/sections/{id:[0-9]+}/meals", s.listMeals).Methods(http.MethodGet)

	api.HandleFunc("/meals", s.createMeal).Methods(http.MethodPost)
	api.HandleFunc("/meals/{id:[0-9]+}", s.updateMeal).Methods(http.MethodPatch)
	api.HandleFunc("/meals/{id:[0-9]+}", s.deleteMeal).Methods(http.MethodDelete)

	s.router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	s.router.MethodNotAllowedHandler = http.HandlerFunc(s.methodNotAllowed)
	api.MethodNotAllowedHandler = http.HandlerFunc(s.methodNotAllowed)
}

// methodNotAllowed answers 405 with an Allow header listing the methods the
// matched path does support. mux does not expose them on a method mismatch,
// so re-match the path once per candidate method.
func (s *Server) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	candidates := []string{
		http.MethodGet, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete,
	}

	var allowed []string
	for _, method := range candidates {
		if method == r.Method {
			continue
		}
		alt := r.Clone(r.Context())
		alt.Method = method
		var match mux.RouteMatch
		if s.router.Match(alt, &match) && match.MatchErr == nil {
			allowed = append(allowed, method)
		}
	}

	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	w.WriteHeader(http.StatusMethodNotAllowed)
}

// respondJSON writes v as the response body with the given status.
func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

// respondError writes a JSON error body.
func (s *Server) respondError(w http.ResponseWriter, status int, msg string) {
	s.respondJSON(w, status, map[string]string{"error": msg})
}

// respondStoreError maps store failures onto status codes. Statement-level
// failures are the caller's problem; anything else is ours.
func (s *Server) respondStoreError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("store operation failed",
		"method", r.Method, "path", r.URL.Path, "error", err)
	if engine.IsQueryError(err) {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondError(w, http.StatusInternalServerError, "internal error")
}

// decodeBody decodes a JSON request body into v.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	return json.NewDecoder(r.Body).Decode(v)
}
