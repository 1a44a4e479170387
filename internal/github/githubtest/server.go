// Package githubtest provides an in-memory fake of the contents API for
// store and client tests.
package githubtest

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// Server is a fake contents API holding a single file.
//
// It enforces the optimistic-token check the way the real API does: an
// update whose sha does not match the stored file's sha is rejected with
// 409, and a create against an existing file is rejected with 422.
type Server struct {
	mu sync.Mutex

	content []byte
	sha     string

	// FailPuts makes every PUT return 500, simulating a remote outage.
	FailPuts bool

	// FailFetches makes every GET return 502, simulating a remote outage
	// on the read path.
	FailFetches bool

	// Puts counts PUT requests observed, including rejected ones.
	Puts int

	// Fetches counts GET requests observed.
	Fetches int

	httptest *httptest.Server
}

// NewServer starts a fake with no file present.
func NewServer() *Server {
	s := &Server{}
	s.httptest = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// URL returns the base URL to use as the client's BaseURL.
func (s *Server) URL() string {
	return s.httptest.URL
}

// Close shuts the fake down.
func (s *Server) Close() {
	s.httptest.Close()
}

// Seed installs file content directly, bypassing the API.
func (s *Server) Seed(content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store(content)
}

// Content returns the currently stored file body, or nil if absent.
func (s *Server) Content() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content
}

// SHA returns the current version token, or "" if no file is stored.
func (s *Server) SHA() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sha
}

func (s *Server) store(content []byte) {
	s.content = append([]byte(nil), content...)
	s.sha = fmt.Sprintf("%x", sha1.Sum(content))
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if !strings.Contains(r.URL.Path, "/contents/") {
		http.NotFound(w, r)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		s.Fetches++
		if s.FailFetches {
			w.WriteHeader(http.StatusBadGateway)
			fmt.Fprint(w, `{"message":"Bad Gateway"}`)
			return
		}
		if s.content == nil {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message":"Not Found"}`)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"content": base64.StdEncoding.EncodeToString(s.content),
			"sha":     s.sha,
		})

	case http.MethodPut:
		s.Puts++
		if s.FailPuts {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"message":"Server Error"}`)
			return
		}

		var body struct {
			Message string `json:"message"`
			Content string `json:"content"`
			SHA     string `json:"sha"`
			Branch  string `json:"branch"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		content, err := base64.StdEncoding.DecodeString(body.Content)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		if s.content != nil && body.SHA == "" {
			// Create against an existing file.
			w.WriteHeader(http.StatusUnprocessableEntity)
			fmt.Fprint(w, `{"message":"sha missing"}`)
			return
		}
		if s.content != nil && body.SHA != s.sha {
			w.WriteHeader(http.StatusConflict)
			fmt.Fprint(w, `{"message":"sha does not match"}`)
			return
		}

		created := s.content == nil
		s.store(content)

		if created {
			w.WriteHeader(http.StatusCreated)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"content": map[string]any{"sha": s.sha},
		})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
