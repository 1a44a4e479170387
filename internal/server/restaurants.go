package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (s *Server) listRestaurants(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.Query(r.Context(),
		"SELECT * FROM restaurants ORDER BY created_at DESC")
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, rows)
}

func (s *Server) createRestaurant(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &body); err != nil || body.Name == "" {
		s.respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	res, err := s.store.Execute(r.Context(),
		"INSERT INTO restaurants (name) VALUES (?)", body.Name)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, map[string]any{
		"id":   res.LastInsertID,
		"name": body.Name,
	})
}

func (s *Server) deleteRestaurant(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if _, err := s.store.Execute(r.Context(),
		"DELETE FROM restaurants WHERE id = ?", id); err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"success": true})
}
