package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (s *Server) listSections(w http.ResponseWriter, r *http.Request) {
	restaurantID := mux.Vars(r)["id"]

	rows, err := s.store.Query(r.Context(),
		"SELECT * FROM sections WHERE restaurant_id = ?", restaurantID)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, rows)
}

func (s *Server) createSection(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RestaurantID int64  `json:"restaurant_id"`
		Name         string `json:"name"`
	}
	if err := decodeBody(r, &body); err != nil || body.RestaurantID == 0 || body.Name == "" {
		s.respondError(w, http.StatusBadRequest, "restaurant_id and name are required")
		return
	}

	res, err := s.store.Execute(r.Context(),
		"INSERT INTO sections (restaurant_id, name) VALUES (?, ?)",
		body.RestaurantID, body.Name)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, map[string]any{
		"id":            res.LastInsertID,
		"restaurant_id": body.RestaurantID,
		"name":          body.Name,
	})
}

func (s *Server) deleteSection(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if _, err := s.store.Execute(r.Context(),
		"DELETE FROM sections WHERE id = ?", id); err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"success": true})
}
