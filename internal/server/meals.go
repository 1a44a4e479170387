package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (s *Server) listMeals(w http.ResponseWriter, r *http.Request) {
	sectionID := mux.Vars(r)["id"]

	// Untried first, then newest first.
	rows, err := s.store.Query(r.Context(),
		"SELECT * FROM meals WHERE section_id = ? ORDER BY tried ASC, created_at DESC",
		sectionID)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, rows)
}

func (s *Server) createMeal(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SectionID int64  `json:"section_id"`
		Name      string `json:"name"`
	}
	if err := decodeBody(r, &body); err != nil || body.SectionID == 0 || body.Name == "" {
		s.respondError(w, http.StatusBadRequest, "section_id and name are required")
		return
	}

	res, err := s.store.Execute(r.Context(),
		"INSERT INTO meals (section_id, name) VALUES (?, ?)",
		body.SectionID, body.Name)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, map[string]any{
		"id":         res.LastInsertID,
		"section_id": body.SectionID,
		"name":       body.Name,
		"tried":      0,
	})
}

func (s *Server) updateMeal(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var body struct {
		Tried *bool `json:"tried"`
	}
	if err := decodeBody(r, &body); err != nil || body.Tried == nil {
		s.respondError(w, http.StatusBadRequest, "tried status is required")
		return
	}

	tried := 0
	if *body.Tried {
		tried = 1
	}

	if _, err := s.store.Execute(r.Context(),
		"UPDATE meals SET tried = ? WHERE id = ?", tried, id); err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"id": id, "tried": tried})
}

func (s *Server) deleteMeal(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if _, err := s.store.Execute(r.Context(),
		"DELETE FROM meals WHERE id = ?", id); err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"success": true})
}
