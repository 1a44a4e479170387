package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk9900/pojedi/internal/server"
	"github.com/lk9900/pojedi/internal/store"
)

func newTestServer(t *testing.T) (*server.Server, *store.Store) {
	t.Helper()
	st, err := store.Open(store.Config{
		CachePath: filepath.Join(t.TempDir(), "pojedi.db"),
		Mode:      store.ModeLocal,
	})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return server.New(st, nil), st
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestCreateAndListRestaurants(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doJSON(t, srv, http.MethodPost, "/api/restaurants", map[string]any{"name": "Cafe X"})
	require.Equal(t, http.StatusCreated, w.Code)

	var created map[string]any
	decode(t, w, &created)
	assert.Equal(t, float64(1), created["id"])
	assert.Equal(t, "Cafe X", created["name"])

	w = doJSON(t, srv, http.MethodGet, "/api/restaurants", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var listed []map[string]any
	decode(t, w, &listed)
	require.Len(t, listed, 1)
	assert.Equal(t, "Cafe X", listed[0]["name"])
}

func TestCreateRestaurant_MissingName(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doJSON(t, srv, http.MethodPost, "/api/restaurants", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]any
	decode(t, w, &body)
	assert.Contains(t, body, "error")
}

func TestSectionsUnderRestaurant(t *testing.T) {
	srv, _ := newTestServer(t)

	doJSON(t, srv, http.MethodPost, "/api/restaurants", map[string]any{"name": "Cafe X"})
	w := doJSON(t, srv, http.MethodPost, "/api/sections",
		map[string]any{"restaurant_id": 1, "name": "Mains"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, srv, http.MethodGet, "/api/restaurants/1/sections", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var sections []map[string]any
	decode(t, w, &sections)
	require.Len(t, sections, 1)
	assert.Equal(t, "Mains", sections[0]["name"])
}

func TestCreateSection_MissingFields(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doJSON(t, srv, http.MethodPost, "/api/sections", map[string]any{"name": "Mains"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMealLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	doJSON(t, srv, http.MethodPost, "/api/restaurants", map[string]any{"name": "Cafe X"})
	doJSON(t, srv, http.MethodPost, "/api/sections",
		map[string]any{"restaurant_id": 1, "name": "Mains"})

	w := doJSON(t, srv, http.MethodPost, "/api/meals",
		map[string]any{"section_id": 1, "name": "Soup"})
	require.Equal(t, http.StatusCreated, w.Code)

	var created map[string]any
	decode(t, w, &created)
	assert.Equal(t, float64(0), created["tried"])

	w = doJSON(t, srv, http.MethodPatch, "/api/meals/1", map[string]any{"tried": true})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, http.MethodGet, "/api/sections/1/meals", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var meals []map[string]any
	decode(t, w, &meals)
	require.Len(t, meals, 1)
	assert.Equal(t, float64(1), meals[0]["tried"])

	w = doJSON(t, srv, http.MethodDelete, "/api/meals/1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, http.MethodGet, "/api/sections/1/meals", nil)
	decode(t, w, &meals)
	assert.Empty(t, meals)
}

func TestPatchMeal_MissingTried(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doJSON(t, srv, http.MethodPatch, "/api/meals/1", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListMeals_Ordering(t *testing.T) {
	srv, st := newTestServer(t)
	ctx := context.Background()

	_, err := st.Execute(ctx, "INSERT INTO restaurants (name) VALUES (?)", "Cafe X")
	require.NoError(t, err)
	_, err = st.Execute(ctx, "INSERT INTO sections (restaurant_id, name) VALUES (1, 'Mains')")
	require.NoError(t, err)
	for _, m := range []struct{ name, createdAt string }{
		{"Soup", "2026-08-01 10:00:00"},
		{"Stew", "2026-08-01 11:00:00"},
		{"Pie", "2026-08-01 12:00:00"},
	} {
		_, err = st.Execute(ctx,
			"INSERT INTO meals (section_id, name, created_at) VALUES (1, ?, ?)",
			m.name, m.createdAt)
		require.NoError(t, err)
	}

	// Trying the newest meal demotes it below all untried ones.
	w := doJSON(t, srv, http.MethodPatch, "/api/meals/3", map[string]any{"tried": true})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, http.MethodGet, "/api/sections/1/meals", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var meals []map[string]any
	decode(t, w, &meals)
	require.Len(t, meals, 3)
	assert.Equal(t, "Stew", meals[0]["name"])
	assert.Equal(t, "Soup", meals[1]["name"])
	assert.Equal(t, "Pie", meals[2]["name"])
}

func TestDeleteRestaurant_CascadesThroughAPI(t *testing.T) {
	srv, _ := newTestServer(t)

	doJSON(t, srv, http.MethodPost, "/api/restaurants", map[string]any{"name": "Cafe X"})
	doJSON(t, srv, http.MethodPost, "/api/sections",
		map[string]any{"restaurant_id": 1, "name": "Mains"})
	doJSON(t, srv, http.MethodPost, "/api/meals",
		map[string]any{"section_id": 1, "name": "Soup"})

	w := doJSON(t, srv, http.MethodDelete, "/api/restaurants/1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, http.MethodGet, "/api/restaurants", nil)
	var restaurants []map[string]any
	decode(t, w, &restaurants)
	assert.Empty(t, restaurants)

	w = doJSON(t, srv, http.MethodGet, "/api/sections/1/meals", nil)
	var meals []map[string]any
	decode(t, w, &meals)
	assert.Empty(t, meals)
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doJSON(t, srv, http.MethodPut, "/api/restaurants", map[string]any{"name": "x"})
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	allow := w.Header().Get("Allow")
	assert.Contains(t, allow, http.MethodGet)
	assert.Contains(t, allow, http.MethodPost)
	assert.NotContains(t, allow, http.MethodDelete, "collection path has no DELETE")
}

func TestMethodNotAllowed_MealItemPath(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doJSON(t, srv, http.MethodPost, "/api/meals/1", map[string]any{"name": "x"})
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)

	allow := w.Header().Get("Allow")
	assert.Contains(t, allow, http.MethodPatch)
	assert.Contains(t, allow, http.MethodDelete)
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doJSON(t, srv, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestIDHeader(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doJSON(t, srv, http.MethodGet, "/api/restaurants", nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}
