package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/todomvc/app/enums"
	"github.com/umputun/todomvc/app/store"
	"github.com/umputun/todomvc/app/todo"
)

// APICreateRequest is the body of POST /api/v1/todos
type APICreateRequest struct {
	Title string `json:"title"`
}

// APIToggleAllRequest is the body of POST /api/v1/todos/toggle-all
type APIToggleAllRequest struct {
	Completed bool `json:"completed"`
}

// APIClearResponse is the JSON response for POST /api/v1/todos/clear-completed
type APIClearResponse struct {
	Removed int `json:"removed"`
}

// handleAPIList returns todos, optionally filtered with ?filter=all|active|completed
func (s *Server) handleAPIList(w http.ResponseWriter, r *http.Request) {
	mode := enums.ViewModeAll
	if f := r.URL.Query().Get("filter"); f != "" {
		m, err := enums.ParseViewMode(f)
		if err != nil {
			s.writeJSONError(w, http.StatusBadRequest, "invalid filter, expected all, active or completed")
			return
		}
		mode = m
	}

	all, err := s.repository(r).GetAll(r.Context())
	if err != nil {
		s.apiStoreError(w, err, "failed to load todos")
		return
	}
	s.writeJSON(w, http.StatusOK, todo.Filter(all, mode))
}

// handleAPICreate creates a todo, the title is trimmed and must not be blank
func (s *Server) handleAPICreate(w http.ResponseWriter, r *http.Request) {
	var req APICreateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		s.writeJSONError(w, http.StatusBadRequest, "title is required")
		return
	}

	td, err := s.repository(r).Create(r.Context(), title)
	if err != nil {
		s.apiStoreError(w, err, "failed to create todo")
		return
	}
	s.writeJSON(w, http.StatusCreated, td)
}

// handleAPIUpdate applies partial changes to a todo, 404 if it doesn't exist
func (s *Server) handleAPIUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := s.apiPathID(w, r)
	if !ok {
		return
	}

	var ch todo.Changes
	if err := decodeJSON(r, &ch); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if ch.Title != nil {
		title := strings.TrimSpace(*ch.Title)
		if title == "" {
			s.writeJSONError(w, http.StatusBadRequest, "title can't be blank, delete the todo instead")
			return
		}
		ch.Title = &title
	}

	td, err := s.repository(r).Update(r.Context(), id, ch)
	if err != nil {
		if errors.Is(err, todo.ErrNotFound) {
			s.writeJSONError(w, http.StatusNotFound, "todo not found")
			return
		}
		s.apiStoreError(w, err, "failed to update todo")
		return
	}
	s.writeJSON(w, http.StatusOK, td)
}

// handleAPIDelete removes a todo, responds 204 for a missing id as well
func (s *Server) handleAPIDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := s.apiPathID(w, r)
	if !ok {
		return
	}
	if err := s.repository(r).Delete(r.Context(), id); err != nil {
		s.apiStoreError(w, err, "failed to delete todo")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAPIToggleAll sets completed flag on all todos and returns the updated list
func (s *Server) handleAPIToggleAll(w http.ResponseWriter, r *http.Request) {
	var req APIToggleAllRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	todos, err := s.repository(r).ToggleAll(r.Context(), req.Completed)
	if err != nil {
		s.apiStoreError(w, err, "failed to toggle all todos")
		return
	}
	s.writeJSON(w, http.StatusOK, todos)
}

// handleAPIClearCompleted removes completed todos
func (s *Server) handleAPIClearCompleted(w http.ResponseWriter, r *http.Request) {
	removed, err := s.repository(r).ClearCompleted(r.Context())
	if err != nil {
		s.apiStoreError(w, err, "failed to clear completed todos")
		return
	}
	s.writeJSON(w, http.StatusOK, APIClearResponse{Removed: removed})
}

// apiPathID extracts todo id from the {id} path value, responds with JSON 400 on failure
func (s *Server) apiPathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		s.writeJSONError(w, http.StatusBadRequest, "invalid todo id")
		return 0, false
	}
	return id, true
}

// apiStoreError logs repository failure and responds with JSON 500
func (s *Server) apiStoreError(w http.ResponseWriter, err error, msg string) {
	var cde *store.CorruptDataError
	if errors.As(err, &cde) {
		log.Printf("[ERROR] %s, stored data is corrupted: %v", msg, err)
	} else {
		log.Printf("[ERROR] %s: %v", msg, err)
	}
	s.writeJSONError(w, http.StatusInternalServerError, msg)
}

// decodeJSON decodes request body strictly, unknown fields (e.g. "id") are rejected
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[WARN] failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes a JSON error response
func (s *Server) writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]string{"error": message}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("[WARN] failed to encode JSON error response: %v", err)
	}
}
