package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/todomvc/app/enums"
	"github.com/umputun/todomvc/app/store"
	"github.com/umputun/todomvc/app/todo"
)

// handleView renders the todo list page for the view mode taken from the path
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	mode, ok := viewModeFromPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	all, err := s.repository(r).GetAll(r.Context())
	if err != nil {
		s.storeError(w, err, "failed to load todos")
		return
	}

	s.render(w, "base.html", "base", s.newTemplateData(all, mode))
}

// handleCreate adds a todo from the new-todo form, blank titles are ignored
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	title := strings.TrimSpace(r.FormValue("title"))
	if title != "" {
		if _, err := s.repository(r).Create(r.Context(), title); err != nil {
			s.storeError(w, err, "failed to create todo")
			return
		}
	}
	s.redirectBack(w, r)
}

// handleToggle sets completed state of a single todo
func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	completed := r.FormValue("completed") == "true"
	if _, err := s.repository(r).Update(r.Context(), id, todo.Changes{Completed: &completed}); err != nil && !errors.Is(err, todo.ErrNotFound) {
		s.storeError(w, err, "failed to toggle todo")
		return
	}
	s.redirectBack(w, r)
}

// handleEdit saves an edited title, an emptied title removes the todo
func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	repo := s.repository(r)
	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		if err := repo.Delete(r.Context(), id); err != nil {
			s.storeError(w, err, "failed to delete todo")
			return
		}
		s.redirectBack(w, r)
		return
	}

	if _, err := repo.Update(r.Context(), id, todo.Changes{Title: &title}); err != nil {
		if !errors.Is(err, todo.ErrNotFound) {
			s.storeError(w, err, "failed to update todo")
			return
		}
		// edited in another tab and removed there, nothing to save
		log.Printf("[DEBUG] edit of missing todo %d ignored", id)
	}
	s.redirectBack(w, r)
}

// handleDelete removes a todo, missing id is fine
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.repository(r).Delete(r.Context(), id); err != nil {
		s.storeError(w, err, "failed to delete todo")
		return
	}
	s.redirectBack(w, r)
}

// handleToggleAll marks every todo completed or active
func (s *Server) handleToggleAll(w http.ResponseWriter, r *http.Request) {
	completed := r.FormValue("completed") == "true"
	if _, err := s.repository(r).ToggleAll(r.Context(), completed); err != nil {
		s.storeError(w, err, "failed to toggle all todos")
		return
	}
	s.redirectBack(w, r)
}

// handleClearCompleted removes completed todos
func (s *Server) handleClearCompleted(w http.ResponseWriter, r *http.Request) {
	removed, err := s.repository(r).ClearCompleted(r.Context())
	if err != nil {
		s.storeError(w, err, "failed to clear completed todos")
		return
	}
	log.Printf("[DEBUG] cleared %d completed todos", removed)
	s.redirectBack(w, r)
}

// redirectBack sends the browser back to the view mode posted in the "view" form field
func (s *Server) redirectBack(w http.ResponseWriter, r *http.Request) {
	mode, err := enums.ParseViewMode(r.FormValue("view"))
	if err != nil {
		mode = enums.ViewModeAll
	}
	http.Redirect(w, r, s.url(viewPath(mode)), http.StatusSeeOther)
}

// storeError logs repository failure and responds with 500
func (s *Server) storeError(w http.ResponseWriter, err error, msg string) {
	var cde *store.CorruptDataError
	if errors.As(err, &cde) {
		log.Printf("[ERROR] %s, stored data is corrupted: %v", msg, err)
	} else {
		log.Printf("[ERROR] %s: %v", msg, err)
	}
	http.Error(w, msg, http.StatusInternalServerError)
}

// viewModeFromPath maps page path to view mode, ok is false for unknown paths
func viewModeFromPath(path string) (enums.ViewMode, bool) {
	name := strings.Trim(path, "/")
	if name == "" {
		return enums.ViewModeAll, true
	}
	if name == enums.ViewModeAll.String() {
		return enums.ViewMode{}, false // "all" is served from the root only
	}
	mode, err := enums.ParseViewMode(name)
	if err != nil {
		return enums.ViewMode{}, false
	}
	return mode, true
}

// pathID extracts todo id from the {id} path value, responds with 400 on failure
func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		http.Error(w, "invalid todo id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
