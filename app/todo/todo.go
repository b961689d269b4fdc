// Package todo implements the todo repository, the CRUD layer the web and terminal front-ends call.
// Every operation loads the whole list from the store, changes it in memory and writes it back.
package todo

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/umputun/todomvc/app/enums"
	"github.com/umputun/todomvc/app/store"
)

// ErrNotFound returned by Update for an id not in the list
var ErrNotFound = errors.New("todo not found")

// Store defines persistence operations used by the repository
type Store interface {
	Load(ctx context.Context) ([]store.Todo, error)
	Save(ctx context.Context, todos []store.Todo) error
	NextID(ctx context.Context) (int, error)
}

// Changes is a partial update, nil fields are left as they are
type Changes struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// Repository provides todo operations over a single store.
// The mutex makes each read-modify-write atomic for callers in this process.
type Repository struct {
	mu    sync.Mutex
	store Store
}

// New makes a repository for the store
func New(st Store) *Repository {
	return &Repository{store: st}
}

// GetAll returns all todos in insertion order
func (r *Repository) GetAll(ctx context.Context) ([]store.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Load(ctx)
}

// Create appends a new, not completed todo with the next id.
// The title is stored as given, trimming and blank checks belong to the caller.
func (r *Repository) Create(ctx context.Context, title string) (store.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	todos, err := r.store.Load(ctx)
	if err != nil {
		return store.Todo{}, err
	}
	id, err := r.store.NextID(ctx)
	if err != nil {
		return store.Todo{}, err
	}
	td := store.Todo{ID: id, Title: title}
	if err := r.store.Save(ctx, append(todos, td)); err != nil {
		return store.Todo{}, err
	}
	return td, nil
}

// Update merges changes into the todo with the id and returns the result.
// Returns ErrNotFound (wrapped) if there is no such todo, nothing is written in this case.
func (r *Repository) Update(ctx context.Context, id int, ch Changes) (store.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	todos, err := r.store.Load(ctx)
	if err != nil {
		return store.Todo{}, err
	}
	idx := indexOf(todos, id)
	if idx < 0 {
		return store.Todo{}, fmt.Errorf("update %d: %w", id, ErrNotFound)
	}

	td := todos[idx]
	if ch.Title != nil {
		td.Title = *ch.Title
	}
	if ch.Completed != nil {
		td.Completed = *ch.Completed
	}
	todos[idx] = td

	if err := r.store.Save(ctx, todos); err != nil {
		return store.Todo{}, err
	}
	return td, nil
}

// Delete removes the todo with the id. Deleting a missing id is not an error,
// the list is written back unchanged.
func (r *Repository) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	todos, err := r.store.Load(ctx)
	if err != nil {
		return err
	}
	res := make([]store.Todo, 0, len(todos))
	for _, td := range todos {
		if td.ID != id {
			res = append(res, td)
		}
	}
	return r.store.Save(ctx, res)
}

// ToggleAll sets completed flag on every todo in a single write
func (r *Repository) ToggleAll(ctx context.Context, completed bool) ([]store.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	todos, err := r.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range todos {
		todos[i].Completed = completed
	}
	if err := r.store.Save(ctx, todos); err != nil {
		return nil, err
	}
	return todos, nil
}

// ClearCompleted removes all completed todos and returns how many were removed
func (r *Repository) ClearCompleted(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	todos, err := r.store.Load(ctx)
	if err != nil {
		return 0, err
	}
	res := Filter(todos, enums.ViewModeActive)
	if err := r.store.Save(ctx, res); err != nil {
		return 0, err
	}
	return len(todos) - len(res), nil
}

// Filter returns todos visible in the view mode, order preserved
func Filter(todos []store.Todo, mode enums.ViewMode) []store.Todo {
	res := make([]store.Todo, 0, len(todos))
	for _, td := range todos {
		switch mode {
		case enums.ViewModeActive:
			if td.Completed {
				continue
			}
		case enums.ViewModeCompleted:
			if !td.Completed {
				continue
			}
		}
		res = append(res, td)
	}
	return res
}

// ActiveCount returns number of not completed todos
func ActiveCount(todos []store.Todo) int {
	n := 0
	for _, td := range todos {
		if !td.Completed {
			n++
		}
	}
	return n
}

// CompletedCount returns number of completed todos
func CompletedCount(todos []store.Todo) int {
	return len(todos) - ActiveCount(todos)
}

func indexOf(todos []store.Todo, id int) int {
	for i, td := range todos {
		if td.ID == id {
			return i
		}
	}
	return -1
}
