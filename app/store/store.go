// Package store persists the todo list and the id counter into a key-value backend.
// Both values are kept as JSON under two keys, "todos" and "lastId", and are read and
// rewritten in full on every operation. An optional namespace prefixes both keys, so one
// backend can keep several independent lists.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/umputun/todomvc/app/store/kv"
)

//go:generate mockery --name KV --output mocks --outpkg mocks --with-expecter=false

const (
	todosKey  = "todos"
	lastIDKey = "lastId"
)

// Todo is a single todo record
type Todo struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// KV defines the backend operations the store needs. Get must return kv.ErrNotFound for a missing key.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// CorruptDataError returned when a stored value can't be parsed.
// The store never resets such a value on its own, the operation fails and the value stays as is.
type CorruptDataError struct {
	Key string
	Err error
}

func (e *CorruptDataError) Error() string {
	return fmt.Sprintf("corrupt data under key %q: %v", e.Key, e.Err)
}

func (e *CorruptDataError) Unwrap() error { return e.Err }

// Store reads and writes the todo list of a single namespace
type Store struct {
	kv        KV
	namespace string
}

// New makes a store for the namespace. Empty namespace uses bare "todos" and "lastId" keys.
func New(backend KV, namespace string) *Store {
	return &Store{kv: backend, namespace: namespace}
}

// Load returns the stored list, empty if nothing was saved yet
func (s *Store) Load(ctx context.Context) ([]Todo, error) {
	key := s.key(todosKey)
	val, err := s.kv.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return []Todo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load todos: %w", err)
	}

	var todos []Todo
	if err := json.Unmarshal([]byte(val), &todos); err != nil {
		return nil, &CorruptDataError{Key: key, Err: err}
	}
	if todos == nil { // stored "null"
		todos = []Todo{}
	}
	return todos, nil
}

// Save replaces the stored list with todos
func (s *Store) Save(ctx context.Context, todos []Todo) error {
	if todos == nil {
		todos = []Todo{}
	}
	data, err := json.Marshal(todos)
	if err != nil {
		return fmt.Errorf("failed to marshal todos: %w", err)
	}
	if err := s.kv.Set(ctx, s.key(todosKey), string(data)); err != nil {
		return fmt.Errorf("failed to save todos: %w", err)
	}
	return nil
}

// NextID increments the persisted counter and returns the new value.
// Not safe for concurrent use on the same namespace, callers serialize it with the list update.
func (s *Store) NextID(ctx context.Context) (int, error) {
	key := s.key(lastIDKey)
	last := 0
	val, err := s.kv.Get(ctx, key)
	switch {
	case errors.Is(err, kv.ErrNotFound):
	case err != nil:
		return 0, fmt.Errorf("failed to load last id: %w", err)
	default:
		if err := json.Unmarshal([]byte(val), &last); err != nil {
			return 0, &CorruptDataError{Key: key, Err: err}
		}
		if last < 0 {
			return 0, &CorruptDataError{Key: key, Err: fmt.Errorf("negative counter %d", last)}
		}
	}

	next := last + 1
	if err := s.kv.Set(ctx, key, strconv.Itoa(next)); err != nil {
		return 0, fmt.Errorf("failed to save last id: %w", err)
	}
	return next, nil
}

// Namespace returns the key prefix of the store
func (s *Store) Namespace() string { return s.namespace }

func (s *Store) key(name string) string {
	if s.namespace == "" {
		return name
	}
	return s.namespace + "/" + name
}
