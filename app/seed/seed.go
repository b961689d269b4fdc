// Package seed loads initial todos from a YAML file into an empty repository
package seed

import (
	"context"
	"fmt"
	"os"
	"strings"

	log "github.com/go-pkgz/lgr"
	"gopkg.in/yaml.v3"

	"github.com/umputun/todomvc/app/store"
	"github.com/umputun/todomvc/app/todo"
)

// Item is a single seed entry
type Item struct {
	Title     string `yaml:"title"`
	Completed bool   `yaml:"completed"`
}

// Repository defines the todo operations seeding needs
type Repository interface {
	GetAll(ctx context.Context) ([]store.Todo, error)
	Create(ctx context.Context, title string) (store.Todo, error)
	Update(ctx context.Context, id int, ch todo.Changes) (store.Todo, error)
}

// Load reads seed items from the YAML file, a list of {title, completed}
func Load(path string) ([]Item, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path from cli
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	var items []Item
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	for i, it := range items {
		if strings.TrimSpace(it.Title) == "" {
			return nil, fmt.Errorf("seed item %d has empty title", i+1)
		}
		items[i].Title = strings.TrimSpace(it.Title)
	}
	return items, nil
}

// Apply creates items in order if the repository is empty. Returns number of created todos,
// zero if the repository already had any.
func Apply(ctx context.Context, repo Repository, items []Item) (int, error) {
	existing, err := repo.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to check existing todos: %w", err)
	}
	if len(existing) > 0 {
		log.Printf("[DEBUG] skip seeding, %d todos already stored", len(existing))
		return 0, nil
	}

	for i, it := range items {
		td, err := repo.Create(ctx, it.Title)
		if err != nil {
			return i, fmt.Errorf("failed to create %q: %w", it.Title, err)
		}
		if !it.Completed {
			continue
		}
		completed := true
		if _, err := repo.Update(ctx, td.ID, todo.Changes{Completed: &completed}); err != nil {
			return i + 1, fmt.Errorf("failed to complete %q: %w", it.Title, err)
		}
	}
	return len(items), nil
}
