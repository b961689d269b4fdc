package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/todomvc/app/store"
	"github.com/umputun/todomvc/app/store/kv"
	"github.com/umputun/todomvc/app/todo"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, `# demo list
- title: Unit Testing
  completed: true
- title: "  E2E Testing  "
- title: Test Coverage
`)
	items, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []Item{
		{Title: "Unit Testing", Completed: true},
		{Title: "E2E Testing"},
		{Title: "Test Coverage"},
	}, items)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "title: not a list"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "- title: ok\n- title: '   '\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed item 2 has empty title")
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	repo := todo.New(store.New(kv.NewMemory(), ""))
	items := []Item{{Title: "one"}, {Title: "two", Completed: true}}

	n, err := Apply(ctx, repo, items)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []store.Todo{{ID: 1, Title: "one"}, {ID: 2, Title: "two", Completed: true}}, all)

	// second run doesn't duplicate
	n, err = Apply(ctx, repo, items)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	all, err = repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestApply_CorruptStore(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	require.NoError(t, backend.Set(ctx, "todos", "garbage"))
	n, err := Apply(ctx, todo.New(store.New(backend, "")), []Item{{Title: "x"}})
	require.Error(t, err)
	assert.Equal(t, 0, n)
	var cde *store.CorruptDataError
	assert.ErrorAs(t, err, &cde)
}
