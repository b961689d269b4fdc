package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/umputun/todomvc/app/store"
	"github.com/umputun/todomvc/app/store/kv"
)

func Test_setupLogsWithLogsDisabled(t *testing.T) {
	opts.Log.Enabled = false
	assert.Equal(t, os.Stdout, setupLogs())
}

func Test_setupLogsToFile(t *testing.T) {
	tmpfile, err := os.CreateTemp(t.TempDir(), "todomvc-*.log")
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())
	defer func() { opts.Log.Enabled = false; setupLogs() }()

	opts.Log.Enabled = true
	opts.Log.Filename = tmpfile.Name()
	opts.Log.MaxSize = 100
	opts.Log.MaxBackups = 7
	opts.Log.MaxAge = 0
	opts.Log.EnabledCompress = false

	out := setupLogs()
	assert.IsType(t, &lumberjack.Logger{}, out)

	logger := out.(*lumberjack.Logger)
	assert.Equal(t, tmpfile.Name(), logger.Filename)
	assert.Equal(t, 100, logger.MaxSize)
	assert.Equal(t, 7, logger.MaxBackups)
	assert.Equal(t, 0, logger.MaxAge)
	assert.False(t, logger.Compress)
	require.NoError(t, logger.Close())
}

func Test_validateBaseURL(t *testing.T) {
	tests := []struct{ name, input, want string }{
		{"empty string", "", ""},
		{"root path", "/", ""},
		{"path without trailing slash", "/todos", "/todos"},
		{"path with trailing slash", "/todos/", "/todos"},
		{"multi-segment path", "/app/todos", "/app/todos"},
		{"multi-segment with trailing slash", "/app/todos/", "/app/todos"},
		{"missing leading slash", "todos", "/todos"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, validateBaseURL(tt.input))
		})
	}
}

func Test_makeStore(t *testing.T) {
	tmpDir := t.TempDir()
	defer func() { opts.Store.Type, opts.Store.Path = "sqlite", "todomvc.db" }()

	tests := []struct {
		typ, path string
		want      any
	}{
		{"memory", "", &kv.Memory{}},
		{"file", filepath.Join(tmpDir, "todos.json"), &kv.File{}},
		{"sqlite", filepath.Join(tmpDir, "todos.db"), &kv.SQLite{}},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			opts.Store.Type, opts.Store.Path = tt.typ, tt.path
			backend, err := makeStore(context.Background())
			require.NoError(t, err)
			assert.IsType(t, tt.want, backend)

			// round trip through the store layer
			st := store.New(backend, "")
			require.NoError(t, st.Save(context.Background(), []store.Todo{{ID: 1, Title: "one"}}))
			loaded, err := st.Load(context.Background())
			require.NoError(t, err)
			assert.Equal(t, []store.Todo{{ID: 1, Title: "one"}}, loaded)
			require.NoError(t, backend.Close())
		})
	}

	t.Run("unknown type", func(t *testing.T) {
		opts.Store.Type = "mongo"
		_, err := makeStore(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown storage type")
	})

	t.Run("redis unreachable", func(t *testing.T) {
		opts.Store.Type = "redis"
		opts.Store.Redis.Addr = "127.0.0.1:1"
		opts.Store.Redis.Attempts = 1
		opts.Store.Redis.Delay = time.Millisecond
		_, err := makeStore(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to connect to redis")
	})
}

func Test_runWithSeed(t *testing.T) {
	tmpDir := t.TempDir()
	seedFile := filepath.Join(tmpDir, "seed.yml")
	require.NoError(t, os.WriteFile(seedFile, []byte("- title: one\n- title: two\n  completed: true\n"), 0o600))
	storePath := filepath.Join(tmpDir, "todos.json")

	defer func() {
		opts.Store.Type, opts.Store.Path, opts.Seed = "sqlite", "todomvc.db", ""
		opts.Web.Address = ":8080"
	}()
	opts.Store.Type, opts.Store.Path, opts.Seed = "file", storePath, seedFile
	opts.Web.Address = "127.0.0.1:0"

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	require.NoError(t, run(ctx), "web server stops on context cancel")

	backend, err := kv.NewFile(storePath)
	require.NoError(t, err)
	loaded, err := store.New(backend, "").Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []store.Todo{{ID: 1, Title: "one"}, {ID: 2, Title: "two", Completed: true}}, loaded)

	t.Run("seed skipped for non-empty store", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		require.NoError(t, run(ctx))
		loaded, err := store.New(backend, "").Load(context.Background())
		require.NoError(t, err)
		assert.Len(t, loaded, 2)
	})

	t.Run("broken seed file", func(t *testing.T) {
		bad := filepath.Join(tmpDir, "bad.yml")
		require.NoError(t, os.WriteFile(bad, []byte("- title: ''\n"), 0o600))
		opts.Seed = bad
		err := run(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty title")
	})
}
