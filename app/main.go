package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/umputun/go-flags"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/umputun/todomvc/app/seed"
	"github.com/umputun/todomvc/app/store"
	"github.com/umputun/todomvc/app/store/kv"
	"github.com/umputun/todomvc/app/todo"
	"github.com/umputun/todomvc/app/tui"
	"github.com/umputun/todomvc/app/web"
)

var opts struct {
	Store struct {
		Type  string `long:"type" env:"TYPE" choice:"memory" choice:"file" choice:"sqlite" choice:"redis" default:"sqlite" description:"storage backend"`
		Path  string `long:"path" env:"PATH" default:"todomvc.db" description:"file or sqlite database location"`
		Redis struct {
			Addr     string        `long:"addr" env:"ADDR" default:"localhost:6379" description:"redis address"`
			Password string        `long:"password" env:"PASSWORD" description:"redis password"`
			DB       int           `long:"db" env:"DB" default:"0" description:"redis database"`
			Prefix   string        `long:"prefix" env:"PREFIX" default:"todomvc:" description:"redis key prefix"`
			Attempts int           `long:"attempts" env:"ATTEMPTS" default:"5" description:"connect attempts on start"`
			Delay    time.Duration `long:"delay" env:"DELAY" default:"500ms" description:"initial delay between connect attempts"`
		} `group:"redis" namespace:"redis" env-namespace:"REDIS"`
	} `group:"store" namespace:"store" env-namespace:"TODOMVC_STORE"`

	Web struct {
		Address   string  `long:"address" env:"ADDRESS" default:":8080" description:"web server listen address"`
		BaseURL   string  `long:"base-url" env:"BASE_URL" description:"base URL path for reverse proxy (e.g., /todos)"`
		PerClient bool    `long:"per-client" env:"PER_CLIENT" description:"separate todo list per browser"`
		APIRate   float64 `long:"api-rate" env:"API_RATE" default:"10" description:"max JSON API writes per second per ip, 0 to disable"`
	} `group:"web" namespace:"web" env-namespace:"TODOMVC_WEB"`

	Seed string `long:"seed" env:"TODOMVC_SEED" description:"YAML file with initial todos, applied to an empty store"`
	TUI  bool   `long:"tui" env:"TODOMVC_TUI" description:"run terminal ui instead of web server"`

	Log struct {
		Enabled         bool   `long:"enabled" env:"ENABLED" description:"enable logging to file"`
		Filename        string `long:"filename" env:"FILENAME" default:"todomvc.log" description:"log file name"`
		MaxSize         int    `long:"max-size" env:"MAX_SIZE" default:"100" description:"max log file size in MB"`
		MaxBackups      int    `long:"max-backups" env:"MAX_BACKUPS" default:"10" description:"max number of old log files"`
		MaxAge          int    `long:"max-age" env:"MAX_AGE" default:"30" description:"max days to keep old log files"`
		EnabledCompress bool   `long:"compress" env:"COMPRESS" description:"compress rotated log files"`
	} `group:"log" namespace:"log" env-namespace:"TODOMVC_LOG"`

	Dbg bool `long:"dbg" env:"TODOMVC_DEBUG" description:"debug mode"`
}

var revision = "unknown"

// kvBackend is a key-value store the app owns and closes on exit
type kvBackend interface {
	store.KV
	Close() error
	String() string
}

func main() {
	if _, err := flags.Parse(&opts); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}
	if !opts.TUI {
		fmt.Printf("todomvc %s\n", revision)
	}

	setupLogs()
	if opts.TUI && !opts.Log.Enabled {
		// terminal ui owns the screen, nowhere to print logs
		log.Setup(log.Out(io.Discard), log.Err(io.Discard))
	}

	defer func() {
		if x := recover(); x != nil {
			log.Printf("[WARN] run time panic:\n%v", x)
			panic(x)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	signals(cancel) // handle SIGQUIT, SIGINT and SIGTERM

	if err := run(ctx); err != nil {
		log.Printf("[ERROR] %v", err)
		if opts.TUI {
			fmt.Fprintf(os.Stderr, "todomvc: %v\n", err)
		}
		os.Exit(1)
	}
}

// run opens the storage, applies seed and starts the selected front-end, blocks until ctx is canceled
// or the terminal ui is closed
func run(ctx context.Context) error {
	backend, err := makeStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			log.Printf("[WARN] failed to close storage: %v", err)
		}
	}()
	log.Printf("[INFO] storage %s", backend)

	repo := todo.New(store.New(backend, ""))
	if opts.Seed != "" {
		items, err := seed.Load(opts.Seed)
		if err != nil {
			return err
		}
		n, err := seed.Apply(ctx, repo, items)
		if err != nil {
			return fmt.Errorf("failed to apply seed: %w", err)
		}
		log.Printf("[INFO] seeded %d todos from %s", n, opts.Seed)
	}

	if opts.TUI {
		return tui.Run(ctx, repo)
	}

	srv, err := web.New(web.Config{
		Store:     backend,
		BaseURL:   validateBaseURL(opts.Web.BaseURL),
		Version:   revision,
		PerClient: opts.Web.PerClient,
		APIRate:   opts.Web.APIRate,
	})
	if err != nil {
		return err
	}
	return srv.Run(ctx, opts.Web.Address)
}

// makeStore opens the key-value backend selected by --store.type
func makeStore(ctx context.Context) (kvBackend, error) {
	switch opts.Store.Type {
	case "memory":
		log.Printf("[WARN] memory storage, todos are lost on exit")
		return kv.NewMemory(), nil
	case "file":
		return kv.NewFile(opts.Store.Path)
	case "sqlite", "":
		return kv.NewSQLite(opts.Store.Path)
	case "redis":
		return kv.NewRedis(ctx, kv.RedisParams{
			Addr:            opts.Store.Redis.Addr,
			Password:        opts.Store.Redis.Password,
			DB:              opts.Store.Redis.DB,
			Prefix:          opts.Store.Redis.Prefix,
			ConnectAttempts: opts.Store.Redis.Attempts,
			ConnectDelay:    opts.Store.Redis.Delay,
		})
	default:
		return nil, fmt.Errorf("unknown storage type %q", opts.Store.Type)
	}
}

// setupLogs configures lgr, logs go to the rotated file if enabled, stdout otherwise.
// Returns the writer logs go to.
func setupLogs() io.Writer {
	var out io.Writer = os.Stdout
	logOpts := []log.Option{log.Msec, log.LevelBraces}
	if opts.Log.Enabled {
		out = &lumberjack.Logger{
			Filename:   opts.Log.Filename,
			MaxSize:    opts.Log.MaxSize,
			MaxBackups: opts.Log.MaxBackups,
			MaxAge:     opts.Log.MaxAge,
			Compress:   opts.Log.EnabledCompress,
		}
		logOpts = append(logOpts, log.Out(out), log.Err(out))
	}
	if opts.Dbg {
		logOpts = append(logOpts, log.Debug, log.CallerFunc, log.CallerPkg, log.CallerFile)
	}
	log.Setup(logOpts...)
	return out
}

// validateBaseURL normalizes base URL, "/" and "" mean root, trailing slash is dropped
func validateBaseURL(baseURL string) string {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL != "" && !strings.HasPrefix(baseURL, "/") {
		baseURL = "/" + baseURL
	}
	return baseURL
}

func signals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	go func() {
		stacktrace := make([]byte, 8192)
		for sig := range sigChan {
			if sig == syscall.SIGQUIT { // catch SIGQUIT and print stack traces
				length := runtime.Stack(stacktrace, true)
				fmt.Println(string(stacktrace[:length]))
				continue
			}
			log.Printf("[INFO] %s received, shutting down", sig)
			cancel() // terminate on SIGTERM and SIGINT
		}
	}()
	signal.Notify(sigChan, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT)
}
