// Package web implements the TodoMVC web server: server-rendered pages for the browser and a JSON API
package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/didip/tollbooth/v8"
	"github.com/didip/tollbooth/v8/limiter"
	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"
	"github.com/google/uuid"

	"github.com/umputun/todomvc/app/enums"
	"github.com/umputun/todomvc/app/store"
	"github.com/umputun/todomvc/app/todo"
)

//go:embed templates/*.html templates/partials/*.html
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

const clientCookie = "todomvc-client"

type namespaceCtxKey struct{}

// clientNamespace is the storage namespace of the request, fresh for an id issued by this request
type clientNamespace struct {
	name  string
	fresh bool
}

// Server represents the web server
type Server struct {
	backend        store.KV
	templates      map[string]*template.Template
	reposMu        sync.Mutex
	repos          map[string]*todo.Repository // namespace -> repository, never evicted
	baseURL        string                      // base URL path for reverse proxy (e.g., /todos), empty for root
	version        string
	perClient      bool                        // separate list per browser, keyed by client cookie
	apiLimiter     *limiter.Limiter            // rate limiter for JSON API writes, nil if disabled
	csrfProtection *http.CrossOriginProtection // csrf protection for POST endpoints
}

// Config holds server configuration
type Config struct {
	Store     store.KV // key-value backend for all todo lists
	BaseURL   string   // base URL path for reverse proxy, empty for root
	Version   string
	PerClient bool    // give every browser its own list, like browser-local storage
	APIRate   float64 // max JSON API writes per second per client ip, 0 disables limiting
}

// TemplateData holds data for templates
type TemplateData struct {
	Todos          []store.Todo // visible in the current view mode
	ViewMode       enums.ViewMode
	Filters        []filterLink
	TotalCount     int
	ActiveCount    int
	CompletedCount int
	AllCompleted   bool
	BaseURL        string
	Version        string
	CurrentYear    int
}

type filterLink struct {
	Title    string
	Path     string
	Selected bool
}

// New creates a new web server
func New(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("web server initialization failed: store is required")
	}

	s := &Server{
		backend:        cfg.Store,
		repos:          make(map[string]*todo.Repository),
		baseURL:        cfg.BaseURL,
		version:        cfg.Version,
		perClient:      cfg.PerClient,
		csrfProtection: http.NewCrossOriginProtection(),
	}

	if cfg.APIRate > 0 {
		s.apiLimiter = tollbooth.NewLimiter(cfg.APIRate, nil)
		s.apiLimiter.SetIPLookup(limiter.IPLookup{Name: "RemoteAddr"})
		s.apiLimiter.SetMessageContentType("application/json")
		s.apiLimiter.SetMessage(`{"error":"too many requests"}`)
	}

	templates, err := s.parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("web server initialization failed: failed to parse HTML templates: %w", err)
	}
	s.templates = templates

	return s, nil
}

// Run starts the web server and blocks until ctx is canceled
func (s *Server) Run(ctx context.Context, address string) error {
	server := &http.Server{
		Addr:              address,
		Handler:           s.handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] failed to shutdown server: %v", err)
		}
	}()

	log.Printf("[INFO] starting web server on %s", address)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("web server failed: %w", err)
	}
	return nil
}

// handler returns the http.Handler with base URL wrapping applied
func (s *Server) handler() http.Handler {
	routes := s.routes()
	if s.baseURL == "" {
		return routes
	}

	mux := http.NewServeMux()
	// base URL without trailing slash redirects to the one with trailing slash
	mux.HandleFunc(s.baseURL, func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, s.baseURL+"/", http.StatusMovedPermanently)
	})
	mux.Handle(s.baseURL+"/", http.StripPrefix(s.baseURL, routes))
	return mux
}

// routes returns the http.Handler with all routes configured
func (s *Server) routes() http.Handler {
	router := routegroup.New(http.NewServeMux())

	router.Use(
		rest.RealIP,
		rest.Recoverer(log.Default()),
		rest.Throttle(1000),
		rest.AppInfo("todomvc", "umputun", s.version),
		rest.Ping,
		rest.Trace,
		rest.SizeLimit(64*1024), // 64KB max request size
		logger.New(logger.Log(log.Default()), logger.Prefix("[DEBUG]")).Handler,
	)
	// pages, view mode is selected by path: /, /active, /completed
	router.Group().Route(func(pages *routegroup.Bundle) {
		if s.perClient {
			pages.Use(s.clientMiddleware(true))
		}
		pages.HandleFunc("GET /", s.handleView)

		// form posts from the pages, each redirects back to the view
		pages.Group().Route(func(forms *routegroup.Bundle) {
			forms.Use(s.csrfProtection.Handler)
			forms.HandleFunc("POST /todos", s.handleCreate)
			forms.HandleFunc("POST /todos/{id}/toggle", s.handleToggle)
			forms.HandleFunc("POST /todos/{id}/edit", s.handleEdit)
			forms.HandleFunc("POST /todos/{id}/delete", s.handleDelete)
			forms.HandleFunc("POST /toggle-all", s.handleToggleAll)
			forms.HandleFunc("POST /clear-completed", s.handleClearCompleted)
		})
	})

	// JSON API for programmatic access, never issues client cookies
	router.Mount("/api/v1").Route(func(api *routegroup.Bundle) {
		api.Use(rest.NoCache)
		if s.perClient {
			api.Use(s.clientMiddleware(false))
		}
		api.HandleFunc("GET /todos", s.handleAPIList)

		api.Group().Route(func(wr *routegroup.Bundle) {
			wr.Use(s.csrfProtection.Handler)
			if s.apiLimiter != nil {
				wr.Use(tollbooth.HTTPMiddleware(s.apiLimiter))
			}
			wr.HandleFunc("POST /todos", s.handleAPICreate)
			wr.HandleFunc("PATCH /todos/{id}", s.handleAPIUpdate)
			wr.HandleFunc("DELETE /todos/{id}", s.handleAPIDelete)
			wr.HandleFunc("POST /todos/toggle-all", s.handleAPIToggleAll)
			wr.HandleFunc("POST /todos/clear-completed", s.handleAPIClearCompleted)
		})
	})

	fsys, err := fs.Sub(staticFS, "static")
	if err != nil {
		log.Printf("[ERROR] failed to create static file system: %v", err)
		router.Handle("GET /static/", http.FileServer(http.FS(staticFS)))
	} else {
		router.HandleFiles("/static/", http.FS(fsys))
	}

	return router
}

// clientMiddleware puts the client id from the cookie to the request context as the storage namespace.
// With issue set a browser without a valid cookie gets a new id, otherwise such request uses the
// default namespace.
func (s *Server) clientMiddleware(issue bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := clientNamespace{}
			if cookie, err := r.Cookie(clientCookie); err == nil {
				if _, perr := uuid.Parse(cookie.Value); perr == nil {
					client.name = cookie.Value
				}
			}
			if client.name == "" && issue {
				client = clientNamespace{name: uuid.NewString(), fresh: true}
				http.SetCookie(w, &http.Cookie{
					Name:     clientCookie,
					Value:    client.name,
					Path:     s.cookiePath(),
					MaxAge:   365 * 24 * 60 * 60, // 1 year
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
				log.Printf("[DEBUG] new client %s", client.name)
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), namespaceCtxKey{}, client)))
		})
	}
}

// repository returns the repository for the request namespace, making it on first use.
// One repository per namespace keeps its mutex the only writer of that list in this process.
// A client seen for the first time gets a repository that is not kept, it is registered
// only once the browser sends the cookie back.
func (s *Server) repository(r *http.Request) *todo.Repository {
	client, _ := r.Context().Value(namespaceCtxKey{}).(clientNamespace)
	if client.fresh {
		return todo.New(store.New(s.backend, client.name))
	}

	s.reposMu.Lock()
	defer s.reposMu.Unlock()
	repo, ok := s.repos[client.name]
	if !ok {
		repo = todo.New(store.New(s.backend, client.name))
		s.repos[client.name] = repo
	}
	return repo
}

// render renders a template
func (s *Server) render(w http.ResponseWriter, page, tmplName string, data any) {
	tmpl, ok := s.templates[page]
	if !ok {
		log.Printf("[WARN] template %s not found", page)
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}

	buf := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(buf, tmplName, data); err != nil {
		log.Printf("[WARN] failed to execute template: %v", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("[WARN] failed to write response: %v", err)
	}
}

// parseTemplates parses all templates
func (s *Server) parseTemplates() (map[string]*template.Template, error) {
	templates := make(map[string]*template.Template)

	funcMap := template.FuncMap{
		"url":    s.url,
		"plural": plural,
	}

	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templatesFS,
		"templates/base.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse base template: %w", err)
	}
	templates["base.html"] = base

	return templates, nil
}

// newTemplateData makes template data for the view mode from the full list
func (s *Server) newTemplateData(all []store.Todo, mode enums.ViewMode) TemplateData {
	filters := make([]filterLink, 0, len(enums.ViewModeValues))
	for _, m := range enums.ViewModeValues {
		filters = append(filters, filterLink{
			Title:    strings.ToUpper(m.String()[:1]) + m.String()[1:],
			Path:     viewPath(m),
			Selected: m == mode,
		})
	}

	active := todo.ActiveCount(all)
	return TemplateData{
		Todos:          todo.Filter(all, mode),
		ViewMode:       mode,
		Filters:        filters,
		TotalCount:     len(all),
		ActiveCount:    active,
		CompletedCount: len(all) - active,
		AllCompleted:   len(all) > 0 && active == 0,
		BaseURL:        s.baseURL,
		Version:        s.version,
		CurrentYear:    time.Now().Year(),
	}
}

// url prepends the base URL to a path for reverse proxy support
func (s *Server) url(path string) string {
	return s.baseURL + path
}

// cookiePath returns the cookie path with base URL support
func (s *Server) cookiePath() string {
	if s.baseURL == "" {
		return "/"
	}
	return s.baseURL + "/"
}

// viewPath returns page path for the view mode
func viewPath(mode enums.ViewMode) string {
	if mode == enums.ViewModeAll {
		return "/"
	}
	return "/" + mode.String()
}

// plural picks the word form for the count, "1 item" vs "2 items"
func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
