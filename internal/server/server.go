// Package server exposes the org chart over HTTP.
//
// The server owns one in-memory forest guarded by a mutex; every request
// takes the lock, applies its reads or mutations, and releases it.
// Structural mutations trigger a synchronous relayout through the forest
// observer, so positions in subsequent responses are always current.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/orgtree/pkg/analysis"
	"github.com/matzehuels/orgtree/pkg/forest"
	"github.com/matzehuels/orgtree/pkg/layout"
	"github.com/matzehuels/orgtree/pkg/observability"
)

// Config configures the HTTP server.
type Config struct {
	Addr     string // listen address, e.g. ":8080"
	Layout   layout.Config
	Analyzer *analysis.Client // nil disables the analyze endpoint
	Logger   *log.Logger
}

// Server serves the org chart API over a single shared forest.
type Server struct {
	mu       sync.Mutex
	f        *forest.Forest
	layout   layout.Config
	analyzer *analysis.Client
	logger   *log.Logger
}

// New creates a server around the given forest. The forest is relayouted
// once at construction and again after every structural mutation.
func New(f *forest.Forest, cfg Config) *Server {
	if f == nil {
		f = forest.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	s := &Server{
		f:        f,
		layout:   cfg.Layout,
		analyzer: cfg.Analyzer,
		logger:   cfg.Logger,
	}
	s.watch(f)
	s.relayout()
	return s
}

// watch subscribes the relayout observer. Observers run synchronously on
// the mutating goroutine, which still holds s.mu, so relayout must not
// re-lock.
func (s *Server) watch(f *forest.Forest) {
	f.Subscribe(func(e forest.Event) {
		observability.Mutation().OnMutation(context.Background(), string(e.Op), e.IDs, e.Structural)
		if e.Structural {
			s.relayout()
		}
	})
}

// relayout recomputes positions for the unfiltered view (collapse state
// still applies). Caller must hold s.mu or be the only forest owner.
func (s *Server) relayout() {
	positions := layout.Compute(s.f, forest.Filter{}, s.layout)
	layout.Apply(s.f, positions)
}

// Replace swaps in a new forest, typically after the backing chart file
// changed on disk. The new forest is relayouted before the next request
// can observe it.
func (s *Server) Replace(f *forest.Forest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.f = f
	s.watch(f)
	s.relayout()
}

// Router builds the chi router with all API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/chart", s.handleChart)
	r.Get("/search", s.handleSearch)
	r.Get("/export", s.handleExport)
	r.Post("/import", s.handleImport)
	r.Post("/layout", s.handleLayout)
	r.Post("/analyze", s.handleAnalyze)

	r.Route("/nodes", func(r chi.Router) {
		r.Post("/", s.handleInsert)
		r.Patch("/{id}", s.handleUpdate)
		r.Delete("/{id}", s.handleDelete)
		r.Post("/{id}/collapse", s.handleCollapse)
	})

	r.Route("/ops", func(r chi.Router) {
		r.Post("/replace", s.handleReplace)
		r.Post("/swap", s.handleSwap)
	})

	return r
}

// Run serves the API until the context is cancelled, then shuts down
// gracefully with a short drain window.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// logRequests logs one line per request with the charm logger.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
