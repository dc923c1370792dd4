// Package server exposes the layout engine and the scene editor over HTTP.
//
// Stateless endpoints (/v1/layout, /v1/check, /v1/render) take a scenario
// document in the request body. Scenario endpoints operate on the configured
// store and go through the editor, so every save is checked for cycles.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/scenegraph/pkg/editor"
	"github.com/matzehuels/scenegraph/pkg/pipeline"
	"github.com/matzehuels/scenegraph/pkg/store"
	"github.com/matzehuels/scenegraph/pkg/story/layout"
)

// DefaultMaxBodyBytes limits request bodies when Config.MaxBodyBytes is zero.
const DefaultMaxBodyBytes = 8 << 20

// Config holds listener and request settings.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64

	// Layout holds the default layout options; query parameters override them.
	Layout layout.Options
}

// Deps are the collaborators the server routes to.
type Deps struct {
	Runner *pipeline.Runner
	Store  store.Store
	Logger *log.Logger

	// Metrics serves /metrics when set.
	Metrics http.Handler
}

// Server is the scenegraph HTTP API.
type Server struct {
	cfg     Config
	runner  *pipeline.Runner
	store   store.Store
	editor  *editor.Editor
	logger  *log.Logger
	metrics http.Handler
	router  chi.Router
}

// New builds a server and its routes. A nil runner gets an uncached one and
// a nil store an empty in-memory store.
func New(cfg Config, deps Deps) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}
	if deps.Runner == nil {
		deps.Runner = pipeline.NewRunner(nil, nil, deps.Logger)
	}
	if deps.Store == nil {
		deps.Store = store.NewMemoryStore()
	}

	s := &Server{
		cfg:     cfg,
		runner:  deps.Runner,
		store:   deps.Store,
		editor:  editor.New(deps.Store, deps.Logger),
		logger:  deps.Logger,
		metrics: deps.Metrics,
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.recoverer)
	r.Use(s.limitBody)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Code: "NOT_FOUND", Message: "no route for " + r.Method + " " + r.URL.Path})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Code: "METHOD_NOT_ALLOWED", Message: r.Method + " not allowed"})
	})

	s.handle(r, http.MethodGet, "/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	s.handle(r, http.MethodPost, "/v1/layout", s.handleLayout)
	s.handle(r, http.MethodPost, "/v1/check", s.handleCheck)
	s.handle(r, http.MethodPost, "/v1/render", s.handleRender)

	s.handle(r, http.MethodGet, "/v1/scenarios", s.handleListScenarios)
	s.handle(r, http.MethodPost, "/v1/scenarios", s.handleCreateScenario)
	s.handle(r, http.MethodGet, "/v1/scenarios/{id}", s.handleGetScenario)
	s.handle(r, http.MethodGet, "/v1/scenarios/{id}/layout", s.handleScenarioLayout)
	s.handle(r, http.MethodPost, "/v1/scenarios/{id}/scenes", s.handleAddScene)
	s.handle(r, http.MethodPut, "/v1/scenarios/{id}/scenes/{sceneID}", s.handlePutScene)
	s.handle(r, http.MethodDelete, "/v1/scenarios/{id}/scenes/{sceneID}", s.handleDeleteScene)
	return r
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.Serve(ln)
	}()
	s.logger.Info("listening", "addr", ln.Addr().String())

	select {
	case <-ctx.Done():
		timeout := s.cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		s.logger.Info("shutting down")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
