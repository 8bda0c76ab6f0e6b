// Package server exposes the packer over HTTP.
//
// Routes:
//
//	GET    /healthz                          liveness and version
//	POST   /v1/pack                          pack sprites, store and return the atlas
//	GET    /v1/atlases                       list stored atlases, newest first
//	GET    /v1/atlases/{id}                  fetch a stored atlas
//	DELETE /v1/atlases/{id}                  delete a stored atlas
//	GET    /v1/atlases/{id}/artifacts/{name} render c, h, json or xlsx for an atlas
//
// Requests pack sizes only; the API never sees pixels, so the png and pdf
// outputs stay CLI-only.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/pngsquare/pkg/cache"
	"github.com/matzehuels/pngsquare/pkg/pipeline"
	"github.com/matzehuels/pngsquare/pkg/storage"
)

// Defaults for [Config].
const (
	DefaultAddr        = ":8080"
	DefaultMaxSprites  = 4096
	DefaultMaxBodySize = 1 << 20
	DefaultMaxSide     = 1024

	// KeyPrefix scopes API cache entries away from CLI entries.
	KeyPrefix = "api:"

	shutdownTimeout = 10 * time.Second
)

// Config configures a [Server].
type Config struct {
	Addr       string
	Cache      cache.Cache   // nil disables caching
	Store      storage.Store // nil means an in-memory store
	Logger     *log.Logger
	MaxSprites int   // per pack request
	MaxBody    int64 // request body limit in bytes

	// MaxSide bounds a sprite's footprint in grid units on either axis.
	// The summed footprint area is capped at MaxSide². The occupancy grid
	// is dense, so these bound a request's memory.
	MaxSide int
}

// Server is the HTTP packing API.
type Server struct {
	addr       string
	runner     *pipeline.Runner
	store      storage.Store
	logger     *log.Logger
	maxSprites int
	maxBody    int64
	maxSide    int
}

// New creates a server. It does not start listening.
func New(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Store == nil {
		cfg.Store = storage.NewMemoryStore()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.MaxSprites <= 0 {
		cfg.MaxSprites = DefaultMaxSprites
	}
	if cfg.MaxBody <= 0 {
		cfg.MaxBody = DefaultMaxBodySize
	}
	if cfg.MaxSide <= 0 {
		cfg.MaxSide = DefaultMaxSide
	}
	runner := pipeline.NewRunner(cfg.Cache, cache.NewScopedKeyer(nil, KeyPrefix), cfg.Logger)
	runner.TTL = cache.TTLAPI
	return &Server{
		addr:       cfg.Addr,
		runner:     runner,
		store:      cfg.Store,
		logger:     cfg.Logger,
		maxSprites: cfg.MaxSprites,
		maxBody:    cfg.MaxBody,
		maxSide:    cfg.MaxSide,
	}
}

// Handler returns the API's routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/pack", s.handlePack)
		r.Get("/atlases", s.handleListAtlases)
		r.Route("/atlases/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetAtlas)
			r.Delete("/", s.handleDeleteAtlas)
			r.Get("/artifacts/{name}", s.handleArtifact)
		})
	})
	return r
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Close releases the cache and the store.
func (s *Server) Close() error {
	return errors.Join(s.runner.Close(), s.store.Close())
}
