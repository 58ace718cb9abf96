// Package http exposes the health/stats surface: GET /healthz reports
// the reachability of every driven dependency, GET /stats reports the
// Event Coordinator's running outcome totals. There is no document or
// search API here; the only way documents enter or leave the index is
// through the coordinator's own sources.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/archivist-labs/archivist-core/internal/core/ports/driving"
)

// Pinger is a minimal health-check interface any driven adapter can
// satisfy without the HTTP layer depending on its concrete package.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds server configuration.
type Config struct {
	Host    string
	Port    int
	Version string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{Host: "0.0.0.0", Port: 8080, Version: "dev"}
}

// Server is the process's health/status HTTP surface.
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	logger     *slog.Logger

	coordinator driving.Coordinator

	// Dependencies checked by handleHealth. Any may be nil if the
	// deployment does not wire that adapter (e.g. no distributed lock
	// in single-instance mode).
	store Pinger
	index Pinger
	queue Pinger
	lock  Pinger
}

// Dependencies names the health-checkable adapters behind the pipeline.
type Dependencies struct {
	Store Pinger
	Index Pinger
	Queue Pinger
	Lock  Pinger // optional
}

// NewServer creates a new HTTP server.
func NewServer(cfg Config, coordinator driving.Coordinator, deps Dependencies, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router:      http.NewServeMux(),
		version:     cfg.Version,
		logger:      logger,
		coordinator: coordinator,
		store:       deps.Store,
		index:       deps.Index,
		queue:       deps.Queue,
		lock:        deps.Lock,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      applyMiddleware(s.router, logger),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /healthz", s.handleHealth)
	s.router.HandleFunc("GET /version", s.handleVersion)
	s.router.HandleFunc("GET /stats", s.handleStats)
}

// Start runs the HTTP server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
