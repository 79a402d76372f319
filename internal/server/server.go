package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/teamforge/realtime/internal/config"
	"github.com/teamforge/realtime/internal/feed"
	"github.com/teamforge/realtime/internal/realtime"
)

// Pinger is the health-check surface of the database pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server hosts the realtime websocket endpoints and the feed API.
type Server struct {
	cfg    *config.ServerConfig
	hub    *realtime.Hub
	agg    *feed.Aggregator
	db     Pinger
	logger *slog.Logger

	httpSrv *http.Server
}

// New creates a server. db may be nil in tests; the health check then
// skips the database ping.
func New(cfg *config.ServerConfig, hub *realtime.Hub, agg *feed.Aggregator, db Pinger, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:    cfg,
		hub:    hub,
		agg:    agg,
		db:     db,
		logger: logger,
	}
	s.httpSrv = &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: s.routes(),
	}
	return s
}

// routes builds the chi router.
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Get("/realtime/{category}/{token}", s.handleRealtime)
	r.Get("/feed/{userID}", s.handleFeed)
	return r
}

// Handler returns the HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Start serves until Shutdown is called or the listener fails.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.cfg.HTTP.Addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops the listener and tears down every live websocket
// connection.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	err := s.httpSrv.Shutdown(ctx)
	s.hub.CloseAll()
	return err
}
