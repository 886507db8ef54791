// Package api implements the local companion HTTP API consumed by the
// mobile UI.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pokevault/pokevault/internal/api/handlers"
	"github.com/pokevault/pokevault/internal/api/websocket"
	"github.com/pokevault/pokevault/internal/auth"
	"github.com/pokevault/pokevault/internal/events"
	"github.com/pokevault/pokevault/internal/list"
	"github.com/pokevault/pokevault/internal/metrics"
	"github.com/pokevault/pokevault/internal/search"
)

// Config holds the server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{
		Port:           9980,
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
	}
}

// Dependencies holds the core services the server exposes.
type Dependencies struct {
	Paginator  *search.Paginator
	Catalog    handlers.CatalogService
	Engine     *list.Engine
	Store      list.Store
	Auth       *auth.Manager
	Dispatcher *events.Dispatcher
	Metrics    *metrics.Collector
	Registry   *prometheus.Registry
	Logger     *slog.Logger
}

// Server is the companion API server: REST routes for search, catalog
// browsing, the shopping list and sessions, plus a WebSocket hub that
// pushes list snapshots and session changes.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	port       int
	logger     *slog.Logger

	wsHub  *websocket.Hub
	bridge *eventBridge

	dispatcher *events.Dispatcher
	registry   *prometheus.Registry

	searchHandler *handlers.SearchHandler
	cardsHandler  *handlers.CardsHandler
	listHandler   *handlers.ListHandler
	authHandler   *handlers.AuthHandler
}

// NewServer creates the API server and registers its event bridge with the
// dispatcher. Call Start to begin serving.
func NewServer(cfg Config, deps Dependencies) (*Server, error) {
	if deps.Paginator == nil || deps.Catalog == nil {
		return nil, fmt.Errorf("paginator and catalog are required")
	}
	if deps.Engine == nil || deps.Store == nil {
		return nil, fmt.Errorf("engine and store are required")
	}
	if deps.Auth == nil || deps.Dispatcher == nil {
		return nil, fmt.Errorf("auth manager and dispatcher are required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultConfig().Port
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = DefaultConfig().AllowedOrigins
	}

	hub := websocket.NewHub(deps.Logger)
	bridge := newEventBridge(deps.Engine, hub, deps.Metrics, deps.Logger)
	deps.Dispatcher.Register(bridge)

	s := &Server{
		router:     chi.NewRouter(),
		port:       cfg.Port,
		logger:     deps.Logger,
		wsHub:      hub,
		bridge:     bridge,
		dispatcher: deps.Dispatcher,
		registry:   deps.Registry,

		searchHandler: handlers.NewSearchHandler(deps.Paginator, deps.Metrics, deps.Logger),
		cardsHandler:  handlers.NewCardsHandler(deps.Catalog, deps.Metrics, deps.Logger),
		listHandler:   handlers.NewListHandler(deps.Engine, deps.Store, deps.Auth, deps.Metrics, deps.Logger),
		authHandler:   handlers.NewAuthHandler(deps.Auth, deps.Logger),
	}

	s.setupMiddleware(cfg.AllowedOrigins)
	s.setupRoutes()

	return s, nil
}

func (s *Server) setupMiddleware(allowedOrigins []string) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

// Router returns the HTTP handler, for serving and for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the hub and serves HTTP until Shutdown. It blocks.
func (s *Server) Start() error {
	go s.wsHub.Run()

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("api server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// Shutdown stops the server: the event bridge is detached, the hub
// disconnects its clients and in-flight requests get until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.dispatcher.Unregister(s.bridge)
	s.bridge.stop()
	s.wsHub.Stop()

	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown api server: %w", err)
	}
	return nil
}
