// Package main runs the PokeVault companion daemon: the local API server
// backing the mobile UI with catalog search, collection browsing and the
// live shopping list.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/pokevault/pokevault/internal/api"
	"github.com/pokevault/pokevault/internal/auth"
	"github.com/pokevault/pokevault/internal/catalog"
	"github.com/pokevault/pokevault/internal/config"
	"github.com/pokevault/pokevault/internal/docstore"
	"github.com/pokevault/pokevault/internal/events"
	"github.com/pokevault/pokevault/internal/list"
	"github.com/pokevault/pokevault/internal/metrics"
	"github.com/pokevault/pokevault/internal/search"
	"github.com/pokevault/pokevault/internal/version"
)

var (
	port        = flag.Int("port", 0, "API server port (overrides config)")
	debug       = flag.Bool("debug", false, "Enable debug logging")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *debug {
		cfg.App.DebugMode = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.App.DebugMode {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("daemon failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	catalogClient := catalog.NewClient(catalog.ClientConfig{
		BaseURL: cfg.Catalog.BaseURL,
		APIKey:  cfg.Catalog.APIKey,
	})

	paginator, err := search.NewPaginator(search.PaginatorConfig{
		Searcher: catalogClient,
		PageSize: cfg.Catalog.PageSize,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("create paginator: %w", err)
	}

	store, err := buildStore(cfg, logger)
	if err != nil {
		return err
	}

	engine, err := list.NewEngine(list.EngineConfig{Store: store, Logger: logger})
	if err != nil {
		return fmt.Errorf("create sync engine: %w", err)
	}

	dispatcher := events.NewDispatcher(logger)

	provider, err := buildProvider(cfg)
	if err != nil {
		return err
	}
	manager, err := auth.NewManager(auth.ManagerConfig{
		Provider:   provider,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("create session manager: %w", err)
	}

	server, err := api.NewServer(api.Config{
		Port:           cfg.Server.Port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, api.Dependencies{
		Paginator:  paginator,
		Catalog:    catalogClient,
		Engine:     engine,
		Store:      store,
		Auth:       manager,
		Dispatcher: dispatcher,
		Metrics:    collector,
		Registry:   registry,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("create api server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// buildStore selects the shopping-list backend: the remote document store
// when one is configured, otherwise the in-process store.
func buildStore(cfg *config.Config, logger *slog.Logger) (list.Store, error) {
	if cfg.Store.BaseURL == "" {
		logger.Info("using in-memory shopping-list store")
		return docstore.NewMemoryStore(), nil
	}

	pollInterval, err := cfg.GetStorePollInterval()
	if err != nil {
		return nil, fmt.Errorf("store poll interval: %w", err)
	}

	store, err := docstore.NewRESTStore(docstore.RESTConfig{
		BaseURL:      cfg.Store.BaseURL,
		APIKey:       cfg.Store.APIKey,
		PollInterval: pollInterval,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create rest store: %w", err)
	}
	logger.Info("using remote shopping-list store", "baseURL", cfg.Store.BaseURL)
	return store, nil
}

// buildProvider selects the identity provider: the configured remote one,
// otherwise in-process accounts.
func buildProvider(cfg *config.Config) (auth.Provider, error) {
	if cfg.Auth.BaseURL == "" {
		return auth.NewLocalProvider(), nil
	}
	provider, err := auth.NewRESTProvider(auth.RESTConfig{
		BaseURL: cfg.Auth.BaseURL,
		APIKey:  cfg.Auth.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create auth provider: %w", err)
	}
	return provider, nil
}
