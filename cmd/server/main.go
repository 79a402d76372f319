package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/teamforge/realtime/internal/config"
	"github.com/teamforge/realtime/internal/database"
	"github.com/teamforge/realtime/internal/feed"
	"github.com/teamforge/realtime/internal/identity"
	"github.com/teamforge/realtime/internal/realtime"
	"github.com/teamforge/realtime/internal/server"
	"github.com/teamforge/realtime/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/realtime.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting realtime service",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"addr", cfg.HTTP.Addr,
	)

	// Create context cancelled on shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to the platform database
	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger.Info("database connected")

	// Identity lookups and feed sources share the pool
	resolver := identity.NewPostgresResolver(pool)
	oracle := identity.NewPostgresOracle(pool)

	hub := realtime.NewHub(resolver, oracle, logger)

	agg := feed.NewAggregator(logger,
		feed.NewMessageSource(pool),
		feed.NewProjectSource(pool),
		feed.NewStatusSource(pool),
	)

	srv := server.New(cfg, hub, agg, pool, logger)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("service exited with error", "error", err)
		os.Exit(1)
	}

	logger.Info("realtime service stopped")
}
