package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"pharmacy-dashboard/internal/backend"
	"pharmacy-dashboard/internal/config"
	"pharmacy-dashboard/internal/middleware"
	"pharmacy-dashboard/internal/observability"
	"pharmacy-dashboard/internal/server"
	"pharmacy-dashboard/internal/services"
	"pharmacy-dashboard/internal/settings"
)

// newHandler wires the HTTP surface with its middleware chain.
func newHandler(cfg *config.Config, analytics *services.Analytics, store settings.Store, limiter *middleware.RateLimiter, logger *slog.Logger) http.Handler {
	srv := server.NewServer(cfg, analytics, store, logger)

	chain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(limiter, logger),
		middleware.Auth(cfg.Backend.TokenCookie),
	)

	return chain(srv)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", config.Version,
		"backend", cfg.Backend.BaseURL,
		"settings_store", cfg.Settings.Store,
	)

	store, err := settings.New(cfg.Settings)
	if err != nil {
		logger.Error("failed to open settings store", "error", err)
		os.Exit(1)
	}

	client := backend.NewClient(cfg.Backend, logger)
	analytics := services.NewAnalytics(client, logger)
	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newHandler(cfg, analytics, store, rateLimiter, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook("settings-store", func(ctx context.Context) error {
		logger.Info("closing settings store")
		return store.Close()
	})
	gracefulServer.RegisterShutdownHook("rate-limiter", func(ctx context.Context) error {
		rateLimiter.Close()
		return nil
	})

	logger.Info("starting graceful server")
	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
