package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"userinfo-service/internal/cache"
	"userinfo-service/internal/config"
	"userinfo-service/internal/server"
	"userinfo-service/internal/store"
	"userinfo-service/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	slog.Info("Starting user service",
		"addr", cfg.Addr(),
		"debug", cfg.Debug,
		"error_mode", cfg.ErrorMode,
		"cache", cfg.CacheEnabled(),
		"rate_limit", cfg.RateLimit,
	)
	if cfg.Debug {
		slog.Warn("Debug mode is on: error bodies carry internal details")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	users := store.Default()
	deps := server.Deps{
		Users:   users,
		Metrics: telemetry.NewMetrics(),
	}

	if cfg.CacheEnabled() {
		redisClient, err := cache.NewClient(ctx, cfg.RedisAddr)
		if err != nil {
			// The table is authoritative; run without the cache.
			slog.Error("Failed to connect to Redis, continuing without cache", "addr", cfg.RedisAddr, "error", err)
		} else {
			defer redisClient.Close()
			deps.Store = redisClient
			slog.Info("Connected to Redis", "addr", cfg.RedisAddr)
		}
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.New(cfg, deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", srv.Addr, "users", users.Len(), "ids", users.IDs())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown error", "error", err)
	}
	slog.Info("Server stopped")
}
