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

	"github.com/dom/task-tracker/internal/api"
	"github.com/dom/task-tracker/internal/config"
	"github.com/dom/task-tracker/internal/logger"
	"github.com/dom/task-tracker/internal/repository"
	"github.com/dom/task-tracker/internal/repository/memory"
	"github.com/dom/task-tracker/internal/repository/postgres"
	"github.com/dom/task-tracker/internal/service"
	"github.com/dom/task-tracker/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", "error", err)
	}

	logger.Init(cfg.LogLevel, cfg.LogJSON)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize repositories
	repos, closeStore, err := openRepositories(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to open storage", "storage", cfg.Storage, "error", err)
	}
	defer closeStore()

	// Initialize WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()

	// Initialize services
	services, err := service.NewServices(repos, cfg, hub)
	if err != nil {
		logger.Fatal("failed to initialize services", "error", err)
	}

	// Initialize router
	router := api.NewRouter(services, hub, repos, cfg)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port, "environment", cfg.Environment, "storage", cfg.Storage)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", "error", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
	hub.Stop()

	slog.Info("server stopped")
}

func openRepositories(ctx context.Context, cfg *config.Config) (*repository.Repositories, func(), error) {
	if cfg.Storage == config.StorageMemory {
		slog.Warn("using in-memory storage; data will not survive a restart")
		return memory.NewRepositories(), func() {}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db, err := postgres.NewConnection(connectCtx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	closeFn := func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	return postgres.NewRepositories(db), closeFn, nil
}
