package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/workdiary-service/internal/adapter/httpfetch"
	"github.com/user/workdiary-service/internal/delivery/http/handler"
	"github.com/user/workdiary-service/internal/delivery/http/router"
	"github.com/user/workdiary-service/internal/repository"
	"github.com/user/workdiary-service/internal/usecase"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (default)",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	// --- Configuration, Logger, Metrics ---
	cfg, flush, err := setup()
	if err != nil {
		return err
	}
	defer flush()

	if cfg.APIKey == "" {
		slog.Warn("API_KEY is not set; every gated request will be rejected")
	}

	// --- Storage ---
	ctx := cmd.Context()

	repo, closeDB, err := openRepository(ctx, cfg)
	if err != nil {
		slog.Error("Database setup failed", "driver", cfg.DBDriver, "error", err)
		return err
	}
	defer closeDB()

	imageCache, closeCache, err := openImageCache(ctx, cfg)
	if err != nil {
		slog.Error("Image cache setup failed", "error", err)
		return err
	}
	defer closeCache()

	store, imageDir := newImageStore(cfg)
	fetcher := httpfetch.NewFetcher(&http.Client{Timeout: cfg.ImageFetchTimeout()}, cfg.ImageMaxBytes)

	// --- Use Cases ---
	checks := []handler.HealthCheck{{Name: "database", Ping: repo.Ping}}
	var cache repository.ImageCache
	if imageCache != nil {
		cache = imageCache
		checks = append(checks, handler.HealthCheck{Name: "redis", Ping: imageCache.Ping})
	}
	images := usecase.NewImageNormalizer(store, fetcher, cache, cfg.ImageCacheTTL())
	workDiary := usecase.NewWorkDiaryManager(repo, images)

	// --- HTTP Server ---
	apiHandler := handler.NewHandler(workDiary, cfg.MaxBodyBytes, checks...)
	httpRouter := router.New(apiHandler, router.Options{
		APIKey:   cfg.APIKey,
		ImageDir: imageDir,
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      httpRouter,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.WriteTimeout(),
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		slog.Error("Could not listen on port", "port", cfg.ServerPort, "error", err)
		return err
	case sig := <-quit:
		slog.Info("Shutting down server", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		return err
	}

	slog.Info("Server exiting")
	return nil
}
