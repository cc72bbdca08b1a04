/**
 * Signup service - main entry point.
 *
 * Runs the sign-up wizard HTTP API and the ID-document extraction worker
 * in one process:
 * - gin HTTP surface for the wizard steps and ID-image uploads
 * - asynq worker consuming extraction tasks from Redis
 * - extraction pipeline: image preprocessing -> Tesseract OCR -> heuristic
 *   field extraction
 * - PostgreSQL for registrations and completed users, Redis for extraction
 *   status polling
 */

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/goldengeneration/signup-service/internal/config"
	"github.com/goldengeneration/signup-service/internal/httpapi"
	"github.com/goldengeneration/signup-service/internal/logging"
	"github.com/goldengeneration/signup-service/internal/pipeline"
	"github.com/goldengeneration/signup-service/internal/queue"
	"github.com/goldengeneration/signup-service/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env not found, using system environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.NewLogger("signup", logging.ParseLevel(cfg.LogLevel))
	logger.Info("starting",
		"port", cfg.Port,
		"languages", cfg.OCRLanguages,
		"minImageWidth", cfg.MinImageWidth,
		"workers", cfg.WorkerConcurrency)

	store, err := storage.NewRegistrationStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize registration store: %v", err)
	}
	defer store.Close()
	logger.Info("registration store ready")

	cache, err := storage.NewExtractionCache(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to initialize extraction cache: %v", err)
	}
	defer cache.Close()
	logger.Info("extraction cache ready")

	pipe := pipeline.New(cfg.MinImageWidth, cfg.OCRLanguages, logger.Named("pipeline"))

	worker, err := queue.NewWorker(&queue.WorkerConfig{
		RedisURL:    cfg.RedisURL,
		Concurrency: cfg.WorkerConcurrency,
		Pipeline:    pipe,
		Cache:       cache,
		Logger:      logger.Named("worker"),
	})
	if err != nil {
		log.Fatalf("Failed to initialize extraction worker: %v", err)
	}

	enqueuer, err := queue.NewEnqueuer(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to initialize task enqueuer: %v", err)
	}
	defer enqueuer.Close()

	api := httpapi.NewServer(&httpapi.ServerConfig{
		Store:          store,
		Cache:          cache,
		Enqueuer:       enqueuer,
		Logger:         logger.Named("http"),
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	if err := worker.Start(); err != nil {
		log.Fatalf("Failed to start extraction worker: %v", err)
	}
	logger.Info("extraction worker started", "concurrency", cfg.WorkerConcurrency)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: api.Handler(),
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()
	logger.Info("http server listening", "addr", httpServer.Addr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigChan
	logger.Info("shutdown signal received", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	worker.Stop()
	logger.Info("shutdown complete")
}
