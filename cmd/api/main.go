package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"questionnaire-builder/domain/events"
	"questionnaire-builder/infrastructure/config"
	"questionnaire-builder/infrastructure/di"
	"questionnaire-builder/infrastructure/messaging"
	"questionnaire-builder/interfaces/http/rest"

	"go.uber.org/zap"
)

func main() {
	// Initialize context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer cleanup()

	container.Dispatcher.Subscribe(messaging.AllEvents, func(_ context.Context, e events.DomainEvent) error {
		container.Logger.Debug("Domain event",
			zap.String("type", e.GetEventType()),
			zap.String("questionnaire_id", e.GetAggregateID()),
		)
		return nil
	})

	go container.RunSessionJanitor(ctx)

	opts := rest.Options{
		EnableCORS:     cfg.EnableCORS,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		MaxImportBytes: cfg.MaxImportBytes,
		Debug:          cfg.IsDevelopment(),
		Ready:          container.Ready,
	}
	if cfg.EnableMetrics {
		opts.Metrics = container.Metrics.Handler()
		opts.Recorder = container.Metrics
	}

	router := rest.NewRouter(
		container.CommandBus,
		container.QueryBus,
		container.IDs,
		opts,
		container.Logger,
	)

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      router.Setup(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		container.Logger.Info("Starting server",
			zap.String("address", cfg.ServerAddress),
			zap.String("environment", cfg.Environment),
			zap.Bool("metrics", cfg.EnableMetrics),
			zap.Bool("tracing", cfg.EnableTracing),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			container.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	container.Logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		container.Logger.Error("Server shutdown error", zap.Error(err))
	}
	cancel()

	if err := container.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	log.Println("Server stopped")
}
