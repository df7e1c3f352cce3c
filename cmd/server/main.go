package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Omyelshetty/RentApp/internal/app"
	"github.com/Omyelshetty/RentApp/internal/config"
	"github.com/Omyelshetty/RentApp/internal/handlers"
	"github.com/Omyelshetty/RentApp/internal/logger"
	"github.com/gin-gonic/gin"
)

const (
	shutdownTimeout = 30 * time.Second
)

func main() {
	// Load configuration from .env and environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewWithOptions(logger.Options{Env: cfg.Server.Env, Level: cfg.Server.LogLevel})
	log.Info("Starting RentApp API", map[string]interface{}{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
		"store":       cfg.Database.Driver,
	})

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialise application", err, map[string]interface{}{
			"store": cfg.Database.Driver,
		})
	}
	if err := application.Migrate(ctx); err != nil {
		application.Close(context.Background())
		log.Fatal("Failed to apply database schema", err, nil)
	}

	// Workers outlive the signal context so in-flight receipts can finish during shutdown.
	application.Start(context.Background())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           application.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down server...", nil)
	case err := <-serverErr:
		log.Error("Server failed", err, nil)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Drain HTTP first, then the scheduler and receipt workers, then the store.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}
	if err := application.Close(shutdownCtx); err != nil {
		log.Error("Background workers did not stop cleanly", err, nil)
	}

	log.Info("Server exited", nil)
}
