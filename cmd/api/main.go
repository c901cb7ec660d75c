package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gotercih/internal"
	"gotercih/internal/api"
	"gotercih/internal/config"
	"gotercih/internal/container"
	"gotercih/internal/metrics"

	"github.com/joho/godotenv"
)

// Serves only the JSON API, with Prometheus metrics alongside.
func main() {
	log := internal.Log()
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}
	c, err := container.New(cfg)
	if err != nil {
		log.Fatal("Failed to create application container: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := c.Init(ctx); err != nil {
		log.Fatal("Failed to load school catalog: %v", err)
	}
	if err := c.StartWatcher(ctx); err != nil {
		log.Warn("File watching disabled: %v", err)
	}

	router := api.NewHandler(c.Catalog).Routes()
	router.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:              ":" + cfg.Server.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = c.Shutdown(shutdownCtx)
	}()

	log.Info("Starting API server on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("Server failed: %v", err)
	}
}
