package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gotercih/internal"
	"gotercih/internal/api"
	"gotercih/internal/config"
	"gotercih/internal/container"
	"gotercih/ui"

	"github.com/joho/godotenv"
)

func main() {
	log := internal.Log()

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}

	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatal("Failed to create application container: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := appContainer.Init(ctx); err != nil {
		log.Fatal("Failed to load school catalog: %v", err)
	}
	if err := appContainer.StartWatcher(ctx); err != nil {
		log.Warn("File watching disabled: %v", err)
	}

	apiServer := &http.Server{
		Addr:              ":" + appConfig.Server.APIPort,
		Handler:           api.NewHandler(appContainer.Catalog).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("JSON API listening on %s", apiServer.Addr)
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("API server failed: %v", err)
		}
	}()

	server, err := ui.NewServer(appContainer.Catalog, appConfig.Server.GinMode)
	if err != nil {
		log.Fatal("Failed to initialize server: %v", err)
	}
	uiServer := &http.Server{
		Addr:              ":" + appConfig.Server.Port,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("Starting tercih server on port %s", appConfig.Server.Port)
		if err := uiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("UI server failed: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = uiServer.Shutdown(shutdownCtx)
	_ = apiServer.Shutdown(shutdownCtx)
	if err := appContainer.Shutdown(shutdownCtx); err != nil {
		log.Error("Shutdown: %v", err)
	}
}
