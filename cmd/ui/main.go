package main

import (
	"context"

	"gotercih/internal"
	"gotercih/internal/config"
	"gotercih/internal/container"
	"gotercih/ui"

	"github.com/joho/godotenv"
)

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
	defer c.Shutdown(context.Background())

	ctx := context.Background()
	if err := c.Init(ctx); err != nil {
		log.Fatal("Failed to load school catalog: %v", err)
	}
	if err := c.StartWatcher(ctx); err != nil {
		log.Warn("File watching disabled: %v", err)
	}

	app, err := ui.NewServer(c.Catalog, cfg.Server.GinMode)
	if err != nil {
		log.Fatal("Failed to create UI server: %v", err)
	}

	log.Info("Starting tercih UI on http://localhost:%s", cfg.Server.Port)
	log.Fatal("%v", app.Start(":"+cfg.Server.Port))
}
