package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"layer-editor/internal/common/config"
	"layer-editor/internal/common/health"
	"layer-editor/internal/common/middleware"
	"layer-editor/internal/layers/handlers"
	"layer-editor/internal/layers/repository"
	"layer-editor/internal/layers/storage"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// ============================================================
// Layer Service
// ============================================================

func main() {
	cfg := config.Load()
	port := cfg.PortOr("3001")

	db, err := repository.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	repo := repository.New(db)
	if err := repo.Init(context.Background()); err != nil {
		log.Fatalf("init db: %v", err)
	}

	fileStorage := storage.NewFileStorage(cfg.MediaRoot)
	if err := fileStorage.EnsureImagesDir(); err != nil {
		log.Fatalf("media dir: %v", err)
	}
	layerHandler := handlers.NewLayerHandler(repo, fileStorage)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		BodyLimit:    32 * 1024 * 1024,
		AppName:      "Layer Service",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.Logger("LAYERS"))
	app.Use(middleware.CORS())

	// ============================================================
	// Health Check Routes
	// ============================================================

	health.Register(app, db.PingContext)

	// ============================================================
	// Layer Routes
	// ============================================================

	layerHandler.Register(app)

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", port)
	log.Printf("Starting Layer Service on %s (env: %s, db: %s)", addr, cfg.Environment, cfg.DBPath)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
