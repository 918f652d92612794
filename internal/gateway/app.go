// Package gateway builds the public API app that fronts the layer service.
package gateway

import (
	"time"

	"layer-editor/internal/common/config"
	"layer-editor/internal/common/health"
	"layer-editor/internal/common/middleware"
	"layer-editor/internal/gateway/proxy"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// ============================================================
// API Gateway
// ============================================================

// New собирает шлюз: health, /api/v1 и прокси в сервис слоёв.
func New(cfg *config.Config) *fiber.App {
	timeout := time.Duration(cfg.RequestTimeout) * time.Second

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		BodyLimit:    32 * 1024 * 1024,
		AppName:      "API Gateway",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.Logger("GATEWAY"))
	app.Use(middleware.CORS())

	// ============================================================
	// Health Check Routes
	// ============================================================

	health.Register(app, health.UpstreamLive(cfg.LayersURL, timeout))

	// ============================================================
	// API Routes
	// ============================================================

	api := app.Group("/api/v1")

	api.Get("/", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Layer Editor API v1",
			"status":  "ok",
		})
	})

	// ============================================================
	// Service Routes (Proxy)
	// ============================================================

	layers := proxy.NewUpstream(cfg.LayersURL, timeout)
	for _, prefix := range []string{"/projects", "/layers", "/media"} {
		api.All(prefix, layers.ProxyTo(prefix))
		layers.Mount(api, prefix)
	}

	return app
}
