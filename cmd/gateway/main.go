package main

import (
	"fmt"
	"log"

	"layer-editor/internal/common/config"
	"layer-editor/internal/gateway"
)

// ============================================================
// API Gateway
// ============================================================

func main() {
	cfg := config.Load()
	app := gateway.New(cfg)

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting API Gateway on %s (env: %s)", addr, cfg.Environment)
	log.Printf("Proxying /api/v1 to %s", cfg.LayersURL)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
