package health

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"
	fclient "github.com/gofiber/fiber/v3/client"
)

// ============================================================
// Health Check Handlers
// ============================================================

// Check проверяет одну зависимость сервиса.
type Check func(ctx context.Context) error

// Register вешает /health/live, /health/ready и /health/startup.
func Register(router fiber.Router, ready Check) {
	router.Get("/health/live", Liveness)
	router.Get("/health/ready", Readiness(ready))
	router.Get("/health/startup", Startup)
}

// Liveness проверяет, что приложение работает
func Liveness(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "alive",
	})
}

// Readiness отвечает 503, пока check возвращает ошибку.
func Readiness(check Check) fiber.Handler {
	return func(c fiber.Ctx) error {
		if check != nil {
			if err := check(c.Context()); err != nil {
				log.Printf("[HEALTH] not ready: %v", err)
				return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{
					"status": "unavailable",
					"error":  err.Error(),
				})
			}
		}
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	}
}

// Startup проверяет, что приложение успешно запустилось
func Startup(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "started",
	})
}

// UpstreamLive проверяет /health/live сервиса за шлюзом.
func UpstreamLive(baseURL string, timeout time.Duration) Check {
	cli := fclient.New().SetTimeout(timeout)
	return func(ctx context.Context) error {
		resp, err := cli.Get(baseURL+"/health/live", fclient.Config{Ctx: ctx})
		if err != nil {
			return fmt.Errorf("upstream %s: %w", baseURL, err)
		}
		defer resp.Close()
		if resp.StatusCode() != http.StatusOK {
			return fmt.Errorf("upstream %s: status %d", baseURL, resp.StatusCode())
		}
		return nil
	}
}
