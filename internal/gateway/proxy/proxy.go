package proxy

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	fproxy "github.com/gofiber/fiber/v3/middleware/proxy"
	"github.com/valyala/fasthttp"
)

// ============================================================
// Proxy Handler
// ============================================================

// Upstream пересылает запросы шлюза в один сервис.
type Upstream struct {
	baseURL string
	timeout time.Duration
}

func NewUpstream(baseURL string, timeout time.Duration) *Upstream {
	return &Upstream{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
	}
}

// Mount отдаёт upstream всё, что пришло под prefix группы router:
// для группы /api/v1 запрос /api/v1/layers/5 уходит в <base>/layers/5.
// Метод, тело и query не меняются.
func (u *Upstream) Mount(router fiber.Router, prefix string) {
	router.All(prefix+"/*", func(c fiber.Ctx) error {
		return u.Forward(c, prefix+"/"+c.Params("*"))
	})
}

// ProxyTo проксирует запрос на фиксированный путь upstream.
func (u *Upstream) ProxyTo(path string) fiber.Handler {
	return func(c fiber.Ctx) error {
		return u.Forward(c, path)
	}
}

// Forward проксирует запрос на path upstream с исходной query строкой.
func (u *Upstream) Forward(c fiber.Ctx, path string) error {
	target := u.baseURL + path
	if query := string(c.Request().URI().QueryString()); query != "" {
		target += "?" + query
	}
	log.Printf("[PROXY] %s %s -> %s", c.Method(), c.Path(), target)

	if err := fproxy.DoTimeout(c, target, u.timeout); err != nil {
		log.Printf("[PROXY] Error: %v", err)
		c.Response().Reset()
		if errors.Is(err, fasthttp.ErrTimeout) || errors.Is(err, fasthttp.ErrDialTimeout) {
			return c.Status(http.StatusGatewayTimeout).JSON(fiber.Map{"error": "upstream service timed out"})
		}
		return c.Status(http.StatusBadGateway).JSON(fiber.Map{"error": "failed to reach upstream service"})
	}
	return nil
}
