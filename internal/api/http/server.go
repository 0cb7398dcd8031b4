package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/herobudget/notification-service/internal/config"
)

const bodyLimit = 256 * 1024

// NewApp creates the Fiber application. With a proxy header configured, c.IP()
// reports the first valid address in that header when the peer is trusted.
func NewApp(cfg config.AppConfig) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:                 cfg.Name,
		DisableStartupMessage:   true,
		BodyLimit:               bodyLimit,
		ProxyHeader:             cfg.ProxyHeader,
		EnableIPValidation:      cfg.ProxyHeader != "",
		EnableTrustedProxyCheck: len(cfg.TrustedProxies) > 0,
		TrustedProxies:          cfg.TrustedProxies,
	})
}
