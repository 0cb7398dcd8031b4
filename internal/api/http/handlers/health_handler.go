package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/herobudget/notification-service/internal/api/dto"
	"github.com/herobudget/notification-service/internal/persistence"
)

// MailStatus reports whether the mail pipeline can deliver at all.
type MailStatus interface {
	Configured() bool
}

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	redis       *persistence.Redis
	mail        MailStatus
}

// NewHealthHandler returns a new handler instance. redis may be nil.
func NewHealthHandler(serviceName, version string, redis *persistence.Redis, mail MailStatus) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, redis: redis, mail: mail}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(dto.HealthResponse{
		Status:  "alive",
		Service: h.serviceName,
		Version: h.version,
	})
}

// Ready reports service readiness by checking dependencies.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	deps := map[string]string{}
	ready := true

	if h.mail != nil && h.mail.Configured() {
		deps["mail"] = "ok"
	} else {
		deps["mail"] = "not configured"
		ready = false
	}

	if h.redis.Enabled() {
		if err := h.redis.Ping(ctx); err != nil {
			deps["redis"] = err.Error()
			ready = false
		} else {
			deps["redis"] = "ok"
		}
	} else {
		deps["redis"] = "disabled"
	}

	if ready {
		return c.JSON(dto.HealthResponse{Status: "ready", Dependencies: deps})
	}
	return c.Status(fiber.StatusServiceUnavailable).JSON(dto.HealthResponse{Status: "unavailable", Dependencies: deps})
}
