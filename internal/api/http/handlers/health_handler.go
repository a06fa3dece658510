package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/akash-d122/agentic-helpdesk-sub002/internal/persistence"
)

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	startedAt   time.Time
	postgres    *persistence.Postgres
	redis       *persistence.Redis
}

// NewHealthHandler returns a new handler instance.
func NewHealthHandler(serviceName, version string, postgres *persistence.Postgres, redis *persistence.Redis) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		startedAt:   time.Now(),
		postgres:    postgres,
		redis:       redis,
	}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":         "alive",
		"service":        h.serviceName,
		"version":        h.version,
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
	})
}

// Ready reports readiness by probing Postgres (ticket and suggestion storage)
// and Redis (classification job transport), with per-dependency latency.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{
		"postgres": h.probe(ctx, h.postgres.Ping),
		"redis":    h.probe(ctx, h.redis.Ping),
	}
	ready := true
	for _, status := range depStatus {
		if status.(fiber.Map)["status"] != "ok" {
			ready = false
		}
	}

	if ready {
		return c.JSON(fiber.Map{
			"status":       "ready",
			"dependencies": depStatus,
		})
	}

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "DEPENDENCY_UNAVAILABLE",
			"message": "one or more dependencies unavailable",
			"details": depStatus,
		},
	})
}

func (h *HealthHandler) probe(ctx context.Context, ping func(context.Context) error) fiber.Map {
	started := time.Now()
	if err := ping(ctx); err != nil {
		return fiber.Map{
			"status":     "unavailable",
			"error":      err.Error(),
			"latency_ms": time.Since(started).Milliseconds(),
		}
	}
	return fiber.Map{
		"status":     "ok",
		"latency_ms": time.Since(started).Milliseconds(),
	}
}
