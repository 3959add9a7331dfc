package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/edutrack/edutrack-api/internal/config"
	"github.com/edutrack/edutrack-api/internal/utils"
)

var startedAt = time.Now().UTC()

// HealthResponse is the payload returned by the health endpoint.
type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Uptime      string    `json:"uptime"`
	Service     string    `json:"service"`
	Environment string    `json:"environment"`
}

// HealthCheck reports liveness. Database and cache reachability are left to
// the orchestrator's own probes.
func HealthCheck(cfg config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		now := time.Now().UTC()
		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   now,
			Uptime:      now.Sub(startedAt).Round(time.Second).String(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}
