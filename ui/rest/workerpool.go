package rest

import (
	"github.com/gofiber/fiber/v2"

	"github.com/janushq/janus/pkg/regenworker"
)

// GetWorkerPoolStats returns real-time regeneration worker pool statistics
func GetWorkerPoolStats(c *fiber.Ctx) error {
	stats := regenworker.GetGlobalStats()
	return c.JSON(stats)
}
