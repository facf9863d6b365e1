package rest

import (
	"github.com/gofiber/fiber/v2"

	"github.com/janushq/janus/infrastructure/monitoring"
)

type MonitoringHandler struct {
	store monitoring.Store
}

// InitRestMonitoring registers the cluster visibility endpoints.
func InitRestMonitoring(app fiber.Router, store monitoring.Store) {
	h := &MonitoringHandler{store: store}

	g := app.Group("/monitoring")
	g.Get("/servers", h.GetServers)
	g.Get("/cluster-activity", h.GetClusterActivity)
	g.Get("/stats", h.GetGlobalStats)
}

func (h *MonitoringHandler) GetServers(c *fiber.Ctx) error {
	servers, err := h.store.GetActiveServers(c.UserContext())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(servers)
}

func (h *MonitoringHandler) GetClusterActivity(c *fiber.Ctx) error {
	activity, err := h.store.GetClusterActivity(c.UserContext())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(activity)
}

func (h *MonitoringHandler) GetGlobalStats(c *fiber.Ctx) error {
	stats, err := h.store.GetGlobalStats(c.UserContext())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(stats)
}
