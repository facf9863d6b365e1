package rest

import (
	"github.com/gofiber/fiber/v2"

	"github.com/janushq/janus/domains/health"
	"github.com/janushq/janus/pkg/utils"
)

type Health struct {
	Service health.IHealthUsecase
}

// InitRestHealth registers the liveness endpoints. They live outside the
// /api group so load balancers can probe them without credentials.
func InitRestHealth(app fiber.Router, service health.IHealthUsecase) Health {
	handler := Health{Service: service}
	app.Get("/health", handler.GetHealth)
	app.Get("/health/details", handler.GetHealthDetails)
	return handler
}

func (h *Health) GetHealth(c *fiber.Ctx) error {
	if !h.Service.Healthy(c.UserContext()) {
		return c.Status(503).JSON(utils.ResponseData{
			Status:  503,
			Code:    "SERVICE_UNAVAILABLE",
			Message: "Database is unreachable",
		})
	}

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "ok",
	})
}

func (h *Health) GetHealthDetails(c *fiber.Ctx) error {
	details := h.Service.Details(c.UserContext())

	status := 200
	for _, component := range details {
		if component.Status == health.StatusError {
			status = 503
			break
		}
	}

	return c.Status(status).JSON(utils.ResponseData{
		Status:  status,
		Code:    "SUCCESS",
		Message: "Component health",
		Results: details,
	})
}
