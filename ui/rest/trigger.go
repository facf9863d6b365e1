package rest

import (
	"github.com/gofiber/fiber/v2"

	domainTrigger "github.com/janushq/janus/domains/trigger"
	"github.com/janushq/janus/pkg/utils"
)

type Trigger struct {
	Service domainTrigger.ITriggerUsecase
}

func InitRestTrigger(app fiber.Router, service domainTrigger.ITriggerUsecase) Trigger {
	rest := Trigger{Service: service}
	app.Post("/posts/:id/trigger", rest.SetTrigger)
	app.Delete("/posts/:id/trigger", rest.ClearTrigger)
	app.Get("/triggers/check", rest.CheckTriggers)
	return rest
}

func (controller *Trigger) SetTrigger(c *fiber.Ctx) error {
	var request domainTrigger.SetTriggerRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	cfg, err := controller.Service.SetTrigger(c.UserContext(), c.Params("id"), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Trigger armed",
		Results: cfg,
	})
}

func (controller *Trigger) ClearTrigger(c *fiber.Ctx) error {
	err := controller.Service.ClearTrigger(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Trigger cleared",
	})
}

// CheckTriggers evaluates every armed trigger right now. Fired triggers are
// dispatched to the regeneration pool and reported immediately; the response
// never waits for a pipeline to finish.
func (controller *Trigger) CheckTriggers(c *fiber.Ctx) error {
	fired, err := controller.Service.CheckTriggers(c.UserContext())
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Trigger evaluation completed",
		Results: TriggerCheckResult{
			Fired: fired,
			Count: len(fired),
		},
	})
}
