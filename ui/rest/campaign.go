package rest

import (
	"github.com/gofiber/fiber/v2"

	"github.com/janushq/janus/content/domain"
	domainCampaign "github.com/janushq/janus/domains/campaign"
	"github.com/janushq/janus/pkg/utils"
)

type Campaign struct {
	Service domainCampaign.ICampaignUsecase
}

func InitRestCampaign(app fiber.Router, service domainCampaign.ICampaignUsecase) Campaign {
	rest := Campaign{Service: service}
	app.Post("/campaigns", rest.CreateCampaign)
	app.Get("/campaigns", rest.ListCampaigns)
	app.Get("/campaigns/:id", rest.GetCampaign)
	app.Patch("/campaigns/:id/phase", rest.UpdatePhase)
	app.Post("/campaigns/:id/strategy", rest.RegenerateStrategy)
	app.Delete("/campaigns/:id", rest.DeleteCampaign)
	return rest
}

func (controller *Campaign) CreateCampaign(c *fiber.Ctx) error {
	var request domainCampaign.CreateCampaignRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	campaign, err := controller.Service.Create(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Campaign created",
		Results: campaign,
	})
}

func (controller *Campaign) ListCampaigns(c *fiber.Ctx) error {
	campaigns, err := controller.Service.List(c.UserContext())
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Campaigns fetched",
		Results: campaigns,
	})
}

func (controller *Campaign) GetCampaign(c *fiber.Ctx) error {
	campaign, err := controller.Service.GetByID(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Campaign fetched",
		Results: campaign,
	})
}

func (controller *Campaign) UpdatePhase(c *fiber.Ctx) error {
	var request domainCampaign.UpdatePhaseRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	campaign, err := controller.Service.UpdatePhase(c.UserContext(), c.Params("id"), domain.CampaignPhase(request.Phase))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Campaign phase updated",
		Results: campaign,
	})
}

// RegenerateStrategy replans the campaign strategy brief synchronously. The
// planner call can take a few seconds.
func (controller *Campaign) RegenerateStrategy(c *fiber.Ctx) error {
	var request domainCampaign.RegenerateStrategyRequest
	_ = c.BodyParser(&request)

	campaign, err := controller.Service.RegenerateStrategy(c.UserContext(), c.Params("id"), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Campaign strategy regenerated",
		Results: campaign,
	})
}

func (controller *Campaign) DeleteCampaign(c *fiber.Ctx) error {
	err := controller.Service.Delete(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Campaign deleted",
	})
}
