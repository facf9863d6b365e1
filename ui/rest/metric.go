package rest

import (
	"github.com/gofiber/fiber/v2"

	domainMetric "github.com/janushq/janus/domains/metric"
	"github.com/janushq/janus/pkg/utils"
)

type Metric struct {
	Service domainMetric.IMetricUsecase
}

func InitRestMetric(app fiber.Router, service domainMetric.IMetricUsecase) Metric {
	rest := Metric{Service: service}
	app.Get("/posts/:id/metrics", rest.GetMetrics)
	app.Put("/posts/:id/metrics", rest.UpsertMetrics)
	app.Post("/posts/:id/metrics/increment", rest.IncrementMetric)
	app.Post("/posts/:id/metrics/refresh", rest.RefreshMetrics)
	app.Post("/posts/:id/comments", rest.AddComment)
	return rest
}

func (controller *Metric) GetMetrics(c *fiber.Ctx) error {
	record, err := controller.Service.Get(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Metrics fetched",
		Results: record,
	})
}

// UpsertMetrics ingests a full snapshot for both variants, typically pushed
// by the platform collector.
func (controller *Metric) UpsertMetrics(c *fiber.Ctx) error {
	var request domainMetric.SnapshotRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	record, err := controller.Service.Upsert(c.UserContext(), c.Params("id"), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Metrics stored",
		Results: record,
	})
}

func (controller *Metric) IncrementMetric(c *fiber.Ctx) error {
	var request domainMetric.IncrementRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	err = controller.Service.Increment(c.UserContext(), c.Params("id"), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Metric incremented",
	})
}

// RefreshMetrics pulls live counters from the platform API for both variant
// external IDs and stores the snapshot.
func (controller *Metric) RefreshMetrics(c *fiber.Ctx) error {
	record, err := controller.Service.RefreshFromPlatform(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Metrics refreshed from platform",
		Results: record,
	})
}

func (controller *Metric) AddComment(c *fiber.Ctx) error {
	var request domainMetric.CommentRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	err = controller.Service.AddComment(c.UserContext(), c.Params("id"), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Comment recorded",
	})
}
