package rest

import (
	"github.com/gofiber/fiber/v2"

	domainPost "github.com/janushq/janus/domains/post"
	"github.com/janushq/janus/pkg/utils"
)

type Post struct {
	Service domainPost.IPostUsecase
}

func InitRestPost(app fiber.Router, service domainPost.IPostUsecase) Post {
	rest := Post{Service: service}
	app.Post("/campaigns/:id/posts", rest.CreatePost)
	app.Get("/campaigns/:id/posts", rest.ListPosts)
	app.Get("/posts/:id", rest.GetPost)
	app.Post("/posts/:id/publish", rest.PublishPost)
	app.Delete("/posts/:id", rest.DeletePost)
	return rest
}

// CreatePost drafts a post under a campaign. Unless skip_generation is set
// the active AI provider writes the initial A/B variants synchronously, so
// this call can take a few seconds.
func (controller *Post) CreatePost(c *fiber.Ctx) error {
	var request domainPost.CreatePostRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	post, err := controller.Service.Create(c.UserContext(), c.Params("id"), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Post created",
		Results: post,
	})
}

func (controller *Post) ListPosts(c *fiber.Ctx) error {
	posts, err := controller.Service.ListByCampaign(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Posts fetched",
		Results: posts,
	})
}

func (controller *Post) GetPost(c *fiber.Ctx) error {
	post, err := controller.Service.GetByID(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Post fetched",
		Results: post,
	})
}

// PublishPost records the external collaborator's publish result: the two
// platform IDs and the live timestamp. It never talks to the platform.
func (controller *Post) PublishPost(c *fiber.Ctx) error {
	var request domainPost.PublishRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	post, err := controller.Service.Publish(c.UserContext(), c.Params("id"), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Post marked as published",
		Results: post,
	})
}

func (controller *Post) DeletePost(c *fiber.Ctx) error {
	err := controller.Service.Delete(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Post deleted",
	})
}
