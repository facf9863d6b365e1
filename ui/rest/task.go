package rest

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	domainTask "github.com/janushq/janus/domains/task"
	"github.com/janushq/janus/pkg/utils"
)

type Task struct {
	Service domainTask.ITaskUsecase
}

func InitRestTask(app fiber.Router, service domainTask.ITaskUsecase) Task {
	rest := Task{Service: service}
	app.Get("/regeneration/tasks", rest.ListTasks)
	app.Get("/regeneration/tasks/:id", rest.GetTask)
	return rest
}

// ListTasks returns recent regeneration tasks, newest first. Accepts
// ?limit=N and ?post_id=<id> to narrow to one post's history.
func (controller *Task) ListTasks(c *fiber.Ctx) error {
	if postID := strings.TrimSpace(c.Query("post_id")); postID != "" {
		tasks, err := controller.Service.ListByPost(c.UserContext(), postID)
		utils.PanicIfNeeded(err)

		return c.JSON(utils.ResponseData{
			Status:  200,
			Code:    "SUCCESS",
			Message: "Regeneration tasks fetched",
			Results: tasks,
		})
	}

	tasks, err := controller.Service.List(c.UserContext(), c.QueryInt("limit"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Regeneration tasks fetched",
		Results: tasks,
	})
}

func (controller *Task) GetTask(c *fiber.Ctx) error {
	task, err := controller.Service.GetByID(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Regeneration task fetched",
		Results: task,
	})
}
