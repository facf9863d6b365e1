package usecase

import (
	"context"

	domainTask "github.com/janushq/janus/domains/task"
	"github.com/janushq/janus/pkg/regenworker"
	"github.com/janushq/janus/regenengine"
)

type serviceTask struct {
	engine *regenengine.Engine
}

func NewTaskService(engine *regenengine.Engine) domainTask.ITaskUsecase {
	return &serviceTask{engine: engine}
}

func (service *serviceTask) List(ctx context.Context, limit int) ([]regenengine.TaskRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return service.engine.StatusStore().ListTasks(ctx, limit)
}

func (service *serviceTask) GetByID(ctx context.Context, taskID string) (regenengine.TaskRecord, error) {
	return service.engine.StatusStore().GetTask(ctx, taskID)
}

func (service *serviceTask) ListByPost(ctx context.Context, postID string) ([]regenengine.TaskRecord, error) {
	return service.engine.StatusStore().ListTasksByPost(ctx, postID)
}

func (service *serviceTask) PoolStats() regenworker.PoolStats {
	return service.engine.PoolStats()
}
