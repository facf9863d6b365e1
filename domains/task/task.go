package task

import (
	"context"

	"github.com/janushq/janus/pkg/regenworker"
	"github.com/janushq/janus/regenengine"
)

type ITaskUsecase interface {
	List(ctx context.Context, limit int) ([]regenengine.TaskRecord, error)
	GetByID(ctx context.Context, taskID string) (regenengine.TaskRecord, error)
	ListByPost(ctx context.Context, postID string) ([]regenengine.TaskRecord, error)
	PoolStats() regenworker.PoolStats
}
