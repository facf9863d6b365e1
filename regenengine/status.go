package regenengine

import (
	"context"
	"time"
)

// TaskStatus is the lifecycle state of a regeneration task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskSucceeded TaskStatus = "succeeded"
	TaskFailed    TaskStatus = "failed"
)

// Pipeline stages recorded on the task while it advances.
const (
	StageLoad     = "load"
	StageAnalyze  = "analyze"
	StageGenerate = "generate"
	StageMedia    = "media"
	StagePersist  = "persist"
	StageFinalize = "finalize"
)

// TaskRecord tracks one regeneration task from dispatch to completion.
type TaskRecord struct {
	TaskID     string     `json:"task_id"`
	PostID     string     `json:"post_id"`
	Status     TaskStatus `json:"status"`
	Stage      string     `json:"stage,omitempty"`
	Error      string     `json:"error,omitempty"`
	Condition  string     `json:"condition,omitempty"`
	Attempts   int        `json:"attempts"`
	EnqueuedAt time.Time  `json:"enqueued_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Finished reports whether the task reached a terminal state.
func (t TaskRecord) Finished() bool {
	return t.Status == TaskSucceeded || t.Status == TaskFailed
}

// StatusStore is where task records live. The in-memory implementation
// covers single-node deployments, the Valkey one gives cross-instance
// visibility.
type StatusStore interface {
	SaveTask(ctx context.Context, task TaskRecord) error
	GetTask(ctx context.Context, taskID string) (TaskRecord, error)
	ListTasks(ctx context.Context, limit int) ([]TaskRecord, error)
	ListTasksByPost(ctx context.Context, postID string) ([]TaskRecord, error)
}
