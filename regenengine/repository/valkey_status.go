package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/janushq/janus/infrastructure/valkey"
	pkgError "github.com/janushq/janus/pkg/error"
	"github.com/janushq/janus/regenengine"
)

// ValkeyStatusStore implements regenengine.StatusStore on a Valkey hash so
// every instance sees the same task state.
type ValkeyStatusStore struct {
	client *valkey.Client
	prefix string
}

func NewValkeyStatusStore(client *valkey.Client) *ValkeyStatusStore {
	return &ValkeyStatusStore{
		client: client,
		prefix: client.Key("regen") + ":",
	}
}

func (s *ValkeyStatusStore) tasksKey() string {
	return s.prefix + "tasks"
}

func (s *ValkeyStatusStore) SaveTask(ctx context.Context, task regenengine.TaskRecord) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}

	cmd := s.client.Inner().B().Hset().
		Key(s.tasksKey()).
		FieldValue().
		FieldValue(task.TaskID, string(data)).
		Build()

	return s.client.Inner().Do(ctx, cmd).Error()
}

func (s *ValkeyStatusStore) GetTask(ctx context.Context, taskID string) (regenengine.TaskRecord, error) {
	cmd := s.client.Inner().B().Hget().Key(s.tasksKey()).Field(taskID).Build()
	raw, err := s.client.Inner().Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsNil(err) {
			return regenengine.TaskRecord{}, pkgError.NotFoundError("regeneration task not found")
		}
		return regenengine.TaskRecord{}, err
	}

	var task regenengine.TaskRecord
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		return regenengine.TaskRecord{}, err
	}
	return task, nil
}

func (s *ValkeyStatusStore) ListTasks(ctx context.Context, limit int) ([]regenengine.TaskRecord, error) {
	tasks, err := s.readAll(ctx, "")
	if err != nil {
		return nil, err
	}

	sortTasksNewestFirst(tasks)
	if limit > 0 && len(tasks) > limit {
		tasks = tasks[:limit]
	}
	return tasks, nil
}

func (s *ValkeyStatusStore) ListTasksByPost(ctx context.Context, postID string) ([]regenengine.TaskRecord, error) {
	tasks, err := s.readAll(ctx, postID)
	if err != nil {
		return nil, err
	}
	sortTasksNewestFirst(tasks)
	return tasks, nil
}

// readAll fetches the whole hash, filtering by post when requested.
// Terminal tasks past retention are removed on the way.
func (s *ValkeyStatusStore) readAll(ctx context.Context, postID string) ([]regenengine.TaskRecord, error) {
	cmd := s.client.Inner().B().Hgetall().Key(s.tasksKey()).Build()
	entries, err := s.client.Inner().Do(ctx, cmd).AsStrMap()
	if err != nil {
		return nil, err
	}

	var (
		tasks   []regenengine.TaskRecord
		expired []string
	)
	now := time.Now()

	for field, raw := range entries {
		var task regenengine.TaskRecord
		if err := json.Unmarshal([]byte(raw), &task); err != nil {
			logrus.Warnf("[REGEN] dropping unreadable task record %s: %v", field, err)
			expired = append(expired, field)
			continue
		}
		if task.Finished() && task.FinishedAt != nil && now.Sub(*task.FinishedAt) > finishedRetention {
			expired = append(expired, field)
			continue
		}
		if postID != "" && task.PostID != postID {
			continue
		}
		tasks = append(tasks, task)
	}

	if len(expired) > 0 {
		del := s.client.Inner().B().Hdel().Key(s.tasksKey()).Field(expired...).Build()
		if err := s.client.Inner().Do(ctx, del).Error(); err != nil {
			logrus.Warnf("[REGEN] failed to prune %d expired task records: %v", len(expired), err)
		}
	}

	return tasks, nil
}
