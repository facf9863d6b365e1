package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/janushq/janus/regenengine"

	pkgError "github.com/janushq/janus/pkg/error"
)

const (
	// finishedRetention is how long terminal tasks stay visible.
	finishedRetention = 24 * time.Hour
	maxTrackedTasks   = 1000
)

// MemoryStatusStore keeps task records in process memory. Suitable for
// single-node deployments and tests.
type MemoryStatusStore struct {
	mu    sync.RWMutex
	tasks map[string]regenengine.TaskRecord
}

func NewMemoryStatusStore() *MemoryStatusStore {
	return &MemoryStatusStore{
		tasks: make(map[string]regenengine.TaskRecord),
	}
}

func (s *MemoryStatusStore) SaveTask(ctx context.Context, task regenengine.TaskRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks[task.TaskID] = task
	s.pruneLocked()
	return nil
}

func (s *MemoryStatusStore) GetTask(ctx context.Context, taskID string) (regenengine.TaskRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return regenengine.TaskRecord{}, pkgError.NotFoundError("regeneration task not found")
	}
	return task, nil
}

func (s *MemoryStatusStore) ListTasks(ctx context.Context, limit int) ([]regenengine.TaskRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]regenengine.TaskRecord, 0, len(s.tasks))
	for _, task := range s.tasks {
		result = append(result, task)
	}
	sortTasksNewestFirst(result)

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *MemoryStatusStore) ListTasksByPost(ctx context.Context, postID string) ([]regenengine.TaskRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []regenengine.TaskRecord
	for _, task := range s.tasks {
		if task.PostID == postID {
			result = append(result, task)
		}
	}
	sortTasksNewestFirst(result)
	return result, nil
}

// pruneLocked drops finished tasks past retention, then oldest finished
// tasks while over capacity. Running tasks are never evicted.
func (s *MemoryStatusStore) pruneLocked() {
	now := time.Now()
	for id, task := range s.tasks {
		if task.Finished() && task.FinishedAt != nil && now.Sub(*task.FinishedAt) > finishedRetention {
			delete(s.tasks, id)
		}
	}

	for len(s.tasks) > maxTrackedTasks {
		oldestID := ""
		var oldestAt time.Time
		for id, task := range s.tasks {
			if !task.Finished() {
				continue
			}
			if oldestID == "" || task.EnqueuedAt.Before(oldestAt) {
				oldestID = id
				oldestAt = task.EnqueuedAt
			}
		}
		if oldestID == "" {
			return
		}
		delete(s.tasks, oldestID)
	}
}

func sortTasksNewestFirst(tasks []regenengine.TaskRecord) {
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].EnqueuedAt.After(tasks[j].EnqueuedAt)
	})
}
