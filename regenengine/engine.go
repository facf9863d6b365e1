package regenengine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/janushq/janus/config"
	"github.com/janushq/janus/content/domain"
	coreconfig "github.com/janushq/janus/core/config"
	"github.com/janushq/janus/infrastructure/webhook"
	"github.com/janushq/janus/pkg/dbretry"
	pkgError "github.com/janushq/janus/pkg/error"
	"github.com/janushq/janus/pkg/mediastore"
	"github.com/janushq/janus/pkg/regenworker"
	"github.com/janushq/janus/pkg/timeutils"
)

// TaskUpdateHook is notified on every task state change. Used to broadcast
// task progress over the WebSocket hub.
type TaskUpdateHook func(task TaskRecord)

// Engine runs the regeneration pipeline for fired triggers: analyze the
// engagement numbers, create fresh A/B variants, optionally render media,
// persist and finalize. Tasks run on a bounded worker pool with per-post
// ordering.
type Engine struct {
	repo    domain.ContentRepository
	status  StatusStore
	pool    *regenworker.RegenWorkerPool
	retryer *dbretry.Retryer

	mu        sync.RWMutex
	providers map[string]Provider
	onUpdate  []TaskUpdateHook
}

// NewEngine wires the engine. Providers are registered separately so the
// command layer controls which AI backends exist.
func NewEngine(repo domain.ContentRepository, status StatusStore, pool *regenworker.RegenWorkerPool) *Engine {
	return &Engine{
		repo:      repo,
		status:    status,
		pool:      pool,
		retryer:   dbretry.New(dbretry.DefaultConfig()),
		providers: make(map[string]Provider),
	}
}

// RegisterProvider makes an AI backend available under its Name().
func (e *Engine) RegisterProvider(p Provider) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.providers[strings.ToLower(p.Name())] = p
}

// RegisterTaskHook subscribes to task state changes.
func (e *Engine) RegisterTaskHook(h TaskUpdateHook) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onUpdate = append(e.onUpdate, h)
}

// ActiveProvider resolves the configured AI provider.
func (e *Engine) ActiveProvider() (Provider, error) {
	name := "gemini"
	if coreconfig.Global != nil && coreconfig.Global.AI.Provider != "" {
		name = strings.ToLower(coreconfig.Global.AI.Provider)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if p, ok := e.providers[name]; ok {
		return p, nil
	}
	return nil, pkgError.InternalServerError(fmt.Sprintf("AI provider %q is not registered", name))
}

// ParseTriggerPrompt parses a natural language trigger prompt with the
// active provider.
func (e *Engine) ParseTriggerPrompt(ctx context.Context, condition, prompt string) (ParsedTrigger, error) {
	provider, err := e.ActiveProvider()
	if err != nil {
		return ParsedTrigger{}, err
	}
	return provider.ParseTrigger(ctx, condition, prompt)
}

// GenerateContent runs the active provider's content creation and enforces
// the platform's 280 character limit on every draft.
func (e *Engine) GenerateContent(ctx context.Context, input GenerationInput) ([]VariantDraft, error) {
	provider, err := e.ActiveProvider()
	if err != nil {
		return nil, err
	}
	drafts, err := provider.GenerateVariants(ctx, input)
	if err != nil {
		return nil, err
	}
	for _, draft := range drafts {
		if utf8.RuneCountInString(draft.Content) > domain.MaxContentLength {
			return nil, pkgError.UpstreamError(fmt.Sprintf("variant %s exceeds %d characters", draft.Slot, domain.MaxContentLength))
		}
	}
	return drafts, nil
}

// StatusStore exposes the task store for the REST and MCP surfaces.
func (e *Engine) StatusStore() StatusStore {
	return e.status
}

// PoolStats returns a snapshot of the worker pool counters.
func (e *Engine) PoolStats() regenworker.PoolStats {
	return e.pool.GetStats()
}

// EnqueueRegeneration records a task for a fired trigger and hands it to
// the worker pool. A full queue does not block: the task is recorded as
// failed and the caller sees it in the returned record.
func (e *Engine) EnqueueRegeneration(ctx context.Context, event domain.TriggerEvent) (TaskRecord, error) {
	task := TaskRecord{
		TaskID:     uuid.New().String(),
		PostID:     event.PostID,
		Status:     TaskPending,
		Condition:  event.Config.Condition,
		EnqueuedAt: time.Now().UTC(),
	}
	task = e.saveTask(ctx, task)

	accepted := e.pool.TryDispatch(regenworker.RegenJob{
		TaskID: task.TaskID,
		PostID: event.PostID,
		Handler: func(jobCtx context.Context) error {
			return e.processTask(jobCtx, task.TaskID, event)
		},
	})
	if !accepted {
		now := time.Now().UTC()
		task.Status = TaskFailed
		task.Error = "worker queue full, task dropped"
		task.FinishedAt = &now
		task = e.saveTask(ctx, task)
		logrus.Warnf("[REGEN] dropped task %s for post %s, worker queue full", task.TaskID, event.PostID)
	}
	return task, nil
}

// processTask is the pipeline body executed on a pool worker.
func (e *Engine) processTask(ctx context.Context, taskID string, event domain.TriggerEvent) error {
	task, err := e.status.GetTask(ctx, taskID)
	if err != nil {
		task = TaskRecord{
			TaskID:     taskID,
			PostID:     event.PostID,
			Condition:  event.Config.Condition,
			EnqueuedAt: time.Now().UTC(),
		}
	}

	start := time.Now()
	startedAt := start.UTC()
	task.Status = TaskRunning
	task.Stage = StageLoad
	task.Attempts++
	task.StartedAt = &startedAt
	task = e.saveTask(ctx, task)

	// Stage 1: load.
	post, err := e.repo.GetPost(ctx, event.PostID)
	if err != nil {
		return e.failTask(ctx, task, StageLoad, err)
	}
	if post.Trigger == nil {
		return e.failTask(ctx, task, StageLoad, errors.New("trigger no longer armed, nothing to regenerate"))
	}

	// A post under regeneration must have metrics on file; a missing record
	// is as fatal as a missing post.
	metrics, err := e.repo.GetMetrics(ctx, event.PostID)
	if err != nil {
		logrus.Errorf("[REGEN] no metric record for post %s, failing task %s: %v", event.PostID, task.TaskID, err)
		return e.failTask(ctx, task, StageLoad, err)
	}

	provider, err := e.ActiveProvider()
	if err != nil {
		return e.failTask(ctx, task, StageLoad, err)
	}

	// Stage 2: analyze. On failure the trigger stays armed.
	task.Stage = StageAnalyze
	task = e.saveTask(ctx, task)

	report, err := provider.AnalyzeMetrics(ctx, AnalysisInput{Post: *post, Metrics: *metrics, Event: event})
	if err != nil {
		logrus.Errorf("[REGEN] metrics analysis failed for post %s: %v", post.ID, err)
		return e.failTask(ctx, task, StageAnalyze, err)
	}

	// Stage 3: regenerate content.
	task.Stage = StageGenerate
	task = e.saveTask(ctx, task)

	drafts, err := e.GenerateContent(ctx, GenerationInput{
		Post:         *post,
		ActionPrompt: post.Trigger.ActionPrompt,
		Analysis:     report.Report,
		SystemPrompt: config.ContentSystemPrompt,
	})
	if err != nil {
		return e.failTask(ctx, task, StageGenerate, err)
	}

	// Stage 4: media, best effort per variant.
	mediaPaths := make([]string, len(drafts))
	mediaMIMEs := make([]string, len(drafts))
	if config.ContentMediaEnabled {
		task.Stage = StageMedia
		task = e.saveTask(ctx, task)

		for i, draft := range drafts {
			asset, mediaErr := provider.GenerateMedia(ctx, buildMediaPrompt(post.Topic, post.Trigger.ActionPrompt, draft))
			if errors.Is(mediaErr, ErrMediaUnsupported) {
				logrus.Debugf("[REGEN] provider %s has no media support, skipping media for post %s", provider.Name(), post.ID)
				break
			}
			if mediaErr != nil {
				logrus.Warnf("[REGEN] media generation failed for post %s variant %s: %v", post.ID, draft.Slot, mediaErr)
				continue
			}

			path, saveErr := mediastore.SaveGeneratedImage(post.ID, asset.Data, asset.MIMEType)
			if saveErr != nil {
				logrus.Warnf("[REGEN] failed to store media for post %s variant %s: %v", post.ID, draft.Slot, saveErr)
				continue
			}
			mediaPaths[i] = path
			mediaMIMEs[i] = asset.MIMEType
		}
	}

	// Stage 5: persist A then B, each write under retry-on-lock.
	task.Stage = StagePersist
	task = e.saveTask(ctx, task)

	for i, draft := range drafts {
		variant := &domain.ContentVariant{
			ID:        uuid.New().String(),
			PostID:    post.ID,
			Slot:      draft.Slot,
			Content:   draft.Content,
			Hook:      draft.Hook,
			Reasoning: draft.Reasoning,
			Hashtags:  draft.Hashtags,
			MediaPath: mediaPaths[i],
			MediaMIME: mediaMIMEs[i],
			IsCurrent: true,
		}
		if err := e.retryer.Do(ctx, func() error {
			return e.repo.InsertVariant(ctx, variant)
		}); err != nil {
			return e.failTask(ctx, task, StagePersist, err)
		}
	}

	// Stage 6: finalize. Failing here leaves the new variants attached to a
	// still-armed trigger; that window is surfaced, not repaired.
	task.Stage = StageFinalize
	task = e.saveTask(ctx, task)

	if err := e.retryer.Do(ctx, func() error {
		return e.repo.FinalizeRegeneration(ctx, post.ID)
	}); err != nil {
		logrus.Errorf("[REGEN] finalize failed after persist; trigger remains armed: post %s: %v", post.ID, err)
		return e.failTask(ctx, task, StageFinalize, err)
	}

	now := time.Now().UTC()
	task.Status = TaskSucceeded
	task.Stage = ""
	task.Error = ""
	task.FinishedAt = &now
	task = e.saveTask(ctx, task)

	logrus.Infof("[REGEN] regenerated content for post %s (task %s) in %s",
		post.ID, task.TaskID, timeutils.FormatDuration(time.Since(start)))

	// Webhook fan-out must not hold a pool worker hostage to a slow endpoint.
	payload := map[string]any{
		"task_id":   task.TaskID,
		"post_id":   post.ID,
		"condition": event.Config.Condition,
		"trigger":   event.Config.String(),
	}
	go func() {
		_ = webhook.ForwardEvent(context.Background(), webhook.EventRegenSucceeded, payload)
	}()
	return nil
}

func (e *Engine) failTask(ctx context.Context, task TaskRecord, stage string, cause error) error {
	now := time.Now().UTC()
	task.Status = TaskFailed
	task.Stage = stage
	task.Error = cause.Error()
	task.FinishedAt = &now
	e.saveTask(ctx, task)

	payload := map[string]any{
		"task_id": task.TaskID,
		"post_id": task.PostID,
		"stage":   stage,
		"error":   cause.Error(),
	}
	go func() {
		_ = webhook.ForwardEvent(context.Background(), webhook.EventRegenFailed, payload)
	}()
	return cause
}

// saveTask persists the record and notifies hooks. Store failures are
// logged, the pipeline keeps going.
func (e *Engine) saveTask(ctx context.Context, task TaskRecord) TaskRecord {
	if err := e.status.SaveTask(ctx, task); err != nil {
		logrus.Warnf("[REGEN] failed to save task %s state: %v", task.TaskID, err)
	}

	e.mu.RLock()
	hooks := make([]TaskUpdateHook, len(e.onUpdate))
	copy(hooks, e.onUpdate)
	e.mu.RUnlock()

	for _, h := range hooks {
		h(task)
	}
	return task
}

func buildMediaPrompt(topic, actionPrompt string, draft VariantDraft) string {
	var sb strings.Builder
	sb.WriteString("Create a single social media image for this post. No text overlays.\n")
	fmt.Fprintf(&sb, "Topic: %s\n", topic)
	fmt.Fprintf(&sb, "Post text: %s\n", draft.Content)
	if strings.TrimSpace(actionPrompt) != "" {
		fmt.Fprintf(&sb, "Style instruction: %s\n", actionPrompt)
	}
	return sb.String()
}
