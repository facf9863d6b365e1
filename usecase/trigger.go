package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/janushq/janus/content/domain"
	coreconfig "github.com/janushq/janus/core/config"
	domainTrigger "github.com/janushq/janus/domains/trigger"
	"github.com/janushq/janus/infrastructure/webhook"
	pkgError "github.com/janushq/janus/pkg/error"
	"github.com/janushq/janus/regenengine"
	"github.com/janushq/janus/validations"
)

type serviceTrigger struct {
	repo   domain.ContentRepository
	engine *regenengine.Engine
}

func NewTriggerService(repo domain.ContentRepository, engine *regenengine.Engine) domainTrigger.ITriggerUsecase {
	return &serviceTrigger{repo: repo, engine: engine}
}

// EvaluatePost compares one post's trigger against its metric snapshot. Pure:
// no I/O, no mutation, same inputs always yield the same event. The trigger
// fires when either variant's counter matches the comparison; the event
// records which sides matched and both raw values.
func EvaluatePost(post domain.Post, metrics domain.MetricRecord) (domain.TriggerEvent, bool) {
	if !post.EligibleForTriggerCheck() {
		return domain.TriggerEvent{}, false
	}

	cfg := *post.Trigger
	valueA, okA := metrics.Value(domain.VariantA, cfg.Condition)
	valueB, okB := metrics.Value(domain.VariantB, cfg.Condition)
	if !okA || !okB {
		return domain.TriggerEvent{}, false
	}

	event := domain.TriggerEvent{
		PostID: post.ID,
		Config: cfg,
		ValueA: valueA,
		ValueB: valueB,
	}
	if cfg.Matches(valueA) {
		event.TriggeredVariants = append(event.TriggeredVariants, domain.VariantA)
	}
	if cfg.Matches(valueB) {
		event.TriggeredVariants = append(event.TriggeredVariants, domain.VariantB)
	}
	if len(event.TriggeredVariants) == 0 {
		return domain.TriggerEvent{}, false
	}

	if post.PostedAt != nil {
		event.Elapsed = time.Since(*post.PostedAt)
	}
	return event, true
}

// SetTrigger arms a trigger on a post, parsing the natural language prompt
// with the active provider when one is given. An existing trigger is
// overwritten.
func (service *serviceTrigger) SetTrigger(ctx context.Context, postID string, req domainTrigger.SetTriggerRequest) (domain.TriggerConfig, error) {
	if err := validations.ValidateSetTrigger(ctx, req); err != nil {
		return domain.TriggerConfig{}, err
	}

	if _, err := service.repo.GetPost(ctx, postID); err != nil {
		return domain.TriggerConfig{}, err
	}

	var cfg domain.TriggerConfig
	if strings.TrimSpace(req.Prompt) != "" {
		parsed, err := service.engine.ParseTriggerPrompt(ctx, req.Condition, req.Prompt)
		if err != nil {
			return domain.TriggerConfig{}, err
		}

		comparison, ok := domain.NormalizeComparison(parsed.Comparison)
		if !ok {
			return domain.TriggerConfig{}, pkgError.ValidationError(
				fmt.Sprintf("comparison: parser returned %q, expected one of <, =, >.", parsed.Comparison))
		}
		if parsed.Duration != 0 {
			logrus.Debugf("[TRIGGER] parser extracted duration %d for post %s, elapsed time is informational only", parsed.Duration, postID)
		}

		cfg = domain.TriggerConfig{
			Condition:    req.Condition,
			Comparison:   comparison,
			Threshold:    parsed.Value,
			ActionPrompt: strings.TrimSpace(parsed.Prompt),
		}
		if !cfg.Complete() {
			return domain.TriggerConfig{}, pkgError.ValidationError(
				"prompt: the parser could not extract a complete trigger, rephrase with a threshold, a comparison and an instruction.")
		}
	} else {
		comparison, ok := domain.NormalizeComparison(req.Comparison)
		if !ok {
			return domain.TriggerConfig{}, pkgError.ValidationError("comparison: must be one of <, =, >.")
		}
		cfg = domain.TriggerConfig{
			Condition:    req.Condition,
			Comparison:   comparison,
			Threshold:    *req.Threshold,
			ActionPrompt: strings.TrimSpace(req.ActionPrompt),
		}
	}

	if err := service.repo.SetTrigger(ctx, postID, cfg); err != nil {
		return domain.TriggerConfig{}, err
	}

	logrus.Infof("[TRIGGER] armed on post %s: %s", postID, cfg.String())
	return cfg, nil
}

func (service *serviceTrigger) ClearTrigger(ctx context.Context, postID string) error {
	if err := service.repo.ClearTrigger(ctx, postID); err != nil {
		return err
	}
	logrus.Infof("[TRIGGER] cleared on post %s", postID)
	return nil
}

// CheckTriggers is the evaluation pass behind GET /api/triggers/check and the
// optional sweep. It reads candidates, evaluates each against its metrics,
// dispatches one regeneration task per fired trigger and returns immediately.
// Posts without a metric record are skipped without error.
func (service *serviceTrigger) CheckTriggers(ctx context.Context) ([]domainTrigger.FiredTrigger, error) {
	candidates, err := service.repo.ListTriggerCandidates(ctx)
	if err != nil {
		return nil, err
	}

	fired := make([]domainTrigger.FiredTrigger, 0)
	for _, post := range candidates {
		metrics, err := service.repo.GetMetrics(ctx, post.ID)
		if err != nil {
			var notFound pkgError.NotFoundError
			if errors.As(err, &notFound) {
				continue
			}
			return nil, err
		}

		event, ok := EvaluatePost(post, *metrics)
		if !ok {
			continue
		}

		task, err := service.engine.EnqueueRegeneration(ctx, event)
		if err != nil {
			logrus.WithError(err).Errorf("[TRIGGER] could not enqueue regeneration for post %s", post.ID)
			continue
		}

		fired = append(fired, domainTrigger.FiredTrigger{
			PostID:            event.PostID,
			Condition:         event.Config.Condition,
			Comparison:        event.Config.Comparison,
			Threshold:         event.Config.Threshold,
			TriggeredVariants: event.TriggeredVariants,
			ValueA:            event.ValueA,
			ValueB:            event.ValueB,
			TaskID:            task.TaskID,
		})

		logrus.Infof("[TRIGGER] fired on post %s (%s, A=%d B=%d), regeneration task %s",
			event.PostID, event.Config.String(), event.ValueA, event.ValueB, task.TaskID)

		// Forwarded off the request path; a slow endpoint must not stall the
		// evaluation pass.
		payload := map[string]any{
			"post_id":            event.PostID,
			"condition":          event.Config.Condition,
			"comparison":         event.Config.Comparison,
			"threshold":          event.Config.Threshold,
			"triggered_variants": event.TriggeredVariants,
			"value_a":            event.ValueA,
			"value_b":            event.ValueB,
			"task_id":            task.TaskID,
		}
		go func() {
			_ = webhook.ForwardEvent(context.Background(), webhook.EventTriggerFired, payload)
		}()
	}

	if len(fired) > 0 {
		logrus.Infof("[TRIGGER] evaluation pass fired %d of %d candidates", len(fired), len(candidates))
	} else {
		logrus.Debugf("[TRIGGER] evaluation pass, no fires among %d candidates", len(candidates))
	}
	return fired, nil
}

// StartPeriodicSweep runs CheckTriggers on a ticker. External cron hitting
// the check endpoint is the expected driver; the sweep covers deployments
// without one. Interval 0 disables it.
func (service *serviceTrigger) StartPeriodicSweep(ctx context.Context) {
	interval := 0
	if coreconfig.Global != nil {
		interval = coreconfig.Global.Triggers.SweepIntervalSec
	}
	if interval <= 0 {
		logrus.Info("[TRIGGER] periodic sweep disabled, relying on external check calls")
		return
	}

	logrus.Infof("[TRIGGER] starting periodic sweep every %ds", interval)
	ticker := time.NewTicker(time.Duration(interval) * time.Second)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := service.CheckTriggers(ctx); err != nil {
					logrus.WithError(err).Error("[TRIGGER] sweep pass failed")
				}
			}
		}
	}()
}
