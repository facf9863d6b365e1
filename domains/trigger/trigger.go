package trigger

import (
	"context"

	"github.com/janushq/janus/content/domain"
)

// SetTriggerRequest carries either a natural-language prompt to parse or a
// structured config. When Prompt is set the parser runs; otherwise
// comparison, threshold and action_prompt must all be present.
type SetTriggerRequest struct {
	Condition    string `json:"condition"`
	Prompt       string `json:"prompt"`
	Comparison   string `json:"comparison"`
	Threshold    *int   `json:"threshold"`
	ActionPrompt string `json:"action_prompt"`
}

// FiredTrigger is one check-triggers result row, returned before any
// regeneration pipeline runs.
type FiredTrigger struct {
	PostID            string   `json:"post_id"`
	Condition         string   `json:"condition"`
	Comparison        string   `json:"comparison"`
	Threshold         int      `json:"threshold"`
	TriggeredVariants []string `json:"triggered_variants"`
	ValueA            int64    `json:"value_a"`
	ValueB            int64    `json:"value_b"`
	TaskID            string   `json:"task_id,omitempty"`
}

type ITriggerUsecase interface {
	SetTrigger(ctx context.Context, postID string, req SetTriggerRequest) (domain.TriggerConfig, error)
	ClearTrigger(ctx context.Context, postID string) error
	// CheckTriggers evaluates every candidate post, dispatches one
	// regeneration task per fired trigger and returns the fired list without
	// waiting for any pipeline.
	CheckTriggers(ctx context.Context) ([]FiredTrigger, error)
	// StartPeriodicSweep runs CheckTriggers on a ticker when the sweep
	// interval is configured. Zero interval disables it (external cron).
	StartPeriodicSweep(ctx context.Context)
}
