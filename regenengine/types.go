package regenengine

import (
	"errors"

	"github.com/janushq/janus/content/domain"
)

// ErrMediaUnsupported is returned by providers that cannot generate images.
// The pipeline treats it as a skip, not a failure.
var ErrMediaUnsupported = errors.New("media generation not supported by this provider")

// ParsedTrigger is the structured result of parsing a natural language
// trigger prompt. Duration is parsed for compatibility with the prompt
// format but the evaluator does not enforce it.
type ParsedTrigger struct {
	Value      int    `json:"value"`
	Comparison string `json:"comparison"`
	Duration   int    `json:"duration"`
	Prompt     string `json:"prompt"`
}

// AnalysisInput carries everything the analyzer sees for one fired trigger.
type AnalysisInput struct {
	Post    domain.Post
	Metrics domain.MetricRecord
	Event   domain.TriggerEvent
}

// AnalysisReport is the analyzer's output, a markdown report with insights
// and recommendations for the regeneration step.
type AnalysisReport struct {
	Report string `json:"analyzed_report"`
}

// GenerationInput is the request for fresh A/B variant drafts.
type GenerationInput struct {
	Post         domain.Post
	ActionPrompt string
	Analysis     string
	SystemPrompt string
}

// VariantDraft is one regenerated variant before persistence.
type VariantDraft struct {
	Slot      string   `json:"variant_id"`
	Content   string   `json:"content"`
	Hook      string   `json:"hook"`
	Reasoning string   `json:"reasoning"`
	Hashtags  []string `json:"hashtags"`
}

// MediaAsset is a generated image returned by a provider.
type MediaAsset struct {
	Data     []byte
	MIMEType string
}
