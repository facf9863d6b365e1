package domain

import (
	"fmt"
	"strings"
	"time"
)

// Comparison operators accepted in a trigger config.
const (
	ComparisonLess    = "<"
	ComparisonEqual   = "="
	ComparisonGreater = ">"
)

func IsValidComparison(cmp string) bool {
	return cmp == ComparisonLess || cmp == ComparisonEqual || cmp == ComparisonGreater
}

// NormalizeComparison maps the comparison phrasings the parser may emit to
// their canonical operators. Canonical operators pass through.
func NormalizeComparison(raw string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case ComparisonLess, "less than", "less", "under", "below", "fewer than":
		return ComparisonLess, true
	case ComparisonEqual, "==", "equals", "equal", "equal to", "exactly", "reaches":
		return ComparisonEqual, true
	case ComparisonGreater, "greater than", "greater", "over", "above", "more than":
		return ComparisonGreater, true
	}
	return "", false
}

// Metric names a trigger condition may reference.
const (
	MetricLikes       = "likes"
	MetricRetweets    = "retweets"
	MetricImpressions = "impressions"
	MetricComments    = "comments"
)

func ValidMetricNames() []string {
	return []string{MetricLikes, MetricRetweets, MetricImpressions, MetricComments}
}

func IsValidMetricName(name string) bool {
	switch name {
	case MetricLikes, MetricRetweets, MetricImpressions, MetricComments:
		return true
	}
	return false
}

// TriggerConfig describes when a post's content should be regenerated and
// what the regeneration should aim for. A post holds either a complete
// config or none (see Post.Trigger).
type TriggerConfig struct {
	Condition    string `json:"condition"`
	Comparison   string `json:"comparison"`
	Threshold    int    `json:"threshold"`
	ActionPrompt string `json:"action_prompt"`
}

// Complete reports whether every field is usable. Incomplete configs never
// evaluate; the store refuses to persist them.
func (c TriggerConfig) Complete() bool {
	return IsValidMetricName(c.Condition) &&
		IsValidComparison(c.Comparison) &&
		strings.TrimSpace(c.ActionPrompt) != ""
}

// Matches applies the configured comparison to a metric value.
func (c TriggerConfig) Matches(value int64) bool {
	threshold := int64(c.Threshold)
	switch c.Comparison {
	case ComparisonLess:
		return value < threshold
	case ComparisonEqual:
		return value == threshold
	case ComparisonGreater:
		return value > threshold
	}
	return false
}

func (c TriggerConfig) String() string {
	return fmt.Sprintf("%s %s %d", c.Condition, c.Comparison, c.Threshold)
}

// TriggerEvent records one trigger firing during an evaluation pass.
type TriggerEvent struct {
	PostID string        `json:"post_id"`
	Config TriggerConfig `json:"config"`

	// Raw metric values for both variants at evaluation time.
	ValueA int64 `json:"value_a"`
	ValueB int64 `json:"value_b"`

	// TriggeredVariants lists which sides matched ("A", "B" or both).
	// The trigger fires when at least one side matches.
	TriggeredVariants []string `json:"triggered_variants"`

	// Elapsed is the time since the post went live. Informational only;
	// it never gates firing.
	Elapsed time.Duration `json:"elapsed_ns"`
}
