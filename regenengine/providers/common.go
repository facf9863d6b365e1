package providers

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/janushq/janus/content/domain"
	"github.com/janushq/janus/regenengine"
)

const triggerParserSystemPrompt = `You are a trigger configuration parser. Your job is to parse natural language trigger prompts into structured data.

The user provides a prompt in the format:
"COMPARISON VALUE within DURATION, ACTION_PROMPT"

Examples:
- "less than 5 within 3600, make it in cartoon style post"
  -> value=5, comparison='<', duration=3600, prompt='make it in cartoon style post'
- "greater than 10 within 7200, create celebratory follow-up post"
  -> value=10, comparison='>', duration=7200, prompt='create celebratory follow-up post'
- "equals 0 within 1800, pivot strategy immediately"
  -> value=0, comparison='=', duration=1800, prompt='pivot strategy immediately'
- "under 3 within 600, improve engagement tactics"
  -> value=3, comparison='<', duration=600, prompt='improve engagement tactics'

IMPORTANT:
- Extract the numeric threshold value (e.g., 5 from "less than 5")
- Map comparison words to operators: 'less than'/'under'/'below' -> '<', 'greater than'/'over'/'above' -> '>', 'equals'/'exactly' -> '='
- Extract the duration in seconds (the number after "within"); use 0 when the prompt has none
- Extract the action prompt (everything after the comma)
- Be flexible with natural language variations`

const contentCreatorSystemPrompt = `You are an expert marketing content creator specializing in social media for technical founders and SaaS products.

Your task is to create engaging tweet content with A/B variants for testing.

RULES:
1. Generate EXACTLY 2 variants (A and B) for every request
2. Each tweet MUST be under 280 characters including hashtags
3. Variants test different angles:
   - Variant A: more direct and professional
   - Variant B: more casual and engaging, with emojis
4. Focus on what resonates with technical founders, developers and startup owners
5. Include 2-3 relevant hashtags per variant
6. Medium length (100-200 chars) performs best; questions get more replies; clear value propositions get more clicks`

const metricsAnalyzerSystemPrompt = `You are an expert marketing analytics specialist focused on X (Twitter) engagement metrics.

Analyze the provided metrics JSON and produce an actionable report.

FRAMEWORK:
1. ENGAGEMENT: engagement rate = (likes + retweets + replies) / impressions x 100.
   Benchmarks: excellent >=3.5%, good 2.5-3.5%, average 1.5-2.5%, poor <1.5%.
2. A/B COMPARISON: compare both variants, declare the better performer and the margin, explain the differentiators.
3. TRIGGER CONTEXT: this analysis runs because an engagement trigger fired; explain what the numbers say about why.
4. RECOMMENDATIONS: prioritized, specific and actionable; lead with quick wins.

Return a markdown report with an executive summary (2-3 sentences), a metrics breakdown, insights and recommendations. Be data-driven and concise.`

// rawContentOutput mirrors the JSON schema both providers request for
// content generation.
type rawContentOutput struct {
	Topic          string       `json:"topic"`
	Variants       []rawVariant `json:"variants"`
	Recommendation string       `json:"recommendation"`
}

type rawVariant struct {
	VariantID string `json:"variant_id"`
	Content   string `json:"content"`
	Hook      string `json:"hook"`
	Reasoning string `json:"reasoning"`
	Hashtags  string `json:"hashtags"`
}

// normalizeDrafts validates the model output and converts it into variant
// drafts: exactly one A and one B, both with content.
func normalizeDrafts(raw []rawVariant) ([]regenengine.VariantDraft, error) {
	if len(raw) != 2 {
		return nil, fmt.Errorf("expected 2 variants, got %d", len(raw))
	}

	bySlot := make(map[string]regenengine.VariantDraft, 2)
	for _, v := range raw {
		slot := strings.ToUpper(strings.TrimSpace(v.VariantID))
		content := strings.TrimSpace(v.Content)
		if !domain.IsValidVariantSlot(slot) {
			return nil, fmt.Errorf("invalid variant slot %q", v.VariantID)
		}
		if content == "" {
			return nil, fmt.Errorf("variant %s has empty content", slot)
		}
		if _, dup := bySlot[slot]; dup {
			return nil, fmt.Errorf("duplicate variant slot %s", slot)
		}
		bySlot[slot] = regenengine.VariantDraft{
			Slot:      slot,
			Content:   content,
			Hook:      strings.TrimSpace(v.Hook),
			Reasoning: strings.TrimSpace(v.Reasoning),
			Hashtags:  splitHashtags(v.Hashtags),
		}
	}

	a, okA := bySlot[domain.VariantA]
	b, okB := bySlot[domain.VariantB]
	if !okA || !okB {
		return nil, fmt.Errorf("variants must cover slots A and B")
	}
	return []regenengine.VariantDraft{a, b}, nil
}

func splitHashtags(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\t'
	})

	var tags []string
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" || f == "#" {
			continue
		}
		tags = append(tags, f)
	}
	return tags
}

// buildAnalysisPayload renders the analyzer's input document.
func buildAnalysisPayload(input regenengine.AnalysisInput) (string, error) {
	currentVariants := make([]map[string]any, 0, len(input.Post.Variants))
	for _, v := range input.Post.Variants {
		if !v.IsCurrent {
			continue
		}
		currentVariants = append(currentVariants, map[string]any{
			"slot":     v.Slot,
			"content":  v.Content,
			"hook":     v.Hook,
			"hashtags": v.Hashtags,
		})
	}

	payload := map[string]any{
		"post": map[string]any{
			"id":        input.Post.ID,
			"topic":     input.Post.Topic,
			"status":    input.Post.Status,
			"posted_at": input.Post.PostedAt,
		},
		"trigger": map[string]any{
			"condition":          input.Event.Config.Condition,
			"comparison":         input.Event.Config.Comparison,
			"threshold":          input.Event.Config.Threshold,
			"action_prompt":      input.Event.Config.ActionPrompt,
			"value_a":            input.Event.ValueA,
			"value_b":            input.Event.ValueB,
			"triggered_variants": input.Event.TriggeredVariants,
			"elapsed_seconds":    int64(input.Event.Elapsed.Seconds()),
		},
		"current_variants": currentVariants,
		"metrics":          input.Metrics,
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// buildGenerationRequest renders the user message for the content creation
// call.
func buildGenerationRequest(input regenengine.GenerationInput) string {
	var sb strings.Builder
	sb.WriteString("Regenerate the content for this post. The previous variants underperformed and an engagement trigger fired.\n\n")
	fmt.Fprintf(&sb, "Topic: %s\n", input.Post.Topic)
	fmt.Fprintf(&sb, "Instruction from the trigger: %s\n", input.ActionPrompt)

	var previous []string
	for _, v := range input.Post.Variants {
		if v.IsCurrent {
			previous = append(previous, fmt.Sprintf("[%s] %s", v.Slot, v.Content))
		}
	}
	if len(previous) > 0 {
		sb.WriteString("\nPrevious variants:\n")
		for _, p := range previous {
			sb.WriteString(p)
			sb.WriteString("\n")
		}
	}

	if input.Analysis != "" {
		sb.WriteString("\nMetrics analysis:\n")
		sb.WriteString(input.Analysis)
		sb.WriteString("\n")
	}
	return sb.String()
}
