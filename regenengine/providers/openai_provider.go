package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/sirupsen/logrus"

	coreconfig "github.com/janushq/janus/core/config"
	pkgError "github.com/janushq/janus/pkg/error"
	"github.com/janushq/janus/regenengine"
)

// OpenAIProvider is the adapter for the OpenAI API. It covers trigger
// parsing, analysis and content generation; image generation is not wired
// and reports ErrMediaUnsupported.
type OpenAIProvider struct {
	resolveKey regenengine.KeyResolver
}

// NewOpenAIProvider creates an OpenAI provider.
func NewOpenAIProvider(resolveKey regenengine.KeyResolver) *OpenAIProvider {
	return &OpenAIProvider{resolveKey: resolveKey}
}

func (p *OpenAIProvider) Name() string {
	return "openai"
}

func (p *OpenAIProvider) apiKey(ctx context.Context) (string, error) {
	key, err := p.resolveKey(ctx, p.Name())
	if err != nil {
		return "", err
	}
	if key == "" {
		return "", pkgError.UpstreamError("openai API key not configured")
	}
	return key, nil
}

func (p *OpenAIProvider) model() string {
	if coreconfig.Global != nil && coreconfig.Global.AI.OpenAIModel != "" {
		return coreconfig.Global.AI.OpenAIModel
	}
	return "gpt-4o-mini"
}

// ParseTrigger extracts the threshold, comparison and action prompt from a
// natural language trigger prompt.
func (p *OpenAIProvider) ParseTrigger(ctx context.Context, condition, userPrompt string) (regenengine.ParsedTrigger, error) {
	key, err := p.apiKey(ctx)
	if err != nil {
		return regenengine.ParsedTrigger{}, err
	}
	client := openai.NewClient(option.WithAPIKey(key))

	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"value":      map[string]any{"type": "integer"},
			"comparison": map[string]any{"type": "string", "enum": []string{"<", "=", ">"}},
			"duration":   map[string]any{"type": "integer"},
			"prompt":     map[string]any{"type": "string"},
		},
		"required":             []string{"value", "comparison", "duration", "prompt"},
		"additionalProperties": false,
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model()),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(triggerParserSystemPrompt),
			openai.UserMessage(fmt.Sprintf("Parse this trigger for %s: %s", condition, userPrompt)),
		},
		Temperature: openai.Float(0),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "trigger_config",
					Schema: any(schema),
					Strict: openai.Bool(true),
				},
			},
		},
	}

	completion, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return regenengine.ParsedTrigger{}, pkgError.UpstreamError(fmt.Sprintf("openai trigger parse failed: %v", err))
	}
	if len(completion.Choices) == 0 {
		return regenengine.ParsedTrigger{}, pkgError.UpstreamError("openai returned no choices")
	}

	var parsed regenengine.ParsedTrigger
	if err := json.Unmarshal([]byte(completion.Choices[0].Message.Content), &parsed); err != nil {
		logrus.WithError(err).Warn("[OPENAI] Failed to parse trigger structured response")
		return regenengine.ParsedTrigger{}, pkgError.UpstreamError("openai returned an unparseable trigger config")
	}
	return parsed, nil
}

// AnalyzeMetrics produces the engagement report that guides regeneration.
func (p *OpenAIProvider) AnalyzeMetrics(ctx context.Context, input regenengine.AnalysisInput) (regenengine.AnalysisReport, error) {
	key, err := p.apiKey(ctx)
	if err != nil {
		return regenengine.AnalysisReport{}, err
	}
	client := openai.NewClient(option.WithAPIKey(key))

	payload, err := buildAnalysisPayload(input)
	if err != nil {
		return regenengine.AnalysisReport{}, err
	}

	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"analyzed_report": map[string]any{"type": "string"},
		},
		"required":             []string{"analyzed_report"},
		"additionalProperties": false,
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model()),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(metricsAnalyzerSystemPrompt),
			openai.UserMessage("Analyze these engagement metrics:\n\n" + payload),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "metrics_analysis",
					Schema: any(schema),
					Strict: openai.Bool(true),
				},
			},
		},
	}

	completion, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return regenengine.AnalysisReport{}, pkgError.UpstreamError(fmt.Sprintf("openai metrics analysis failed: %v", err))
	}
	if len(completion.Choices) == 0 {
		return regenengine.AnalysisReport{}, pkgError.UpstreamError("openai returned no choices")
	}

	var report regenengine.AnalysisReport
	if err := json.Unmarshal([]byte(completion.Choices[0].Message.Content), &report); err != nil {
		logrus.WithError(err).Warn("[OPENAI] Failed to parse analysis structured response, using raw text")
		report.Report = strings.TrimSpace(completion.Choices[0].Message.Content)
	}
	if strings.TrimSpace(report.Report) == "" {
		return regenengine.AnalysisReport{}, pkgError.UpstreamError("openai produced an empty analysis report")
	}
	return report, nil
}

// GenerateVariants asks for two fresh drafts guided by the action prompt and
// the analysis.
func (p *OpenAIProvider) GenerateVariants(ctx context.Context, input regenengine.GenerationInput) ([]regenengine.VariantDraft, error) {
	key, err := p.apiKey(ctx)
	if err != nil {
		return nil, err
	}
	client := openai.NewClient(option.WithAPIKey(key))

	systemText := contentCreatorSystemPrompt
	if strings.TrimSpace(input.SystemPrompt) != "" {
		systemText = systemText + "\n\n" + input.SystemPrompt
	}

	variantSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"variant_id": map[string]any{"type": "string", "enum": []string{"A", "B"}},
			"content":    map[string]any{"type": "string"},
			"hook":       map[string]any{"type": "string"},
			"reasoning":  map[string]any{"type": "string"},
			"hashtags":   map[string]any{"type": "string"},
		},
		"required":             []string{"variant_id", "content", "hook", "reasoning", "hashtags"},
		"additionalProperties": false,
	}
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"topic":          map[string]any{"type": "string"},
			"variants":       map[string]any{"type": "array", "items": variantSchema},
			"recommendation": map[string]any{"type": "string"},
		},
		"required":             []string{"topic", "variants", "recommendation"},
		"additionalProperties": false,
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model()),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemText),
			openai.UserMessage(buildGenerationRequest(input)),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "content_output",
					Schema: any(schema),
					Strict: openai.Bool(true),
				},
			},
		},
	}

	completion, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, pkgError.UpstreamError(fmt.Sprintf("openai content generation failed: %v", err))
	}
	if len(completion.Choices) == 0 {
		return nil, pkgError.UpstreamError("openai returned no choices")
	}

	var output rawContentOutput
	if err := json.Unmarshal([]byte(completion.Choices[0].Message.Content), &output); err != nil {
		logrus.WithError(err).Warn("[OPENAI] Failed to parse content structured response")
		return nil, pkgError.UpstreamError("openai returned unparseable content variants")
	}

	drafts, err := normalizeDrafts(output.Variants)
	if err != nil {
		return nil, pkgError.UpstreamError(fmt.Sprintf("openai content output invalid: %v", err))
	}
	return drafts, nil
}

// GenerateMedia is not wired for OpenAI.
func (p *OpenAIProvider) GenerateMedia(ctx context.Context, prompt string) (regenengine.MediaAsset, error) {
	return regenengine.MediaAsset{}, regenengine.ErrMediaUnsupported
}
