package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"

	"github.com/janushq/janus/config"
	coreconfig "github.com/janushq/janus/core/config"
	pkgError "github.com/janushq/janus/pkg/error"
	"github.com/janushq/janus/regenengine"
)

// GeminiProvider is the adapter for the Google Gemini API.
type GeminiProvider struct {
	resolveKey regenengine.KeyResolver
}

// NewGeminiProvider creates a Gemini provider. The resolver supplies the API
// key at call time so stored credentials take effect without a restart.
func NewGeminiProvider(resolveKey regenengine.KeyResolver) *GeminiProvider {
	return &GeminiProvider{resolveKey: resolveKey}
}

func (p *GeminiProvider) Name() string {
	return "gemini"
}

func (p *GeminiProvider) client(ctx context.Context) (*genai.Client, error) {
	key, err := p.resolveKey(ctx, p.Name())
	if err != nil {
		return nil, err
	}
	if key == "" {
		return nil, pkgError.UpstreamError("gemini API key not configured")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, pkgError.UpstreamError(fmt.Sprintf("failed to create gemini client: %v", err))
	}
	return client, nil
}

// ParseTrigger extracts the threshold, comparison and action prompt from a
// natural language trigger prompt using the lite model at temperature 0.
func (p *GeminiProvider) ParseTrigger(ctx context.Context, condition, userPrompt string) (regenengine.ParsedTrigger, error) {
	client, err := p.client(ctx)
	if err != nil {
		return regenengine.ParsedTrigger{}, err
	}

	temp := float32(0)
	genConfig := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(triggerParserSystemPrompt, genai.RoleUser),
		Temperature:       &temp,
		ResponseMIMEType:  "application/json",
		ResponseJsonSchema: &genai.Schema{
			Type: "object",
			Properties: map[string]*genai.Schema{
				"value": {
					Type:        "integer",
					Description: "The numeric threshold value for the trigger condition",
				},
				"comparison": {
					Type:        "string",
					Enum:        []string{"<", "=", ">"},
					Description: "The comparison operator",
				},
				"duration": {
					Type:        "integer",
					Description: "Minimum elapsed time in seconds, 0 when the prompt has none",
				},
				"prompt": {
					Type:        "string",
					Description: "The action prompt to execute when the trigger fires",
				},
			},
			Required:         []string{"value", "comparison", "duration", "prompt"},
			PropertyOrdering: []string{"value", "comparison", "duration", "prompt"},
		},
	}

	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{{Text: fmt.Sprintf("Parse this trigger for %s: %s", condition, userPrompt)}},
	}}

	result, err := client.Models.GenerateContent(ctx, p.parserModel(), contents, genConfig)
	if err != nil {
		return regenengine.ParsedTrigger{}, pkgError.UpstreamError(fmt.Sprintf("gemini trigger parse failed: %v", err))
	}
	if result == nil {
		return regenengine.ParsedTrigger{}, pkgError.UpstreamError("gemini returned an empty response")
	}

	var parsed regenengine.ParsedTrigger
	if err := json.Unmarshal([]byte(result.Text()), &parsed); err != nil {
		logrus.WithError(err).Warn("[GEMINI] Failed to parse trigger structured response")
		return regenengine.ParsedTrigger{}, pkgError.UpstreamError("gemini returned an unparseable trigger config")
	}
	return parsed, nil
}

// AnalyzeMetrics produces the engagement report that guides regeneration.
func (p *GeminiProvider) AnalyzeMetrics(ctx context.Context, input regenengine.AnalysisInput) (regenengine.AnalysisReport, error) {
	client, err := p.client(ctx)
	if err != nil {
		return regenengine.AnalysisReport{}, err
	}

	payload, err := buildAnalysisPayload(input)
	if err != nil {
		return regenengine.AnalysisReport{}, err
	}

	genConfig := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(metricsAnalyzerSystemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseJsonSchema: &genai.Schema{
			Type: "object",
			Properties: map[string]*genai.Schema{
				"analyzed_report": {
					Type:        "string",
					Description: "Detailed markdown analysis report with insights and recommendations",
				},
			},
			Required: []string{"analyzed_report"},
		},
	}

	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{{Text: "Analyze these engagement metrics:\n\n" + payload}},
	}}

	result, err := client.Models.GenerateContent(ctx, p.textModel(), contents, genConfig)
	if err != nil {
		return regenengine.AnalysisReport{}, pkgError.UpstreamError(fmt.Sprintf("gemini metrics analysis failed: %v", err))
	}
	if result == nil {
		return regenengine.AnalysisReport{}, pkgError.UpstreamError("gemini returned an empty response")
	}

	var report regenengine.AnalysisReport
	if err := json.Unmarshal([]byte(result.Text()), &report); err != nil {
		logrus.WithError(err).Warn("[GEMINI] Failed to parse analysis structured response, using raw text")
		report.Report = strings.TrimSpace(result.Text())
	}
	if strings.TrimSpace(report.Report) == "" {
		return regenengine.AnalysisReport{}, pkgError.UpstreamError("gemini produced an empty analysis report")
	}
	return report, nil
}

// GenerateVariants asks for two fresh drafts guided by the action prompt and
// the analysis.
func (p *GeminiProvider) GenerateVariants(ctx context.Context, input regenengine.GenerationInput) ([]regenengine.VariantDraft, error) {
	client, err := p.client(ctx)
	if err != nil {
		return nil, err
	}

	systemText := contentCreatorSystemPrompt
	if strings.TrimSpace(input.SystemPrompt) != "" {
		systemText = systemText + "\n\n" + input.SystemPrompt
	}

	variantSchema := &genai.Schema{
		Type: "object",
		Properties: map[string]*genai.Schema{
			"variant_id": {
				Type:        "string",
				Enum:        []string{"A", "B"},
				Description: "Variant identifier",
			},
			"content": {
				Type:        "string",
				Description: "The tweet text, max 280 characters including hashtags",
			},
			"hook": {
				Type:        "string",
				Description: "The angle or hook used",
			},
			"reasoning": {
				Type:        "string",
				Description: "Why this variant might perform well",
			},
			"hashtags": {
				Type:        "string",
				Description: "2-3 suggested hashtags",
			},
		},
		Required:         []string{"variant_id", "content", "hook", "reasoning", "hashtags"},
		PropertyOrdering: []string{"variant_id", "content", "hook", "reasoning", "hashtags"},
	}

	temp := float32(0.7)
	genConfig := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemText, genai.RoleUser),
		Temperature:       &temp,
		ResponseMIMEType:  "application/json",
		ResponseJsonSchema: &genai.Schema{
			Type: "object",
			Properties: map[string]*genai.Schema{
				"topic": {
					Type:        "string",
					Description: "Brief description of the topic",
				},
				"variants": {
					Type:        "array",
					Items:       variantSchema,
					Description: "Exactly two variants, A and B",
				},
				"recommendation": {
					Type:        "string",
					Description: "Which variant to test first and why",
				},
			},
			Required:         []string{"topic", "variants", "recommendation"},
			PropertyOrdering: []string{"topic", "variants", "recommendation"},
		},
	}

	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{{Text: buildGenerationRequest(input)}},
	}}

	result, err := client.Models.GenerateContent(ctx, p.textModel(), contents, genConfig)
	if err != nil {
		return nil, pkgError.UpstreamError(fmt.Sprintf("gemini content generation failed: %v", err))
	}
	if result == nil {
		return nil, pkgError.UpstreamError("gemini returned an empty response")
	}

	var output rawContentOutput
	if err := json.Unmarshal([]byte(result.Text()), &output); err != nil {
		logrus.WithError(err).Warn("[GEMINI] Failed to parse content structured response")
		return nil, pkgError.UpstreamError("gemini returned unparseable content variants")
	}

	drafts, err := normalizeDrafts(output.Variants)
	if err != nil {
		return nil, pkgError.UpstreamError(fmt.Sprintf("gemini content output invalid: %v", err))
	}
	return drafts, nil
}

// GenerateMedia renders an image for a variant with the image model.
func (p *GeminiProvider) GenerateMedia(ctx context.Context, prompt string) (regenengine.MediaAsset, error) {
	client, err := p.client(ctx)
	if err != nil {
		return regenengine.MediaAsset{}, err
	}

	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{{Text: prompt}},
	}}

	result, err := client.Models.GenerateContent(ctx, p.mediaModel(), contents, nil)
	if err != nil {
		return regenengine.MediaAsset{}, pkgError.UpstreamError(fmt.Sprintf("gemini media generation failed: %v", err))
	}
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return regenengine.MediaAsset{}, pkgError.UpstreamError("gemini returned no media candidates")
	}

	for _, part := range result.Candidates[0].Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			mime := part.InlineData.MIMEType
			if mime == "" {
				mime = "image/png"
			}
			return regenengine.MediaAsset{Data: part.InlineData.Data, MIMEType: mime}, nil
		}
	}
	return regenengine.MediaAsset{}, pkgError.UpstreamError("gemini response contained no image data")
}

func (p *GeminiProvider) parserModel() string {
	if coreconfig.Global != nil && coreconfig.Global.AI.ParserModel != "" {
		return coreconfig.Global.AI.ParserModel
	}
	return "gemini-2.5-flash-lite"
}

func (p *GeminiProvider) textModel() string {
	if model := strings.TrimSpace(config.ContentTextModel); model != "" {
		return model
	}
	if coreconfig.Global != nil && coreconfig.Global.AI.TextModel != "" {
		return coreconfig.Global.AI.TextModel
	}
	return "gemini-2.5-flash"
}

func (p *GeminiProvider) mediaModel() string {
	if coreconfig.Global != nil && coreconfig.Global.AI.MediaModel != "" {
		return coreconfig.Global.AI.MediaModel
	}
	return "gemini-2.5-flash-image"
}
