package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"

	globalConfig "github.com/janushq/janus/config"
	coreconfig "github.com/janushq/janus/core/config"
	pkgError "github.com/janushq/janus/pkg/error"
)

// maxReferenceChars bounds the extracted reference text sent to the model.
// Pages routinely exceed the useful context; the lead of the page carries
// the positioning anyway.
const maxReferenceChars = 8000

const strategySystemPrompt = `You are an expert go-to-market strategist for technical products.

Write a phased marketing strategy brief for the campaign described by the user.

REQUIREMENTS:
- Exactly 3 phases: "Phase 1 (Pre-Launch)", "Phase 2 (Launch)", "Phase 3 (Growth)".
- Each phase lists 2 to 4 concrete actions, one line each, in the form "action: short rationale".
- Phase 1 covers awareness and community building, Phase 2 the launch moment, Phase 3 optimization and scaling (A/B testing, content marketing, partnerships).
- Plain text only. No markdown headings, no code fences, no preamble.
- Keep the whole brief under 250 words. It is injected into content generation prompts, so every line must be usable as creative direction.`

// StrategyInput carries everything the planner knows about a campaign.
type StrategyInput struct {
	CampaignName string
	Description  string
	// ReferenceText is extracted from the campaign source URL, when present.
	ReferenceText string
	// Directive is an optional operator instruction for strategy regeneration
	// ("focus on developer communities", "drop the paid channels").
	Directive string
}

// StrategyPlanner turns a campaign description plus optional reference page
// text into a 3-phase strategy brief. The brief is stored on the campaign and
// prepended as creative direction to every content generation prompt.
type StrategyPlanner struct {
	resolveKey func(ctx context.Context) (string, error)
}

// NewStrategyPlanner creates a planner. The resolver supplies the Gemini API
// key at call time so stored credentials take effect without a restart.
func NewStrategyPlanner(resolveKey func(ctx context.Context) (string, error)) *StrategyPlanner {
	return &StrategyPlanner{resolveKey: resolveKey}
}

// PlanStrategy generates the strategy brief. Callers treat failures as
// non-fatal and fall back to the raw reference text.
func (p *StrategyPlanner) PlanStrategy(ctx context.Context, input StrategyInput) (string, error) {
	if strings.TrimSpace(input.CampaignName) == "" {
		return "", pkgError.ValidationError("campaign name: cannot be blank.")
	}

	key, err := p.resolveKey(ctx)
	if err != nil {
		return "", err
	}
	if key == "" {
		return "", pkgError.UpstreamError("gemini API key not configured")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", pkgError.UpstreamError(fmt.Sprintf("failed to create gemini client: %v", err))
	}

	temp := float32(0)
	genConfig := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(strategySystemPrompt, genai.RoleUser),
		Temperature:       &temp,
	}

	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{{Text: BuildStrategyRequest(input)}},
	}}

	result, err := client.Models.GenerateContent(ctx, p.model(), contents, genConfig)
	if err != nil {
		return "", pkgError.UpstreamError(fmt.Sprintf("gemini strategy planning failed: %v", err))
	}
	if result == nil {
		return "", pkgError.UpstreamError("gemini returned an empty response")
	}

	brief := strings.TrimSpace(result.Text())
	if brief == "" {
		return "", pkgError.UpstreamError("gemini returned an empty strategy brief")
	}

	logrus.Infof("[STRATEGY] planned strategy for %q (%d chars)", input.CampaignName, len(brief))
	return brief, nil
}

func (p *StrategyPlanner) model() string {
	if model := strings.TrimSpace(globalConfig.ContentTextModel); model != "" {
		return model
	}
	if coreconfig.Global != nil && coreconfig.Global.AI.TextModel != "" {
		return coreconfig.Global.AI.TextModel
	}
	return "gemini-2.5-flash"
}

// BuildStrategyRequest assembles the user message sent to the model.
func BuildStrategyRequest(input StrategyInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Campaign: %s\n", strings.TrimSpace(input.CampaignName))
	if desc := strings.TrimSpace(input.Description); desc != "" {
		fmt.Fprintf(&b, "Product: %s\n", desc)
	}
	if directive := strings.TrimSpace(input.Directive); directive != "" {
		fmt.Fprintf(&b, "Operator direction: %s\n", directive)
	}
	if ref := strings.TrimSpace(input.ReferenceText); ref != "" {
		fmt.Fprintf(&b, "\nReference page content:\n%s\n", TruncateReference(ref))
	}
	b.WriteString("\nWrite the 3-phase strategy brief.")
	return b.String()
}

// TruncateReference caps reference text at maxReferenceChars, cutting at the
// last word boundary so the model never sees a sliced word.
func TruncateReference(text string) string {
	if len(text) <= maxReferenceChars {
		return text
	}
	cut := text[:maxReferenceChars]
	if idx := strings.LastIndexAny(cut, " \n\t"); idx > 0 {
		cut = cut[:idx]
	}
	return cut + " ..."
}
