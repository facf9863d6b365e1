package regenengine

import "context"

// Provider is the interface every AI backend (Gemini, OpenAI) implements
// for the trigger parser and the regeneration pipeline.
type Provider interface {
	// Name identifies the provider in config and task records.
	Name() string

	// ParseTrigger turns a natural language trigger prompt into a
	// structured threshold, comparison and action prompt.
	ParseTrigger(ctx context.Context, condition, userPrompt string) (ParsedTrigger, error)

	// AnalyzeMetrics produces the engagement analysis report that guides
	// content regeneration.
	AnalyzeMetrics(ctx context.Context, input AnalysisInput) (AnalysisReport, error)

	// GenerateVariants creates exactly two fresh drafts, slot A with a
	// professional tone and slot B casual with emoji.
	GenerateVariants(ctx context.Context, input GenerationInput) ([]VariantDraft, error)

	// GenerateMedia renders an image for a variant. Providers without
	// image support return ErrMediaUnsupported.
	GenerateMedia(ctx context.Context, prompt string) (MediaAsset, error)
}

// KeyResolver returns the API key for a provider name. Implementations
// consult the credential store and fall back to environment config.
type KeyResolver func(ctx context.Context, provider string) (string, error)
