package validations

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/janushq/janus/content/domain"
	domainCampaign "github.com/janushq/janus/domains/campaign"
	domainMetric "github.com/janushq/janus/domains/metric"
	domainPost "github.com/janushq/janus/domains/post"
	domainTrigger "github.com/janushq/janus/domains/trigger"
	pkgError "github.com/janushq/janus/pkg/error"
)

func ValidateCreateCampaign(ctx context.Context, request domainCampaign.CreateCampaignRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&request.SourceURL, is.URL),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

func ValidateCreatePost(ctx context.Context, request domainPost.CreatePostRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Topic, validation.Required, validation.Length(1, 500)),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

func ValidatePublishPost(ctx context.Context, request domainPost.PublishRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.ExternalIDA, validation.Required),
		validation.Field(&request.ExternalIDB, validation.Required),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

// ValidateSetTrigger accepts either form: a prompt to parse, or the full
// structured config. The condition metric is required either way.
func ValidateSetTrigger(ctx context.Context, request domainTrigger.SetTriggerRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Condition, validation.Required,
			validation.In(toAnySlice(domain.ValidMetricNames())...).Error("must be one of: likes, retweets, impressions, comments")),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	if request.Prompt != "" {
		return nil
	}

	err = validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Comparison, validation.Required,
			validation.In("<", "=", ">").Error("must be one of: <, =, >")),
		validation.Field(&request.Threshold, validation.NotNil),
		validation.Field(&request.ActionPrompt, validation.Required),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

func ValidateIncrementMetric(ctx context.Context, request domainMetric.IncrementRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Variant, validation.Required,
			validation.In(domain.VariantA, domain.VariantB).Error("must be A or B")),
		validation.Field(&request.Metric, validation.Required,
			validation.In(toAnySlice(domain.ValidMetricNames())...).Error("must be one of: likes, retweets, impressions, comments")),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

func ValidateAddComment(ctx context.Context, request domainMetric.CommentRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Variant, validation.Required,
			validation.In(domain.VariantA, domain.VariantB).Error("must be A or B")),
		validation.Field(&request.Text, validation.Required),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

func toAnySlice(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
