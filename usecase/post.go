package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/janushq/janus/config"
	"github.com/janushq/janus/content/domain"
	domainPost "github.com/janushq/janus/domains/post"
	"github.com/janushq/janus/pkg/mediastore"
	"github.com/janushq/janus/pkg/timeutils"
	"github.com/janushq/janus/regenengine"
	"github.com/janushq/janus/validations"
)

type servicePost struct {
	repo   domain.ContentRepository
	engine *regenengine.Engine
}

func NewPostService(repo domain.ContentRepository, engine *regenengine.Engine) domainPost.IPostUsecase {
	return &servicePost{repo: repo, engine: engine}
}

// Create stores a draft post and, unless skipped, asks the active provider
// for the initial A/B variant pair. The campaign's strategy context rides
// along in the system prompt.
func (service *servicePost) Create(ctx context.Context, campaignID string, req domainPost.CreatePostRequest) (domain.Post, error) {
	if err := validations.ValidateCreatePost(ctx, req); err != nil {
		return domain.Post{}, err
	}

	campaign, err := service.repo.GetCampaign(ctx, campaignID)
	if err != nil {
		return domain.Post{}, err
	}

	now := time.Now().UTC()
	post := domain.Post{
		ID:         uuid.NewString(),
		CampaignID: campaign.ID,
		Topic:      strings.TrimSpace(req.Topic),
		Status:     domain.PostStatusDraft,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if !req.SkipGeneration {
		drafts, err := service.engine.GenerateContent(ctx, regenengine.GenerationInput{
			Post:         post,
			SystemPrompt: systemPromptWithStrategy(campaign.Strategy),
		})
		if err != nil {
			return domain.Post{}, err
		}
		for _, draft := range drafts {
			post.Variants = append(post.Variants, domain.ContentVariant{
				ID:        uuid.NewString(),
				PostID:    post.ID,
				Slot:      draft.Slot,
				Content:   draft.Content,
				Hook:      draft.Hook,
				Reasoning: draft.Reasoning,
				Hashtags:  draft.Hashtags,
				IsCurrent: true,
				CreatedAt: now,
			})
		}
	}

	if err := service.repo.CreatePost(ctx, &post); err != nil {
		return domain.Post{}, err
	}

	logrus.Infof("[POST] created post %s in campaign %s with %d variants", post.ID, campaign.ID, len(post.Variants))
	return post, nil
}

func (service *servicePost) GetByID(ctx context.Context, id string) (domain.Post, error) {
	post, err := service.repo.GetPost(ctx, id)
	if err != nil {
		return domain.Post{}, err
	}
	return *post, nil
}

func (service *servicePost) ListByCampaign(ctx context.Context, campaignID string) ([]domain.Post, error) {
	if _, err := service.repo.GetCampaign(ctx, campaignID); err != nil {
		return nil, err
	}
	return service.repo.ListPostsByCampaign(ctx, campaignID)
}

// Publish records the external collaborator's result: the post went live on
// the platform under one tweet ID per variant.
func (service *servicePost) Publish(ctx context.Context, id string, req domainPost.PublishRequest) (domain.Post, error) {
	if err := validations.ValidatePublishPost(ctx, req); err != nil {
		return domain.Post{}, err
	}

	postedAt := time.Now().UTC()
	if strings.TrimSpace(req.PostedAt) != "" {
		parsed, err := timeutils.ParseFlexibleTime(req.PostedAt)
		if err != nil {
			return domain.Post{}, err
		}
		postedAt = parsed
	}

	if err := service.repo.MarkPublished(ctx, id, postedAt, strings.TrimSpace(req.ExternalIDA), strings.TrimSpace(req.ExternalIDB)); err != nil {
		return domain.Post{}, err
	}

	post, err := service.repo.GetPost(ctx, id)
	if err != nil {
		return domain.Post{}, err
	}
	logrus.Infof("[POST] post %s published, external IDs %s/%s", id, req.ExternalIDA, req.ExternalIDB)
	return *post, nil
}

func (service *servicePost) Delete(ctx context.Context, id string) error {
	if err := service.repo.DeletePost(ctx, id); err != nil {
		return err
	}
	if err := mediastore.RemovePostMedia(id); err != nil {
		logrus.WithError(err).Warnf("[POST] could not remove generated media for %s", id)
	}
	return nil
}

func systemPromptWithStrategy(strategy string) string {
	base := config.ContentSystemPrompt
	if strings.TrimSpace(strategy) == "" {
		return base
	}
	if base != "" {
		base += "\n\n"
	}
	return base + "Campaign strategy context:\n" + strategy
}
