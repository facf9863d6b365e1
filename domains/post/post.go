package post

import (
	"context"

	"github.com/janushq/janus/content/domain"
)

type CreatePostRequest struct {
	Topic string `json:"topic"`
	// SkipGeneration creates the post without initial variants, for callers
	// that supply content through other means.
	SkipGeneration bool `json:"skip_generation"`
}

// PublishRequest records the external collaborator's publish result. The
// platform assigns one tweet ID per variant.
type PublishRequest struct {
	ExternalIDA string `json:"external_id_a"`
	ExternalIDB string `json:"external_id_b"`
	// PostedAt accepts RFC3339 or the platform's naive isoformat; empty means
	// now.
	PostedAt string `json:"posted_at"`
}

type IPostUsecase interface {
	Create(ctx context.Context, campaignID string, req CreatePostRequest) (domain.Post, error)
	GetByID(ctx context.Context, id string) (domain.Post, error)
	ListByCampaign(ctx context.Context, campaignID string) ([]domain.Post, error)
	Publish(ctx context.Context, id string, req PublishRequest) (domain.Post, error)
	Delete(ctx context.Context, id string) error
}
