package domain

import (
	"context"
	"time"
)

// ContentRepository is the persistence boundary for campaigns, posts,
// variants, triggers and metrics. Implementations map their storage errors
// to the typed errors in pkg/error; lock contention surfaces as the raw
// driver error so callers can wrap writes in the retry policy.
type ContentRepository interface {
	Init(ctx context.Context) error

	// Campaigns
	CreateCampaign(ctx context.Context, campaign *Campaign) error
	GetCampaign(ctx context.Context, id string) (*Campaign, error)
	ListCampaigns(ctx context.Context) ([]Campaign, error)
	UpdateCampaignPhase(ctx context.Context, id string, phase CampaignPhase) error
	UpdateCampaignStrategy(ctx context.Context, id, strategy string) error
	DeleteCampaign(ctx context.Context, id string) error

	// Posts
	CreatePost(ctx context.Context, post *Post) error
	GetPost(ctx context.Context, id string) (*Post, error)
	ListPostsByCampaign(ctx context.Context, campaignID string) ([]Post, error)
	// ListTriggerCandidates returns published posts with posted_at set and a
	// complete trigger armed, variants excluded.
	ListTriggerCandidates(ctx context.Context) ([]Post, error)
	UpdatePostStatus(ctx context.Context, id string, status PostStatus) error
	// MarkPublished records the external collaborator's publish result.
	MarkPublished(ctx context.Context, id string, postedAt time.Time, externalIDA, externalIDB string) error
	DeletePost(ctx context.Context, id string) error

	// Triggers
	SetTrigger(ctx context.Context, postID string, cfg TriggerConfig) error
	ClearTrigger(ctx context.Context, postID string) error
	// FinalizeRegeneration moves the post back to draft and clears its
	// trigger in one transaction.
	FinalizeRegeneration(ctx context.Context, postID string) error

	// Variants
	// InsertVariant stores a new current variant and flips the previous
	// current row for the same slot off, in one transaction.
	InsertVariant(ctx context.Context, variant *ContentVariant) error
	ListVariants(ctx context.Context, postID string, onlyCurrent bool) ([]ContentVariant, error)

	// Metrics
	UpsertMetrics(ctx context.Context, record *MetricRecord) error
	GetMetrics(ctx context.Context, postID string) (*MetricRecord, error)
	IncrementMetric(ctx context.Context, postID, slot, metric string, delta int64) error
	AppendComment(ctx context.Context, postID, slot string, comment Comment) error
}
