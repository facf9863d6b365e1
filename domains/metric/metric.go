package metric

import (
	"context"

	"github.com/janushq/janus/content/domain"
)

// SnapshotRequest is a full platform snapshot for both variants.
type SnapshotRequest struct {
	A domain.VariantMetrics `json:"A"`
	B domain.VariantMetrics `json:"B"`
}

type IncrementRequest struct {
	Variant string `json:"variant"`
	Metric  string `json:"metric"`
	Delta   int64  `json:"delta"`
}

type CommentRequest struct {
	Variant string `json:"variant"`
	Author  string `json:"author"`
	Text    string `json:"text"`
	// CreatedAt accepts RFC3339 or the platform's naive isoformat; empty
	// means now.
	CreatedAt string `json:"created_at"`
}

type IMetricUsecase interface {
	Get(ctx context.Context, postID string) (domain.MetricRecord, error)
	Upsert(ctx context.Context, postID string, req SnapshotRequest) (domain.MetricRecord, error)
	Increment(ctx context.Context, postID string, req IncrementRequest) error
	AddComment(ctx context.Context, postID string, req CommentRequest) error
	// RefreshFromPlatform pulls live counters for the post's external IDs from
	// the X-clone API and upserts them.
	RefreshFromPlatform(ctx context.Context, postID string) (domain.MetricRecord, error)
}
