package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/janushq/janus/content/domain"
	domainMetric "github.com/janushq/janus/domains/metric"
	"github.com/janushq/janus/infrastructure/xclone"
	pkgError "github.com/janushq/janus/pkg/error"
	"github.com/janushq/janus/pkg/timeutils"
	"github.com/janushq/janus/validations"
)

type serviceMetric struct {
	repo     domain.ContentRepository
	platform *xclone.Client // nil when the X-clone integration is disabled
}

func NewMetricService(repo domain.ContentRepository, platform *xclone.Client) domainMetric.IMetricUsecase {
	return &serviceMetric{repo: repo, platform: platform}
}

func (service *serviceMetric) Get(ctx context.Context, postID string) (domain.MetricRecord, error) {
	record, err := service.repo.GetMetrics(ctx, postID)
	if err != nil {
		return domain.MetricRecord{}, err
	}
	return *record, nil
}

// Upsert replaces the full snapshot. External IDs already on file survive a
// snapshot that omits them, so an ingest push cannot unlink the platform
// posts.
func (service *serviceMetric) Upsert(ctx context.Context, postID string, req domainMetric.SnapshotRequest) (domain.MetricRecord, error) {
	record := domain.MetricRecord{
		PostID:      postID,
		A:           req.A,
		B:           req.B,
		RefreshedAt: time.Now().UTC(),
	}

	if existing, err := service.repo.GetMetrics(ctx, postID); err == nil {
		if record.A.ExternalID == "" {
			record.A.ExternalID = existing.A.ExternalID
		}
		if record.B.ExternalID == "" {
			record.B.ExternalID = existing.B.ExternalID
		}
	}

	if err := service.repo.UpsertMetrics(ctx, &record); err != nil {
		return domain.MetricRecord{}, err
	}
	return record, nil
}

func (service *serviceMetric) Increment(ctx context.Context, postID string, req domainMetric.IncrementRequest) error {
	if err := validations.ValidateIncrementMetric(ctx, req); err != nil {
		return err
	}

	delta := req.Delta
	if delta == 0 {
		delta = 1
	}
	return service.repo.IncrementMetric(ctx, postID, req.Variant, req.Metric, delta)
}

func (service *serviceMetric) AddComment(ctx context.Context, postID string, req domainMetric.CommentRequest) error {
	if err := validations.ValidateAddComment(ctx, req); err != nil {
		return err
	}

	comment := domain.Comment{
		Author: strings.TrimSpace(req.Author),
		Text:   req.Text,
	}
	if strings.TrimSpace(req.CreatedAt) != "" {
		createdAt, err := timeutils.ParseFlexibleTime(req.CreatedAt)
		if err != nil {
			return err
		}
		comment.CreatedAt = createdAt
	}

	return service.repo.AppendComment(ctx, postID, req.Variant, comment)
}

// RefreshFromPlatform pulls live tweet counters for both external IDs and
// upserts the snapshot. Posts that never went live are skipped with a
// warning; their stored record is returned untouched.
func (service *serviceMetric) RefreshFromPlatform(ctx context.Context, postID string) (domain.MetricRecord, error) {
	record, err := service.repo.GetMetrics(ctx, postID)
	if err != nil {
		return domain.MetricRecord{}, err
	}

	var ids []string
	if record.A.ExternalID != "" {
		ids = append(ids, record.A.ExternalID)
	}
	if record.B.ExternalID != "" {
		ids = append(ids, record.B.ExternalID)
	}
	if len(ids) == 0 {
		logrus.Warnf("[METRIC] post %s has no external IDs yet, skipping platform refresh", postID)
		return *record, nil
	}

	if service.platform == nil {
		return domain.MetricRecord{}, pkgError.UpstreamError("platform integration is disabled (XCLONE_ENABLED)")
	}

	tweets, err := service.platform.GetTweetMetrics(ctx, ids)
	if err != nil {
		return domain.MetricRecord{}, err
	}

	applyTweet(&record.A, tweets, postID, domain.VariantA)
	applyTweet(&record.B, tweets, postID, domain.VariantB)
	record.RefreshedAt = time.Now().UTC()

	if err := service.repo.UpsertMetrics(ctx, record); err != nil {
		return domain.MetricRecord{}, err
	}

	total := record.A.Impressions + record.B.Impressions
	logrus.Infof("[METRIC] refreshed post %s from platform, %s impressions total", postID, humanize.Comma(total))
	return *record, nil
}

// applyTweet copies the platform counters onto one slot. reply_count is the
// platform's name for what this system tracks as comments.
func applyTweet(vm *domain.VariantMetrics, tweets map[string]xclone.Tweet, postID, slot string) {
	if vm.ExternalID == "" {
		return
	}
	tweet, ok := tweets[vm.ExternalID]
	if !ok {
		logrus.Warnf("[METRIC] platform returned no data for post %s variant %s (tweet %s)", postID, slot, vm.ExternalID)
		return
	}
	if tweet.PublicMetrics != nil {
		vm.Likes = tweet.PublicMetrics.LikeCount
		vm.Retweets = tweet.PublicMetrics.RetweetCount
		vm.Comments = tweet.PublicMetrics.ReplyCount
	}
	if tweet.NonPublicMetrics != nil {
		vm.Impressions = tweet.NonPublicMetrics.ImpressionCount
	}
}
