package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/janushq/janus/content/domain"
	pkgError "github.com/janushq/janus/pkg/error"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// metricColumn maps a metric name and slot to its counter column.
func metricColumn(slot, metric string) (string, error) {
	if !domain.IsValidVariantSlot(slot) {
		return "", pkgError.ValidationError("variant: must be A or B.")
	}
	if !domain.IsValidMetricName(metric) {
		return "", pkgError.ValidationError(fmt.Sprintf(
			"metric: unknown name %q, valid names are %s.", metric, strings.Join(domain.ValidMetricNames(), ", ")))
	}
	return fmt.Sprintf("%s_%s", metric, strings.ToLower(slot)), nil
}

func (r *ContentGormRepository) ensurePostExists(tx *gorm.DB, postID string) error {
	var count int64
	if err := tx.Model(&postModel{}).Where("id = ?", postID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return pkgError.NotFoundError("post not found")
	}
	return nil
}

// UpsertMetrics replaces the whole snapshot for a post, e.g. after a platform
// refresh. The post must exist; metrics never outlive their post.
func (r *ContentGormRepository) UpsertMetrics(ctx context.Context, record *domain.MetricRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.ensurePostExists(tx, record.PostID); err != nil {
			return err
		}
		model := toMetricModel(*record)
		if model.RefreshedAt.IsZero() {
			model.RefreshedAt = time.Now().UTC()
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "post_id"}},
			UpdateAll: true,
		}).Create(&model).Error
	})
}

// GetMetrics returns the snapshot for a post. Both variant keys are always
// populated; posts that never accumulated engagement read back zeros.
func (r *ContentGormRepository) GetMetrics(ctx context.Context, postID string) (*domain.MetricRecord, error) {
	var m metricModel
	if err := r.db.WithContext(ctx).First(&m, "post_id = ?", postID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgError.NotFoundError("no metrics recorded for post")
		}
		return nil, err
	}
	record := fromMetricModel(m)
	return &record, nil
}

// IncrementMetric bumps one counter in place, creating the row when the post
// has no metrics yet. The increment itself runs inside the database so
// concurrent bumps never lose updates.
func (r *ContentGormRepository) IncrementMetric(ctx context.Context, postID, slot, metric string, delta int64) error {
	col, err := metricColumn(slot, metric)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.ensurePostExists(tx, postID); err != nil {
			return err
		}
		seed := metricModel{PostID: postID, RefreshedAt: time.Now().UTC()}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return err
		}
		return tx.Model(&metricModel{}).Where("post_id = ?", postID).Updates(map[string]any{
			col:            gorm.Expr(col+" + ?", delta),
			"refreshed_at": time.Now().UTC(),
		}).Error
	})
}

// AppendComment adds one comment to the slot's JSON list and bumps the
// matching counter in the same transaction.
func (r *ContentGormRepository) AppendComment(ctx context.Context, postID, slot string, comment domain.Comment) error {
	if !domain.IsValidVariantSlot(slot) {
		return pkgError.ValidationError("variant: must be A or B.")
	}
	listCol := "comment_list_" + strings.ToLower(slot)
	countCol := "comments_" + strings.ToLower(slot)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.ensurePostExists(tx, postID); err != nil {
			return err
		}
		seed := metricModel{PostID: postID, RefreshedAt: time.Now().UTC()}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return err
		}

		var m metricModel
		if err := tx.First(&m, "post_id = ?", postID).Error; err != nil {
			return err
		}

		var comments []domain.Comment
		if slot == domain.VariantA {
			comments = commentsFromJSON(m.CommentListA)
		} else {
			comments = commentsFromJSON(m.CommentListB)
		}
		if comment.CreatedAt.IsZero() {
			comment.CreatedAt = time.Now().UTC()
		}
		comments = append(comments, comment)
		data, err := json.Marshal(comments)
		if err != nil {
			return err
		}

		return tx.Model(&metricModel{}).Where("post_id = ?", postID).Updates(map[string]any{
			listCol:        string(data),
			countCol:       gorm.Expr(countCol + " + 1"),
			"refreshed_at": time.Now().UTC(),
		}).Error
	})
}
