package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/janushq/janus/content/domain"
	pkgError "github.com/janushq/janus/pkg/error"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (r *ContentGormRepository) CreatePost(ctx context.Context, post *domain.Post) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&campaignModel{}).Where("id = ?", post.CampaignID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return pkgError.NotFoundError("campaign not found")
		}

		model := toPostModel(*post)
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		for i := range post.Variants {
			vm := toVariantModel(post.Variants[i])
			if err := tx.Create(&vm).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *ContentGormRepository) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	var m postModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgError.NotFoundError("post not found")
		}
		return nil, err
	}

	post := fromPostModel(m)
	variants, err := r.ListVariants(ctx, id, false)
	if err != nil {
		return nil, err
	}
	post.Variants = variants
	return &post, nil
}

func (r *ContentGormRepository) ListPostsByCampaign(ctx context.Context, campaignID string) ([]domain.Post, error) {
	var models []postModel
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&models, "campaign_id = ?", campaignID).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Post, len(models))
	for i, m := range models {
		res[i] = fromPostModel(m)
	}
	return res, nil
}

// ListTriggerCandidates loads posts the evaluator may consider: published,
// with posted_at recorded and all four trigger columns present. Completeness
// is re-checked in the mapper, so this never yields a partial config.
func (r *ContentGormRepository) ListTriggerCandidates(ctx context.Context) ([]domain.Post, error) {
	var models []postModel
	err := r.db.WithContext(ctx).
		Where("status = ?", string(domain.PostStatusPublished)).
		Where("posted_at IS NOT NULL").
		Where("trigger_condition IS NOT NULL").
		Where("trigger_comparison IS NOT NULL").
		Where("trigger_threshold IS NOT NULL").
		Where("trigger_action_prompt IS NOT NULL").
		Order("posted_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	res := make([]domain.Post, 0, len(models))
	for _, m := range models {
		post := fromPostModel(m)
		if post.EligibleForTriggerCheck() {
			res = append(res, post)
		}
	}
	return res, nil
}

func (r *ContentGormRepository) UpdatePostStatus(ctx context.Context, id string, status domain.PostStatus) error {
	result := r.db.WithContext(ctx).Model(&postModel{}).
		Where("id = ?", id).
		Update("status", string(status))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgError.NotFoundError("post not found")
	}
	return nil
}

// MarkPublished records the external collaborator's publish result: the post
// goes live with its posted_at and the platform's per-variant external IDs.
// A metric row is created alongside so both variants track from zero.
func (r *ContentGormRepository) MarkPublished(ctx context.Context, id string, postedAt time.Time, externalIDA, externalIDB string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&postModel{}).Where("id = ?", id).Updates(map[string]any{
			"status":    string(domain.PostStatusPublished),
			"posted_at": postedAt.UTC(),
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return pkgError.NotFoundError("post not found")
		}

		m := metricModel{
			PostID:      id,
			ExternalIDA: nullString(externalIDA),
			ExternalIDB: nullString(externalIDB),
			RefreshedAt: time.Now().UTC(),
		}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "post_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"external_id_a": nullString(externalIDA),
				"external_id_b": nullString(externalIDB),
				"refreshed_at":  time.Now().UTC(),
			}),
		}).Create(&m).Error
	})
}

func (r *ContentGormRepository) DeletePost(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&variantModel{}, "post_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&metricModel{}, "post_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&postModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return pkgError.NotFoundError("post not found")
		}
		return nil
	})
}

// --- Triggers ---

// SetTrigger stores a complete config. All four columns are written in one
// update; partial configs are rejected before touching the row.
func (r *ContentGormRepository) SetTrigger(ctx context.Context, postID string, cfg domain.TriggerConfig) error {
	if !cfg.Complete() {
		return pkgError.ValidationError("trigger config is incomplete")
	}
	result := r.db.WithContext(ctx).Model(&postModel{}).Where("id = ?", postID).Updates(map[string]any{
		"trigger_condition":     cfg.Condition,
		"trigger_comparison":    cfg.Comparison,
		"trigger_threshold":     cfg.Threshold,
		"trigger_action_prompt": cfg.ActionPrompt,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgError.NotFoundError("post not found")
	}
	return nil
}

func (r *ContentGormRepository) ClearTrigger(ctx context.Context, postID string) error {
	result := r.db.WithContext(ctx).Model(&postModel{}).Where("id = ?", postID).Updates(map[string]any{
		"trigger_condition":     sql.NullString{},
		"trigger_comparison":    sql.NullString{},
		"trigger_threshold":     sql.NullInt64{},
		"trigger_action_prompt": sql.NullString{},
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgError.NotFoundError("post not found")
	}
	return nil
}

// FinalizeRegeneration is the pipeline's last step: back to draft with the
// trigger disarmed, atomically, so a fired trigger cannot fire again.
func (r *ContentGormRepository) FinalizeRegeneration(ctx context.Context, postID string) error {
	result := r.db.WithContext(ctx).Model(&postModel{}).Where("id = ?", postID).Updates(map[string]any{
		"status":                string(domain.PostStatusDraft),
		"trigger_condition":     sql.NullString{},
		"trigger_comparison":    sql.NullString{},
		"trigger_threshold":     sql.NullInt64{},
		"trigger_action_prompt": sql.NullString{},
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgError.NotFoundError("post not found")
	}
	return nil
}

// --- Variants ---

// InsertVariant writes a new row and, when it is current, flips the previous
// current row for the same slot off inside the same transaction. History
// stays append-only; only the is_current flag moves.
func (r *ContentGormRepository) InsertVariant(ctx context.Context, variant *domain.ContentVariant) error {
	if !domain.IsValidVariantSlot(variant.Slot) {
		return pkgError.ValidationError("slot: must be A or B.")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if variant.IsCurrent {
			err := tx.Model(&variantModel{}).
				Where("post_id = ? AND slot = ? AND is_current = ?", variant.PostID, variant.Slot, true).
				Update("is_current", false).Error
			if err != nil {
				return err
			}
		}
		model := toVariantModel(*variant)
		return tx.Create(&model).Error
	})
}

func (r *ContentGormRepository) ListVariants(ctx context.Context, postID string, onlyCurrent bool) ([]domain.ContentVariant, error) {
	query := r.db.WithContext(ctx).Where("post_id = ?", postID)
	if onlyCurrent {
		query = query.Where("is_current = ?", true)
	}

	var models []variantModel
	if err := query.Order("slot ASC, created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.ContentVariant, len(models))
	for i, m := range models {
		res[i] = fromVariantModel(m)
	}
	return res, nil
}
