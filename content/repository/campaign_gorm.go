package repository

import (
	"context"

	"github.com/janushq/janus/content/domain"
	pkgError "github.com/janushq/janus/pkg/error"
	"gorm.io/gorm"
)

func (r *ContentGormRepository) CreateCampaign(ctx context.Context, campaign *domain.Campaign) error {
	model := toCampaignModel(*campaign)
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *ContentGormRepository) GetCampaign(ctx context.Context, id string) (*domain.Campaign, error) {
	var m campaignModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgError.NotFoundError("campaign not found")
		}
		return nil, err
	}
	campaign := fromCampaignModel(m)
	return &campaign, nil
}

func (r *ContentGormRepository) ListCampaigns(ctx context.Context) ([]domain.Campaign, error) {
	var models []campaignModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Campaign, len(models))
	for i, m := range models {
		res[i] = fromCampaignModel(m)
	}
	return res, nil
}

func (r *ContentGormRepository) UpdateCampaignPhase(ctx context.Context, id string, phase domain.CampaignPhase) error {
	result := r.db.WithContext(ctx).Model(&campaignModel{}).
		Where("id = ?", id).
		Update("phase", string(phase))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgError.NotFoundError("campaign not found")
	}
	return nil
}

func (r *ContentGormRepository) UpdateCampaignStrategy(ctx context.Context, id, strategy string) error {
	result := r.db.WithContext(ctx).Model(&campaignModel{}).
		Where("id = ?", id).
		Update("strategy", nullString(strategy))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgError.NotFoundError("campaign not found")
	}
	return nil
}

// DeleteCampaign removes the campaign with its posts, variants and metrics.
func (r *ContentGormRepository) DeleteCampaign(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var posts []postModel
		if err := tx.Select("id").Find(&posts, "campaign_id = ?", id).Error; err != nil {
			return err
		}
		for _, p := range posts {
			if err := tx.Delete(&variantModel{}, "post_id = ?", p.ID).Error; err != nil {
				return err
			}
			if err := tx.Delete(&metricModel{}, "post_id = ?", p.ID).Error; err != nil {
				return err
			}
		}
		if err := tx.Delete(&postModel{}, "campaign_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&campaignModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return pkgError.NotFoundError("campaign not found")
		}
		return nil
	})
}
