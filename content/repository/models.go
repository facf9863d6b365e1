package repository

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/janushq/janus/content/domain"
	"github.com/sirupsen/logrus"
)

// --- Persistence Models ---

type campaignModel struct {
	ID          string         `gorm:"primaryKey;column:id"`
	Name        string         `gorm:"column:name;not null"`
	Description sql.NullString `gorm:"column:description"`
	Phase       string         `gorm:"column:phase;not null;default:'planning'"`
	Strategy    sql.NullString `gorm:"column:strategy;type:text"`
	SourceURL   sql.NullString `gorm:"column:source_url"`
	CreatedAt   time.Time      `gorm:"column:created_at;not null"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;not null"`
}

func (campaignModel) TableName() string { return "campaigns" }

type postModel struct {
	ID          string     `gorm:"primaryKey;column:id"`
	CampaignID  string     `gorm:"column:campaign_id;not null;index"`
	Topic       string     `gorm:"column:topic;not null"`
	Status      string     `gorm:"column:status;not null;default:'draft';index"`
	ScheduledAt *time.Time `gorm:"column:scheduled_at"`
	PostedAt    *time.Time `gorm:"column:posted_at"`

	// The four trigger columns are written together or nulled together.
	TriggerCondition    sql.NullString `gorm:"column:trigger_condition"`
	TriggerComparison   sql.NullString `gorm:"column:trigger_comparison"`
	TriggerThreshold    sql.NullInt64  `gorm:"column:trigger_threshold"`
	TriggerActionPrompt sql.NullString `gorm:"column:trigger_action_prompt;type:text"`

	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (postModel) TableName() string { return "posts" }

type variantModel struct {
	ID        string         `gorm:"primaryKey;column:id"`
	PostID    string         `gorm:"column:post_id;not null;index;index:idx_variant_post_slot"`
	Slot      string         `gorm:"column:slot;not null;index:idx_variant_post_slot"`
	Content   string         `gorm:"column:content;not null;type:text"`
	Hook      sql.NullString `gorm:"column:hook"`
	Reasoning sql.NullString `gorm:"column:reasoning;type:text"`
	Hashtags  sql.NullString `gorm:"column:hashtags"` // JSON
	MediaPath sql.NullString `gorm:"column:media_path"`
	MediaMIME sql.NullString `gorm:"column:media_mime"`
	IsCurrent bool           `gorm:"column:is_current;not null;default:false;index:idx_variant_post_slot"`
	CreatedAt time.Time      `gorm:"column:created_at;not null"`
}

func (variantModel) TableName() string { return "content_variants" }

type metricModel struct {
	PostID       string         `gorm:"primaryKey;column:post_id"`
	LikesA       int64          `gorm:"column:likes_a;not null;default:0"`
	LikesB       int64          `gorm:"column:likes_b;not null;default:0"`
	RetweetsA    int64          `gorm:"column:retweets_a;not null;default:0"`
	RetweetsB    int64          `gorm:"column:retweets_b;not null;default:0"`
	ImpressionsA int64          `gorm:"column:impressions_a;not null;default:0"`
	ImpressionsB int64          `gorm:"column:impressions_b;not null;default:0"`
	CommentsA    int64          `gorm:"column:comments_a;not null;default:0"`
	CommentsB    int64          `gorm:"column:comments_b;not null;default:0"`
	CommentListA sql.NullString `gorm:"column:comment_list_a;type:text"` // JSON
	CommentListB sql.NullString `gorm:"column:comment_list_b;type:text"` // JSON
	ExternalIDA  sql.NullString `gorm:"column:external_id_a"`
	ExternalIDB  sql.NullString `gorm:"column:external_id_b"`
	RefreshedAt  time.Time      `gorm:"column:refreshed_at"`
}

func (metricModel) TableName() string { return "post_metrics" }

// --- Mappers ---

func toCampaignModel(c domain.Campaign) campaignModel {
	return campaignModel{
		ID:          c.ID,
		Name:        c.Name,
		Description: nullString(c.Description),
		Phase:       string(c.Phase),
		Strategy:    nullString(c.Strategy),
		SourceURL:   nullString(c.SourceURL),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func fromCampaignModel(m campaignModel) domain.Campaign {
	return domain.Campaign{
		ID:          m.ID,
		Name:        m.Name,
		Description: nullStringValue(m.Description),
		Phase:       domain.CampaignPhase(m.Phase),
		Strategy:    nullStringValue(m.Strategy),
		SourceURL:   nullStringValue(m.SourceURL),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func toPostModel(p domain.Post) postModel {
	m := postModel{
		ID:          p.ID,
		CampaignID:  p.CampaignID,
		Topic:       p.Topic,
		Status:      string(p.Status),
		ScheduledAt: p.ScheduledAt,
		PostedAt:    p.PostedAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Trigger != nil && p.Trigger.Complete() {
		m.TriggerCondition = nullString(p.Trigger.Condition)
		m.TriggerComparison = nullString(p.Trigger.Comparison)
		m.TriggerThreshold = sql.NullInt64{Int64: int64(p.Trigger.Threshold), Valid: true}
		m.TriggerActionPrompt = nullString(p.Trigger.ActionPrompt)
	}
	return m
}

func fromPostModel(m postModel) domain.Post {
	return domain.Post{
		ID:          m.ID,
		CampaignID:  m.CampaignID,
		Topic:       m.Topic,
		Status:      domain.PostStatus(m.Status),
		ScheduledAt: m.ScheduledAt,
		PostedAt:    m.PostedAt,
		Trigger:     triggerFromModel(m),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// triggerFromModel reconstructs the trigger sum type. Rows with only some of
// the trigger columns set are treated as no trigger at all; a half-written
// config must never reach the evaluator.
func triggerFromModel(m postModel) *domain.TriggerConfig {
	if !m.TriggerCondition.Valid && !m.TriggerComparison.Valid && !m.TriggerThreshold.Valid && !m.TriggerActionPrompt.Valid {
		return nil
	}
	cfg := domain.TriggerConfig{
		Condition:    nullStringValue(m.TriggerCondition),
		Comparison:   nullStringValue(m.TriggerComparison),
		Threshold:    int(m.TriggerThreshold.Int64),
		ActionPrompt: nullStringValue(m.TriggerActionPrompt),
	}
	if !m.TriggerThreshold.Valid || !cfg.Complete() {
		logrus.Warnf("[CONTENT] post %s has an incomplete trigger config stored, ignoring it", m.ID)
		return nil
	}
	return &cfg
}

func toVariantModel(v domain.ContentVariant) variantModel {
	var hashtags sql.NullString
	if len(v.Hashtags) > 0 {
		data, _ := json.Marshal(v.Hashtags)
		hashtags = sql.NullString{String: string(data), Valid: true}
	}
	return variantModel{
		ID:        v.ID,
		PostID:    v.PostID,
		Slot:      v.Slot,
		Content:   v.Content,
		Hook:      nullString(v.Hook),
		Reasoning: nullString(v.Reasoning),
		Hashtags:  hashtags,
		MediaPath: nullString(v.MediaPath),
		MediaMIME: nullString(v.MediaMIME),
		IsCurrent: v.IsCurrent,
		CreatedAt: v.CreatedAt,
	}
}

func fromVariantModel(m variantModel) domain.ContentVariant {
	var hashtags []string
	if raw := nullStringValue(m.Hashtags); raw != "" && raw != "null" {
		_ = json.Unmarshal([]byte(raw), &hashtags)
	}
	return domain.ContentVariant{
		ID:        m.ID,
		PostID:    m.PostID,
		Slot:      m.Slot,
		Content:   m.Content,
		Hook:      nullStringValue(m.Hook),
		Reasoning: nullStringValue(m.Reasoning),
		Hashtags:  hashtags,
		MediaPath: nullStringValue(m.MediaPath),
		MediaMIME: nullStringValue(m.MediaMIME),
		IsCurrent: m.IsCurrent,
		CreatedAt: m.CreatedAt,
	}
}

func toMetricModel(rec domain.MetricRecord) metricModel {
	return metricModel{
		PostID:       rec.PostID,
		LikesA:       rec.A.Likes,
		LikesB:       rec.B.Likes,
		RetweetsA:    rec.A.Retweets,
		RetweetsB:    rec.B.Retweets,
		ImpressionsA: rec.A.Impressions,
		ImpressionsB: rec.B.Impressions,
		CommentsA:    rec.A.Comments,
		CommentsB:    rec.B.Comments,
		CommentListA: commentsToJSON(rec.A.CommentList),
		CommentListB: commentsToJSON(rec.B.CommentList),
		ExternalIDA:  nullString(rec.A.ExternalID),
		ExternalIDB:  nullString(rec.B.ExternalID),
		RefreshedAt:  rec.RefreshedAt,
	}
}

func fromMetricModel(m metricModel) domain.MetricRecord {
	return domain.MetricRecord{
		PostID: m.PostID,
		A: domain.VariantMetrics{
			Likes:       m.LikesA,
			Retweets:    m.RetweetsA,
			Impressions: m.ImpressionsA,
			Comments:    m.CommentsA,
			CommentList: commentsFromJSON(m.CommentListA),
			ExternalID:  nullStringValue(m.ExternalIDA),
		},
		B: domain.VariantMetrics{
			Likes:       m.LikesB,
			Retweets:    m.RetweetsB,
			Impressions: m.ImpressionsB,
			Comments:    m.CommentsB,
			CommentList: commentsFromJSON(m.CommentListB),
			ExternalID:  nullStringValue(m.ExternalIDB),
		},
		RefreshedAt: m.RefreshedAt,
	}
}

func commentsToJSON(comments []domain.Comment) sql.NullString {
	if len(comments) == 0 {
		return sql.NullString{String: "[]", Valid: true}
	}
	data, _ := json.Marshal(comments)
	return sql.NullString{String: string(data), Valid: true}
}

func commentsFromJSON(ns sql.NullString) []domain.Comment {
	raw := nullStringValue(ns)
	if raw == "" || raw == "null" {
		return []domain.Comment{}
	}
	var comments []domain.Comment
	if err := json.Unmarshal([]byte(raw), &comments); err != nil {
		logrus.WithError(err).Warn("[CONTENT] failed to decode stored comment list")
		return []domain.Comment{}
	}
	return comments
}
