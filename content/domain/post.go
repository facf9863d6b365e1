package domain

import "time"

type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusScheduled PostStatus = "scheduled"
	PostStatusPublished PostStatus = "published"
	PostStatusAnalyzed  PostStatus = "analyzed"
)

func IsValidPostStatus(status PostStatus) bool {
	switch status {
	case PostStatusDraft, PostStatusScheduled, PostStatusPublished, PostStatusAnalyzed:
		return true
	}
	return false
}

type Post struct {
	ID         string     `json:"id"`
	CampaignID string     `json:"campaign_id"`
	Topic      string     `json:"topic"`
	Status     PostStatus `json:"status"`

	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	PostedAt    *time.Time `json:"posted_at,omitempty"`

	// Trigger is nil when no trigger is armed. Triggers are all-or-nothing:
	// a post either carries a complete config or none at all.
	Trigger *TriggerConfig `json:"trigger,omitempty"`

	Variants []ContentVariant `json:"variants,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EligibleForTriggerCheck reports whether the evaluator should consider this
// post: published, with a real posted_at, and a complete trigger armed.
func (p *Post) EligibleForTriggerCheck() bool {
	return p.Status == PostStatusPublished &&
		p.PostedAt != nil &&
		p.Trigger != nil && p.Trigger.Complete()
}
