package domain

import "time"

// Comment is one platform comment on a published variant.
type Comment struct {
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// VariantMetrics holds the engagement counters for one variant slot.
type VariantMetrics struct {
	Likes       int64     `json:"likes"`
	Retweets    int64     `json:"retweets"`
	Impressions int64     `json:"impressions"`
	Comments    int64     `json:"comments"`
	CommentList []Comment `json:"comment_list"`

	// ExternalID is the platform's post ID for this variant, assigned when
	// the post goes live. Empty until then.
	ExternalID string `json:"external_id,omitempty"`
}

// MetricRecord is the per-post engagement snapshot. Both variant keys are
// always present: a post without engagement still serializes zero counters
// for A and B, never a partial map.
type MetricRecord struct {
	PostID      string         `json:"post_id"`
	A           VariantMetrics `json:"A"`
	B           VariantMetrics `json:"B"`
	RefreshedAt time.Time      `json:"refreshed_at"`
}

// Variant returns the metrics for a slot.
func (m *MetricRecord) Variant(slot string) (VariantMetrics, bool) {
	switch slot {
	case VariantA:
		return m.A, true
	case VariantB:
		return m.B, true
	}
	return VariantMetrics{}, false
}

// Value returns the named counter for a slot.
func (m *MetricRecord) Value(slot, metric string) (int64, bool) {
	vm, ok := m.Variant(slot)
	if !ok {
		return 0, false
	}
	switch metric {
	case MetricLikes:
		return vm.Likes, true
	case MetricRetweets:
		return vm.Retweets, true
	case MetricImpressions:
		return vm.Impressions, true
	case MetricComments:
		return vm.Comments, true
	}
	return 0, false
}
