package domain

import "time"

// Variant slots. Every post carries exactly these two for A/B testing:
// A is the professional take, B the casual one.
const (
	VariantA = "A"
	VariantB = "B"
)

// VariantSlots returns the slots in persistence order.
func VariantSlots() []string {
	return []string{VariantA, VariantB}
}

func IsValidVariantSlot(slot string) bool {
	return slot == VariantA || slot == VariantB
}

// MaxContentLength is the platform limit for plain-text post content.
const MaxContentLength = 280

type ContentVariant struct {
	ID     string `json:"id"`
	PostID string `json:"post_id"`
	Slot   string `json:"slot"`

	Content   string   `json:"content"`
	Hook      string   `json:"hook,omitempty"`
	Reasoning string   `json:"reasoning,omitempty"`
	Hashtags  []string `json:"hashtags,omitempty"`

	MediaPath string `json:"media_path,omitempty"`
	MediaMIME string `json:"media_mime,omitempty"`

	// IsCurrent marks the variant that represents the slot right now. Each
	// regeneration inserts a fresh current row and flips the previous one off,
	// keeping the full history queryable.
	IsCurrent bool `json:"is_current"`

	CreatedAt time.Time `json:"created_at"`
}
