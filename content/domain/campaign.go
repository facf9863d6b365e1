package domain

import "time"

type CampaignPhase string

const (
	PhasePlanning        CampaignPhase = "planning"
	PhaseContentCreation CampaignPhase = "content_creation"
	PhaseScheduled       CampaignPhase = "scheduled"
	PhaseActive          CampaignPhase = "active"
	PhaseAnalyzing       CampaignPhase = "analyzing"
	PhaseCompleted       CampaignPhase = "completed"
)

// phaseOrder defines the forward progression of a campaign lifecycle.
var phaseOrder = map[CampaignPhase]int{
	PhasePlanning:        0,
	PhaseContentCreation: 1,
	PhaseScheduled:       2,
	PhaseActive:          3,
	PhaseAnalyzing:       4,
	PhaseCompleted:       5,
}

// IsValidPhase reports whether the given value is a known campaign phase.
func IsValidPhase(phase CampaignPhase) bool {
	_, ok := phaseOrder[phase]
	return ok
}

// CanTransition allows forward movement plus the active<->analyzing loop.
// Campaigns never move backwards past "active".
func CanTransition(from, to CampaignPhase) bool {
	fromIdx, okFrom := phaseOrder[from]
	toIdx, okTo := phaseOrder[to]
	if !okFrom || !okTo {
		return false
	}
	if from == PhaseAnalyzing && to == PhaseActive {
		return true
	}
	return toIdx > fromIdx
}

type Campaign struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Phase       CampaignPhase `json:"phase"`
	Strategy    string        `json:"strategy,omitempty"`
	SourceURL   string        `json:"source_url,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
