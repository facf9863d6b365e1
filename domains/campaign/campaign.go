package campaign

import (
	"context"

	"github.com/janushq/janus/content/domain"
)

type CreateCampaignRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	// SourceURL optionally points at a reference page whose text is extracted
	// and stored as the campaign's strategy context.
	SourceURL string `json:"source_url"`
}

type UpdatePhaseRequest struct {
	Phase string `json:"phase"`
}

type RegenerateStrategyRequest struct {
	// Directive optionally steers the planner ("focus on developer
	// communities", "drop the paid channels").
	Directive string `json:"directive"`
}

type ICampaignUsecase interface {
	Create(ctx context.Context, req CreateCampaignRequest) (domain.Campaign, error)
	List(ctx context.Context) ([]domain.Campaign, error)
	GetByID(ctx context.Context, id string) (domain.Campaign, error)
	UpdatePhase(ctx context.Context, id string, phase domain.CampaignPhase) (domain.Campaign, error)
	// RegenerateStrategy replans the campaign strategy brief with the AI
	// planner, re-reading the source URL when one is stored.
	RegenerateStrategy(ctx context.Context, id string, req RegenerateStrategyRequest) (domain.Campaign, error)
	Delete(ctx context.Context, id string) error
}
