package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/janushq/janus/content/domain"
	domainCampaign "github.com/janushq/janus/domains/campaign"
	"github.com/janushq/janus/integrations/gemini"
	pkgError "github.com/janushq/janus/pkg/error"
	"github.com/janushq/janus/pkg/webextract"
	"github.com/janushq/janus/validations"
)

type serviceCampaign struct {
	repo    domain.ContentRepository
	planner *gemini.StrategyPlanner
}

// NewCampaignService builds the campaign usecase. The planner may be nil;
// campaigns then keep raw reference text as their strategy context.
func NewCampaignService(repo domain.ContentRepository, planner *gemini.StrategyPlanner) domainCampaign.ICampaignUsecase {
	return &serviceCampaign{repo: repo, planner: planner}
}

func (service *serviceCampaign) Create(ctx context.Context, req domainCampaign.CreateCampaignRequest) (domain.Campaign, error) {
	if err := validations.ValidateCreateCampaign(ctx, req); err != nil {
		return domain.Campaign{}, err
	}

	now := time.Now().UTC()
	campaign := domain.Campaign{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Phase:       domain.PhasePlanning,
		SourceURL:   strings.TrimSpace(req.SourceURL),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// A reference page seeds the strategy context used by content prompts.
	// Fetch failures are not fatal: the campaign is still created.
	referenceText := ""
	if campaign.SourceURL != "" {
		page, err := webextract.FetchText(ctx, campaign.SourceURL)
		if err != nil {
			logrus.WithError(err).Warnf("[CAMPAIGN] could not extract strategy source %s", campaign.SourceURL)
		} else {
			referenceText = page.Text
			campaign.Strategy = referenceText
			logrus.Infof("[CAMPAIGN] seeded strategy for %q from %s (%d chars)", campaign.Name, campaign.SourceURL, len(page.Text))
		}
	}

	// The planner condenses the reference into a phased brief. Planner
	// failures keep the raw text so creation never blocks on the model.
	if brief, err := service.planStrategy(ctx, campaign, referenceText, ""); err == nil {
		campaign.Strategy = brief
	}

	if err := service.repo.CreateCampaign(ctx, &campaign); err != nil {
		return domain.Campaign{}, err
	}
	return campaign, nil
}

func (service *serviceCampaign) List(ctx context.Context) ([]domain.Campaign, error) {
	return service.repo.ListCampaigns(ctx)
}

func (service *serviceCampaign) GetByID(ctx context.Context, id string) (domain.Campaign, error) {
	campaign, err := service.repo.GetCampaign(ctx, id)
	if err != nil {
		return domain.Campaign{}, err
	}
	return *campaign, nil
}

func (service *serviceCampaign) UpdatePhase(ctx context.Context, id string, phase domain.CampaignPhase) (domain.Campaign, error) {
	if !domain.IsValidPhase(phase) {
		return domain.Campaign{}, pkgError.ValidationError("phase: unknown campaign phase.")
	}

	campaign, err := service.repo.GetCampaign(ctx, id)
	if err != nil {
		return domain.Campaign{}, err
	}
	if !domain.CanTransition(campaign.Phase, phase) {
		return domain.Campaign{}, pkgError.ValidationError("phase: cannot move from " + string(campaign.Phase) + " to " + string(phase) + ".")
	}

	if err := service.repo.UpdateCampaignPhase(ctx, id, phase); err != nil {
		return domain.Campaign{}, err
	}
	campaign.Phase = phase
	return *campaign, nil
}

func (service *serviceCampaign) RegenerateStrategy(ctx context.Context, id string, req domainCampaign.RegenerateStrategyRequest) (domain.Campaign, error) {
	if service.planner == nil {
		return domain.Campaign{}, pkgError.UpstreamError("strategy planner is not configured")
	}

	campaign, err := service.repo.GetCampaign(ctx, id)
	if err != nil {
		return domain.Campaign{}, err
	}

	referenceText := ""
	if campaign.SourceURL != "" {
		page, err := webextract.FetchText(ctx, campaign.SourceURL)
		if err != nil {
			logrus.WithError(err).Warnf("[CAMPAIGN] could not re-read strategy source %s", campaign.SourceURL)
		} else {
			referenceText = page.Text
		}
	}

	brief, err := service.planStrategy(ctx, *campaign, referenceText, req.Directive)
	if err != nil {
		return domain.Campaign{}, err
	}

	if err := service.repo.UpdateCampaignStrategy(ctx, id, brief); err != nil {
		return domain.Campaign{}, err
	}
	campaign.Strategy = brief
	return *campaign, nil
}

func (service *serviceCampaign) planStrategy(ctx context.Context, campaign domain.Campaign, referenceText, directive string) (string, error) {
	if service.planner == nil {
		return "", pkgError.UpstreamError("strategy planner is not configured")
	}

	brief, err := service.planner.PlanStrategy(ctx, gemini.StrategyInput{
		CampaignName:  campaign.Name,
		Description:   campaign.Description,
		ReferenceText: referenceText,
		Directive:     directive,
	})
	if err != nil {
		logrus.WithError(err).Warnf("[CAMPAIGN] strategy planning failed for %q", campaign.Name)
		return "", err
	}
	return brief, nil
}

func (service *serviceCampaign) Delete(ctx context.Context, id string) error {
	return service.repo.DeleteCampaign(ctx, id)
}
