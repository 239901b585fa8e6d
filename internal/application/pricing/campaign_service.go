package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/erp/pricing/internal/infrastructure/logger"
	"github.com/erp/pricing/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CampaignService manages the promotional campaign lifecycle
type CampaignService struct {
	repo      pricing.PromotionalCampaignRepository
	publisher shared.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewCampaignService creates a new CampaignService
func NewCampaignService(repo pricing.PromotionalCampaignRepository, publisher shared.EventPublisher, logger *zap.Logger) *CampaignService {
	if publisher == nil {
		publisher = shared.NoopEventPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CampaignService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the clock used for activation checks
func (s *CampaignService) WithClock(now func() time.Time) *CampaignService {
	s.now = now
	return s
}

// CreateCampaign creates a campaign in DRAFT. When no rules are given the
// campaign gets a single rule that always matches.
func (s *CampaignService) CreateCampaign(ctx context.Context, tenantID uuid.UUID, req CreateCampaignRequest) (*CampaignResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "campaign", "create")
	defer span.End()

	tiers, err := pricing.TiersFromTypes(req.ApplicableTiers)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	modifier, err := buildModifier(req.Modifier)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	rules, err := buildRules(req, modifier, tiers)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	campaign, err := pricing.NewPromotionalCampaign(pricing.PromotionalCampaignParams{
		TenantID:        tenantID,
		Name:            req.Name,
		Description:     req.Description,
		Type:            req.Type,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		ApplicableTiers: tiers,
		PriceModifier:   modifier,
		PricingRules:    rules,
		ProductIDs:      req.ProductIDs,
		CategoryIDs:     req.CategoryIDs,
		MaxUsageCount:   req.MaxUsageCount,
		Code:            req.Code,
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if userID, err := uuid.Parse(logger.GetUserID(ctx)); err == nil {
		campaign.SetCreatedBy(userID)
	}

	if err := s.save(ctx, campaign); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrCampaignID, campaign.ID)
	telemetry.SetOK(span)

	s.logger.Info("Promotional campaign created",
		zap.String("campaign_id", campaign.ID.String()),
		zap.String("name", campaign.Name()),
		zap.String("code", campaign.Code()),
	)
	resp := ToCampaignResponse(campaign)
	return &resp, nil
}

// GetCampaign returns a campaign by ID
func (s *CampaignService) GetCampaign(ctx context.Context, id uuid.UUID) (*CampaignResponse, error) {
	campaign, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToCampaignResponse(campaign)
	return &resp, nil
}

// ListActiveCampaigns returns the campaigns currently running
func (s *CampaignService) ListActiveCampaigns(ctx context.Context) ([]CampaignResponse, error) {
	campaigns, err := s.repo.FindActive(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to list active campaigns: %w", err)
	}
	return ToCampaignResponses(campaigns), nil
}

// ActivateCampaign moves a campaign to ACTIVE
func (s *CampaignService) ActivateCampaign(ctx context.Context, id uuid.UUID) (*CampaignResponse, error) {
	return s.transition(ctx, id, "activate", func(c *pricing.PromotionalCampaign) error {
		return c.Activate(s.now())
	})
}

// ScheduleCampaign moves a draft campaign to SCHEDULED
func (s *CampaignService) ScheduleCampaign(ctx context.Context, id uuid.UUID) (*CampaignResponse, error) {
	return s.transition(ctx, id, "schedule", (*pricing.PromotionalCampaign).Schedule)
}

// PauseCampaign moves an active campaign to PAUSED
func (s *CampaignService) PauseCampaign(ctx context.Context, id uuid.UUID) (*CampaignResponse, error) {
	return s.transition(ctx, id, "pause", (*pricing.PromotionalCampaign).Pause)
}

// CompleteCampaign moves a campaign to COMPLETED
func (s *CampaignService) CompleteCampaign(ctx context.Context, id uuid.UUID) (*CampaignResponse, error) {
	return s.transition(ctx, id, "complete", (*pricing.PromotionalCampaign).Complete)
}

// CancelCampaign moves a campaign to CANCELLED
func (s *CampaignService) CancelCampaign(ctx context.Context, id uuid.UUID) (*CampaignResponse, error) {
	return s.transition(ctx, id, "cancel", (*pricing.PromotionalCampaign).Cancel)
}

func (s *CampaignService) transition(ctx context.Context, id uuid.UUID, action string, apply func(*pricing.PromotionalCampaign) error) (*CampaignResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "campaign", action,
		telemetry.WithAttribute(telemetry.SpanAttrCampaignID, id.String()),
	)
	defer span.End()

	campaign, err := s.repo.FindByID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	from := campaign.Status()
	if err := apply(campaign); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.save(ctx, campaign); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetOK(span)

	s.logger.Info("Promotional campaign status changed",
		zap.String("campaign_id", id.String()),
		zap.String("from", string(from)),
		zap.String("to", string(campaign.Status())),
	)
	resp := ToCampaignResponse(campaign)
	return &resp, nil
}

// save persists the campaign and then publishes its pending events
func (s *CampaignService) save(ctx context.Context, campaign *pricing.PromotionalCampaign) error {
	if err := s.repo.Save(ctx, campaign); err != nil {
		return err
	}
	events := campaign.PullDomainEvents()
	if len(events) == 0 {
		return nil
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish campaign events",
			zap.String("campaign_id", campaign.ID.String()),
			zap.Int("events", len(events)),
			zap.Error(err),
		)
	}
	return nil
}

func buildModifier(req PriceModifierRequest) (pricing.PriceModifier, error) {
	params := pricing.PriceModifierParams{
		Type:        req.Type,
		Name:        req.Name,
		Description: req.Description,
		Value:       req.Value,
		Priority:    req.Priority,
	}
	if req.Type == pricing.ModifierFixedDiscount || req.Type == pricing.ModifierFixedSurcharge {
		params.Currency = resolveCurrency(req.Currency)
	}
	return pricing.NewPriceModifier(params)
}

func buildRules(req CreateCampaignRequest, modifier pricing.PriceModifier, tiers []pricing.PricingTier) ([]*pricing.PricingRule, error) {
	if len(req.Rules) == 0 {
		rule, err := pricing.NewPricingRule(pricing.PricingRuleParams{
			Name:            req.Name,
			Description:     "Applies to every qualifying purchase",
			Conditions:      []pricing.RuleCondition{pricing.NewRuleCondition(pricing.ConditionMinimumQuantity, pricing.OperatorGreaterOrEqual, "1")},
			PriceModifier:   modifier,
			ApplicableTiers: tiers,
			ValidFrom:       req.StartDate,
			ValidTo:         req.EndDate,
		})
		if err != nil {
			return nil, err
		}
		return []*pricing.PricingRule{rule}, nil
	}

	rules := make([]*pricing.PricingRule, 0, len(req.Rules))
	for _, r := range req.Rules {
		conditions := make([]pricing.RuleCondition, 0, len(r.Conditions))
		for _, c := range r.Conditions {
			conditions = append(conditions, pricing.NewRuleCondition(c.Type, c.Operator, c.Values...))
		}
		rule, err := pricing.NewPricingRule(pricing.PricingRuleParams{
			Name:            r.Name,
			Description:     r.Description,
			Conditions:      conditions,
			PriceModifier:   modifier,
			ApplicableTiers: tiers,
			Priority:        r.Priority,
			ValidFrom:       req.StartDate,
			ValidTo:         req.EndDate,
		})
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}
