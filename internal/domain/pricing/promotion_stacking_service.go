package pricing

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/erp/pricing/internal/domain/shared"
	"github.com/google/uuid"
)

// PromotionStackingService enforces the one-promotion-per-order rule and
// ranks competing promotions
type PromotionStackingService struct {
	publisher shared.EventPublisher
}

// NewPromotionStackingService creates a new PromotionStackingService
func NewPromotionStackingService(publisher shared.EventPublisher) *PromotionStackingService {
	if publisher == nil {
		publisher = shared.NoopEventPublisher{}
	}
	return &PromotionStackingService{publisher: publisher}
}

// ValidateModifiers fails when more than one promotional discount is present
func (s *PromotionStackingService) ValidateModifiers(ctx context.Context, modifiers []PriceModifier, orderID string) error {
	if len(modifiers) <= 1 {
		return nil
	}

	names := make([]string, 0, len(modifiers))
	for _, m := range modifiers {
		if m.IsPromotional() {
			names = append(names, m.Name())
		}
	}
	if len(names) <= 1 {
		return nil
	}

	violation := NewPricingRuleViolatedEvent(PricingRuleViolation{
		RuleID:   uuid.Nil,
		Context:  map[string]any{"modifiers": names},
		Message:  "Multiple promotional discounts applied to the same order",
		Severity: SeverityWarning,
		OrderID:  orderID,
	})
	if err := s.publisher.Publish(ctx, violation); err != nil {
		return fmt.Errorf("failed to publish pricing rule violation: %w", err)
	}
	return shared.NewDomainError(CodeStackingViolation,
		"Only one promotional discount can be applied per order (one-promo-per-order rule)")
}

// ValidateCampaigns fails when more than one currently active, non-exhausted
// discount campaign is present
func (s *PromotionStackingService) ValidateCampaigns(ctx context.Context, campaigns []*PromotionalCampaign, orderID string, now time.Time) error {
	if len(campaigns) <= 1 {
		return nil
	}

	qualifying := make([]*PromotionalCampaign, 0, len(campaigns))
	for _, c := range campaigns {
		if c != nil && c.IsCurrentlyActive(now) && c.IsDiscount() {
			qualifying = append(qualifying, c)
		}
	}
	if len(qualifying) <= 1 {
		return nil
	}

	ids := make([]string, len(qualifying))
	for i, c := range qualifying {
		ids[i] = c.ID.String()
	}
	first := qualifying[0]
	ruleID := uuid.Nil
	if len(first.pricingRules) > 0 {
		ruleID = first.pricingRules[0].ID()
	}

	violation := NewPricingRuleViolatedEvent(PricingRuleViolation{
		TenantID: first.TenantID,
		RuleID:   ruleID,
		Context:  map[string]any{"campaigns": ids},
		Message:  "Multiple promotional campaigns applied to the same order",
		Severity: SeverityWarning,
		OrderID:  orderID,
	})
	if err := s.publisher.Publish(ctx, violation); err != nil {
		return fmt.Errorf("failed to publish pricing rule violation: %w", err)
	}
	return shared.NewDomainError(CodeStackingViolation,
		"Only one promotional campaign can be applied per order (one-promo-per-order rule)")
}

// compareDiscounts orders the larger discount first.
// A percentage beats a fixed amount; otherwise the higher value wins.
func compareDiscounts(a, b PriceModifier) int {
	switch {
	case a.IsPercentage() && !b.IsPercentage():
		return -1
	case !a.IsPercentage() && b.IsPercentage():
		return 1
	}
	return b.Value().Abs().Cmp(a.Value().Abs())
}

// DetermineBestPromotion returns the largest discount. Ties keep input order.
func (s *PromotionStackingService) DetermineBestPromotion(modifiers []PriceModifier) (PriceModifier, bool) {
	eligible := slices.DeleteFunc(slices.Clone(modifiers), func(m PriceModifier) bool {
		return !m.IsDiscount()
	})
	if len(eligible) == 0 {
		return PriceModifier{}, false
	}
	slices.SortStableFunc(eligible, compareDiscounts)
	return eligible[0], true
}

// DetermineBestCampaign returns the campaign with the largest discount. Ties keep input order.
func (s *PromotionStackingService) DetermineBestCampaign(campaigns []*PromotionalCampaign) *PromotionalCampaign {
	eligible := slices.DeleteFunc(slices.Clone(campaigns), func(c *PromotionalCampaign) bool {
		return c == nil || !c.IsDiscount()
	})
	if len(eligible) == 0 {
		return nil
	}
	slices.SortStableFunc(eligible, func(a, b *PromotionalCampaign) int {
		return compareDiscounts(a.priceModifier, b.priceModifier)
	})
	return eligible[0]
}
