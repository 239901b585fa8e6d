package pricing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/erp/pricing/internal/domain/shared"
)

// FreezeReasonConsecutiveBreaches is recorded when governance freezes a tier automatically
const FreezeReasonConsecutiveBreaches = "Margin floor breached for two consecutive weeks"

// FreezeStatus describes a frozen tier
type FreezeStatus struct {
	Tier     TierType
	Reason   string
	FrozenAt time.Time
}

// ReviewRecord describes the review that lifted a freeze
type ReviewRecord struct {
	Tier       TierType
	Reviewer   string
	Notes      string
	ReviewedAt time.Time
}

// PricingGovernanceService freezes dynamic pricing for tiers that keep
// breaching their margin floor and validates orders against stacking rules
type PricingGovernanceService struct {
	guardRail *MarginGuardRailService
	stacking  *PromotionStackingService
	now       func() time.Time

	mu      sync.RWMutex
	frozen  map[TierType]FreezeStatus
	reviews map[TierType]ReviewRecord
}

// NewPricingGovernanceService creates a new PricingGovernanceService
func NewPricingGovernanceService(guardRail *MarginGuardRailService, stacking *PromotionStackingService) *PricingGovernanceService {
	return &PricingGovernanceService{
		guardRail: guardRail,
		stacking:  stacking,
		now:       time.Now,
		frozen:    make(map[TierType]FreezeStatus),
		reviews:   make(map[TierType]ReviewRecord),
	}
}

// IsDynamicPricingFrozen reports whether dynamic markdowns are suspended for the tier
func (s *PricingGovernanceService) IsDynamicPricingFrozen(tier PricingTier) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.frozen[tier.Type()]
	return ok
}

// FreezeStatus returns the freeze record for the tier, if frozen
func (s *PricingGovernanceService) FreezeStatus(tier PricingTier) (FreezeStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.frozen[tier.Type()]
	return st, ok
}

// LastReview returns the most recent unfreeze review for the tier
func (s *PricingGovernanceService) LastReview(tier PricingTier) (ReviewRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reviews[tier.Type()]
	return r, ok
}

// FreezeDynamicPricing suspends dynamic markdowns for the tier. Freezing an
// already frozen tier keeps the original record.
func (s *PricingGovernanceService) FreezeDynamicPricing(tier PricingTier, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.frozen[tier.Type()]; ok {
		return
	}
	s.frozen[tier.Type()] = FreezeStatus{Tier: tier.Type(), Reason: reason, FrozenAt: s.now()}
}

// UnfreezeDynamicPricing lifts a freeze after review and clears the tier's breach history
func (s *PricingGovernanceService) UnfreezeDynamicPricing(tier PricingTier, reviewer, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.frozen[tier.Type()]; !ok {
		return shared.NewDomainError(CodeInvalidState,
			fmt.Sprintf("Dynamic pricing is not frozen for tier %s", tier.Name()))
	}
	delete(s.frozen, tier.Type())
	s.reviews[tier.Type()] = ReviewRecord{
		Tier:       tier.Type(),
		Reviewer:   reviewer,
		Notes:      notes,
		ReviewedAt: s.now(),
	}
	s.guardRail.ClearViolationHistory(tier)
	return nil
}

// CheckAndUpdateFreezeStatus freezes the tier when the guard rail threshold
// is exceeded and reports whether the tier is frozen afterwards
func (s *PricingGovernanceService) CheckAndUpdateFreezeStatus(tier PricingTier, now time.Time) bool {
	if s.guardRail.HasTierExceededViolationThreshold(tier, now) {
		s.FreezeDynamicPricing(tier, FreezeReasonConsecutiveBreaches)
	}
	return s.IsDynamicPricingFrozen(tier)
}

// RunGovernanceCheck evaluates every tier and returns those frozen afterwards
func (s *PricingGovernanceService) RunGovernanceCheck(now time.Time) []TierType {
	frozen := make([]TierType, 0)
	for _, t := range AllTierTypes() {
		if s.CheckAndUpdateFreezeStatus(MustPricingTier(t), now) {
			frozen = append(frozen, t)
		}
	}
	return frozen
}

// ValidateOrder checks the order's modifiers against the stacking rules
func (s *PricingGovernanceService) ValidateOrder(ctx context.Context, orderID string, modifiers []PriceModifier) error {
	return s.stacking.ValidateModifiers(ctx, modifiers, orderID)
}

// RecommendCampaign picks the campaign a customer benefits from most, or nil
func (s *PricingGovernanceService) RecommendCampaign(campaigns []*PromotionalCampaign) *PromotionalCampaign {
	return s.stacking.DetermineBestCampaign(campaigns)
}
