package pricing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/erp/pricing/internal/domain/shared"
	"github.com/erp/pricing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// ViolationWindow is the length of one governance observation period
	ViolationWindow = 7 * 24 * time.Hour
	// violationRetention keeps two consecutive windows of history
	violationRetention = 2 * ViolationWindow
)

// MarginCheck describes a quoted line whose margin is checked against its tier floor
type MarginCheck struct {
	Price         valueobject.Money
	Cost          valueobject.Money
	Tier          PricingTier
	ProductID     string
	OrderID       string
	CalculationID uuid.UUID
}

// MarginGuardRailService rejects prices below the tier margin floor and keeps
// a per-tier history of breaches for governance
type MarginGuardRailService struct {
	publisher  shared.EventPublisher
	now        func() time.Time
	mu         sync.Mutex
	violations map[TierType][]time.Time
}

// NewMarginGuardRailService creates a new MarginGuardRailService
func NewMarginGuardRailService(publisher shared.EventPublisher) *MarginGuardRailService {
	if publisher == nil {
		publisher = shared.NoopEventPublisher{}
	}
	return &MarginGuardRailService{
		publisher:  publisher,
		now:        time.Now,
		violations: make(map[TierType][]time.Time),
	}
}

// CalculateMarginPercentage returns (price − cost) / price × 100
func (s *MarginGuardRailService) CalculateMarginPercentage(price, cost valueobject.Money) (decimal.Decimal, error) {
	if !price.SameCurrency(cost) {
		return decimal.Zero, currencyMismatchError(price.Currency(), cost.Currency())
	}
	if !price.IsPositive() {
		return decimal.Zero, validationError("Price must be greater than zero to calculate margin")
	}
	return price.Amount().Sub(cost.Amount()).Div(price.Amount()).Mul(hundred), nil
}

// CheckMargin fails when the gross margin is below floorPercentage
func (s *MarginGuardRailService) CheckMargin(price, cost valueobject.Money, floorPercentage decimal.Decimal) error {
	margin, err := s.CalculateMarginPercentage(price, cost)
	if err != nil {
		return err
	}
	if margin.LessThan(floorPercentage) {
		return shared.NewDomainError(CodeMarginViolation,
			fmt.Sprintf("Margin %s%% is below the floor of %s%%", margin.StringFixed(2), floorPercentage.StringFixed(2)))
	}
	return nil
}

// FloorGrossMargin converts the tier's floor, stated as markup over cost,
// into gross margin terms: m / (100 + m) × 100
func FloorGrossMargin(tier PricingTier) decimal.Decimal {
	m := tier.FloorGrossMarginPercentage()
	return m.Div(hundred.Add(m)).Mul(hundred)
}

// CalculateMinimumSellingPrice returns cost × (1 + floor/100)
func (s *MarginGuardRailService) CalculateMinimumSellingPrice(cost valueobject.Money, tier PricingTier) valueobject.Money {
	return cost.ApplyMarkup(tier.FloorGrossMarginPercentage())
}

// CheckTierMargin checks a quoted price against its tier floor. A breach is
// recorded, published as MarginFloorBreached and returned as MARGIN_VIOLATION.
func (s *MarginGuardRailService) CheckTierMargin(ctx context.Context, check MarginCheck) error {
	if check.Tier.IsZero() {
		return validationError("Pricing tier is required")
	}
	margin, err := s.CalculateMarginPercentage(check.Price, check.Cost)
	if err != nil {
		return err
	}
	minimum := s.CalculateMinimumSellingPrice(check.Cost, check.Tier)
	if !check.Price.Amount().LessThan(minimum.Amount()) {
		return nil
	}

	floor := FloorGrossMargin(check.Tier)
	s.recordViolation(check.Tier.Type(), s.now())

	event := &MarginFloorBreachedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeMarginFloorBreached, AggregateTypePricing, check.CalculationID, uuid.Nil),
		ProductID:        check.ProductID,
		Price:            check.Price.Amount(),
		Cost:             check.Cost.Amount(),
		Currency:         string(check.Price.Currency()),
		CalculatedMargin: margin.Round(2),
		FloorMargin:      floor.Round(2),
		Tier:             check.Tier.Type(),
		CalculationID:    check.CalculationID,
		OrderID:          check.OrderID,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		return fmt.Errorf("failed to publish margin floor breach: %w", err)
	}

	return shared.NewDomainError(CodeMarginViolation,
		fmt.Sprintf("Price %s is below the minimum selling price %s for tier %s (margin %s%% < floor %s%%)",
			check.Price.Round(2), minimum.Round(2), check.Tier.Name(), margin.StringFixed(2), floor.StringFixed(2)))
}

func (s *MarginGuardRailService) recordViolation(tier TierType, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := at.Add(-violationRetention)
	kept := s.violations[tier][:0]
	for _, t := range s.violations[tier] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	s.violations[tier] = append(kept, at)
}

func (s *MarginGuardRailService) countBetween(tier TierType, from, to time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, t := range s.violations[tier] {
		if t.After(from) && !t.After(to) {
			n++
		}
	}
	return n
}

// GetRecentViolationCount returns the number of breaches within window before now
func (s *MarginGuardRailService) GetRecentViolationCount(tier PricingTier, window time.Duration, now time.Time) int {
	return s.countBetween(tier.Type(), now.Add(-window), now)
}

// HasTierExceededViolationThreshold reports breaches in both the last seven
// days and the seven days before that
func (s *MarginGuardRailService) HasTierExceededViolationThreshold(tier PricingTier, now time.Time) bool {
	weekAgo := now.Add(-ViolationWindow)
	current := s.countBetween(tier.Type(), weekAgo, now)
	previous := s.countBetween(tier.Type(), weekAgo.Add(-ViolationWindow), weekAgo)
	return current > 0 && previous > 0
}

// ClearViolationHistory forgets all breaches recorded for the tier
func (s *MarginGuardRailService) ClearViolationHistory(tier PricingTier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.violations, tier.Type())
}
