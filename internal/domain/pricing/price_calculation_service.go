package pricing

import (
	"context"
	"fmt"
	"slices"

	"github.com/erp/pricing/internal/domain/shared"
	"github.com/erp/pricing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// priceChangeThreshold is the smallest unit price movement reported as a PriceChanged event
var priceChangeThreshold = decimal.RequireFromString("0.001")

// PriceBreakdown is the result of pricing a single line
type PriceBreakdown struct {
	CalculationID      uuid.UUID
	StrategyID         string
	Currency           valueobject.Currency
	UnitPrice          valueobject.Money
	BaseUnitPrice      valueobject.Money
	TotalPrice         valueobject.Money
	DiscountAmount     valueobject.Money
	DiscountPercentage decimal.Decimal
	AppliedPromotions  []string
	StrategyNotes      []string
}

// PriceCalculationService prices a line with a strategy and then applies
// rule and explicit modifiers in ascending priority
type PriceCalculationService struct {
	registry  StrategyRegistry
	publisher shared.EventPublisher
}

// NewPriceCalculationService creates a new PriceCalculationService
func NewPriceCalculationService(registry StrategyRegistry, publisher shared.EventPublisher) *PriceCalculationService {
	if publisher == nil {
		publisher = shared.NoopEventPublisher{}
	}
	return &PriceCalculationService{registry: registry, publisher: publisher}
}

// RegisterStrategy adds a strategy to the underlying registry
func (s *PriceCalculationService) RegisterStrategy(strategy PricingStrategy) error {
	return s.registry.Register(strategy)
}

// GetStrategy returns a registered strategy
func (s *PriceCalculationService) GetStrategy(id string) (PricingStrategy, error) {
	if !s.registry.Has(id) {
		return nil, notFoundError("Pricing strategy with ID '%s' not found", id)
	}
	return s.registry.Get(id)
}

// DetermineStrategy picks a strategy from the context:
// subscription, then shelf-life markdown, then volume, then negotiated prices.
// fallback is returned when none applies; an empty fallback means tier markup.
func (s *PriceCalculationService) DetermineStrategy(pc PricingContext, fallback string) string {
	switch {
	case pc.SubscriptionTier != "":
		return StrategyIDTiered
	case pc.DaysRemaining != nil:
		return StrategyIDDynamic
	case pc.Quantity > 10:
		return StrategyIDVolume
	case pc.CustomerID != "" && len(pc.NegotiatedPrices) > 0:
		return StrategyIDNegotiated
	}
	if fallback == "" {
		return DefaultPricingStrategy
	}
	return fallback
}

// CalculatePrice prices the context with the given strategy
func (s *PriceCalculationService) CalculatePrice(ctx context.Context, strategyID string, pc PricingContext) (*PriceBreakdown, error) {
	if err := pc.Validate(); err != nil {
		return nil, err
	}
	if strategyID == "" {
		strategyID = DefaultPricingStrategy
	}
	strategy, err := s.GetStrategy(strategyID)
	if err != nil {
		return nil, err
	}

	quote, err := strategy.Calculate(ctx, pc)
	if err != nil {
		return nil, err
	}

	unit, applied, err := s.ApplyPriceModifiers(quote.UnitPrice, s.collectModifiers(pc))
	if err != nil {
		return nil, err
	}
	unit = unit.Round(2)
	base := quote.BaseUnitPrice.Round(2)

	discount, err := base.Subtract(unit)
	if err != nil {
		return nil, currencyMismatchError(base.Currency(), unit.Currency())
	}
	discountPct := decimal.Zero
	if base.IsPositive() {
		discountPct = discount.Amount().Div(base.Amount()).Mul(hundred).Round(2)
	}

	breakdown := &PriceBreakdown{
		CalculationID:      uuid.New(),
		StrategyID:         strategy.ID(),
		Currency:           unit.Currency(),
		UnitPrice:          unit,
		BaseUnitPrice:      base,
		TotalPrice:         unit.MultiplyByInt(int64(pc.Quantity)),
		DiscountAmount:     discount,
		DiscountPercentage: discountPct,
		AppliedPromotions:  applied,
		StrategyNotes:      slices.Clone(quote.Notes),
	}
	return breakdown, nil
}

// collectModifiers gathers the modifiers of satisfied rules and the explicit
// modifiers, ordered by ascending priority. Ties keep rule modifiers first.
func (s *PriceCalculationService) collectModifiers(pc PricingContext) []PriceModifier {
	ruleCtx := pc.RuleContext
	if ruleCtx.Tier.IsZero() {
		ruleCtx.Tier = pc.Tier
	}
	if ruleCtx.Quantity == 0 {
		ruleCtx.Quantity = pc.Quantity
	}

	modifiers := make([]PriceModifier, 0, len(pc.PricingRules)+len(pc.PriceModifiers))
	for _, rule := range pc.PricingRules {
		if rule != nil && rule.IsSatisfiedBy(ruleCtx) {
			modifiers = append(modifiers, rule.PriceModifier())
		}
	}
	modifiers = append(modifiers, pc.PriceModifiers...)

	slices.SortStableFunc(modifiers, func(a, b PriceModifier) int {
		return a.Priority() - b.Priority()
	})
	return modifiers
}

// ApplyPriceModifiers applies modifiers in the given order and returns the
// adjusted price with a description of each applied modifier
func (s *PriceCalculationService) ApplyPriceModifiers(price valueobject.Money, modifiers []PriceModifier) (valueobject.Money, []string, error) {
	applied := make([]string, 0, len(modifiers))
	current := price
	for _, m := range modifiers {
		if m.WouldDriveNegative(current) {
			return valueobject.Money{}, nil, validationError("Price modifier '%s' would drive the price below zero", m.Name())
		}
		next, err := m.ApplyToPrice(current)
		if err != nil {
			return valueobject.Money{}, nil, err
		}
		current = next
		applied = append(applied, m.String())
	}
	return current, applied, nil
}

// PublishPriceChange announces PriceChanged when the quoted unit price moved
// more than the threshold away from the previous one. Callers publish only
// once the quote has passed every check.
func (s *PriceCalculationService) PublishPriceChange(ctx context.Context, pc PricingContext, b *PriceBreakdown) error {
	prev := pc.PreviousUnitPrice
	if prev == nil || !prev.SameCurrency(b.UnitPrice) {
		return nil
	}
	if b.UnitPrice.Amount().Sub(prev.Amount()).Abs().LessThanOrEqual(priceChangeThreshold) {
		return nil
	}
	event := &PriceChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePriceChanged, AggregateTypePricing, b.CalculationID, uuid.Nil),
		ProductID:       pc.ProductID,
		OldPrice:        prev.Amount(),
		NewPrice:        b.UnitPrice.Amount(),
		Currency:        string(b.Currency),
		StrategyID:      b.StrategyID,
		Tier:            pc.Tier.Type(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		return fmt.Errorf("failed to publish price change: %w", err)
	}
	return nil
}
