package pricing

import (
	"context"

	"github.com/erp/pricing/internal/domain/pricing"
)

// TierMarkupStrategy prices at cost multiplied by the tier markup without discounts
type TierMarkupStrategy struct {
	pricing.BaseStrategy
}

// NewTierMarkupStrategy creates a new tier markup strategy
func NewTierMarkupStrategy() *TierMarkupStrategy {
	return &TierMarkupStrategy{
		BaseStrategy: pricing.NewBaseStrategy(
			pricing.StrategyIDTierMarkup,
			"Tier Markup",
			pricing.StrategyTypeMarkup,
			"Cost multiplied by the customer tier markup",
		),
	}
}

// Calculate returns the tier list price
func (s *TierMarkupStrategy) Calculate(ctx context.Context, pc pricing.PricingContext) (pricing.StrategyQuote, error) {
	list := pc.ListPrice()
	return pricing.StrategyQuote{UnitPrice: list, BaseUnitPrice: list}, nil
}
