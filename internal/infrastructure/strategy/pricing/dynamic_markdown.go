package pricing

import (
	"context"
	"fmt"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DynamicMarkdownStrategy marks down perishable stock as it nears expiry,
// weighted by demand and profitability. The markdown never exceeds the
// tier's maximum discount.
type DynamicMarkdownStrategy struct {
	pricing.BaseStrategy
	coefficients pricing.MarkdownCoefficients
}

// NewDynamicMarkdownStrategy creates a new dynamic markdown strategy
func NewDynamicMarkdownStrategy(coefficients pricing.MarkdownCoefficients) *DynamicMarkdownStrategy {
	return &DynamicMarkdownStrategy{
		BaseStrategy: pricing.NewBaseStrategy(
			pricing.StrategyIDDynamic,
			"Dynamic Markdown",
			pricing.StrategyTypeDynamic,
			"Shelf-life markdown driven by days remaining, demand and profitability",
		),
		coefficients: coefficients,
	}
}

// Coefficients returns the formula weights
func (s *DynamicMarkdownStrategy) Coefficients() pricing.MarkdownCoefficients {
	return s.coefficients
}

// Calculate applies the capped markdown to the tier list price.
// Missing demand or profitability factors are treated as 1.
func (s *DynamicMarkdownStrategy) Calculate(ctx context.Context, pc pricing.PricingContext) (pricing.StrategyQuote, error) {
	if pc.DaysRemaining == nil {
		return pricing.StrategyQuote{}, shared.NewDomainError(pricing.CodeValidation, "Days remaining is required for dynamic markdown")
	}

	demand := decimal.NewFromInt(1)
	if pc.DemandFactor != nil {
		demand = *pc.DemandFactor
	}
	profitability := decimal.NewFromInt(1)
	if pc.ProfitabilityFactor != nil {
		profitability = *pc.ProfitabilityFactor
	}

	list := pc.ListPrice()
	raw := s.coefficients.MarkdownPercentage(*pc.DaysRemaining, pc.ShelfLifeDays, demand, profitability)
	markdown := decimal.Min(raw, pc.Tier.MaxDiscountPercentage())

	quote := pricing.StrategyQuote{UnitPrice: list, BaseUnitPrice: list}
	if markdown.IsPositive() {
		quote.UnitPrice = list.ApplyDiscount(markdown)
		note := fmt.Sprintf("Dynamic markdown %s%%", markdown.String())
		if raw.GreaterThan(markdown) {
			note = fmt.Sprintf("%s (capped from %s%%)", note, raw.String())
		}
		quote.Notes = []string{note}
	}
	return quote, nil
}
