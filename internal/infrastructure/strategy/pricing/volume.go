package pricing

import (
	"context"
	"fmt"
	"sort"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/shopspring/decimal"
)

// VolumeBreak grants DiscountPercent from MinQuantity units upward
type VolumeBreak struct {
	MinQuantity     int             `json:"min_quantity"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// VolumePricingStrategy discounts the tier list price by quantity thresholds.
// The discount never exceeds the tier's maximum discount.
type VolumePricingStrategy struct {
	pricing.BaseStrategy
	breaks []VolumeBreak
}

// NewVolumePricingStrategy creates a volume strategy with the given breaks.
// Breaks may be provided in any order; they are sorted by min quantity ascending.
func NewVolumePricingStrategy(breaks []VolumeBreak) *VolumePricingStrategy {
	sorted := make([]VolumeBreak, len(breaks))
	copy(sorted, breaks)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].MinQuantity < sorted[j].MinQuantity
	})

	return &VolumePricingStrategy{
		BaseStrategy: pricing.NewBaseStrategy(
			pricing.StrategyIDVolume,
			"Volume Pricing",
			pricing.StrategyTypeVolume,
			"Tier list price with quantity break discounts",
		),
		breaks: sorted,
	}
}

// DefaultVolumePricingStrategy creates a volume strategy with the standard breaks
// - 1+: 0%
// - 5+: 5%
// - 10+: 8%
// - 20+: 12%
// - 50+: 15%
// - 100+: 20%
func DefaultVolumePricingStrategy() *VolumePricingStrategy {
	return NewVolumePricingStrategy([]VolumeBreak{
		{MinQuantity: 1, DiscountPercent: decimal.Zero},
		{MinQuantity: 5, DiscountPercent: decimal.NewFromInt(5)},
		{MinQuantity: 10, DiscountPercent: decimal.NewFromInt(8)},
		{MinQuantity: 20, DiscountPercent: decimal.NewFromInt(12)},
		{MinQuantity: 50, DiscountPercent: decimal.NewFromInt(15)},
		{MinQuantity: 100, DiscountPercent: decimal.NewFromInt(20)},
	})
}

// GetBreaks returns a copy of the volume breaks
func (s *VolumePricingStrategy) GetBreaks() []VolumeBreak {
	result := make([]VolumeBreak, len(s.breaks))
	copy(result, s.breaks)
	return result
}

// DiscountFor returns the break discount for a quantity before the tier cap
func (s *VolumePricingStrategy) DiscountFor(quantity int) decimal.Decimal {
	// Breaks are sorted ascending, so iterate from the end
	for i := len(s.breaks) - 1; i >= 0; i-- {
		if quantity >= s.breaks[i].MinQuantity {
			return s.breaks[i].DiscountPercent
		}
	}
	return decimal.Zero
}

// Calculate applies the volume discount to the tier list price
func (s *VolumePricingStrategy) Calculate(ctx context.Context, pc pricing.PricingContext) (pricing.StrategyQuote, error) {
	list := pc.ListPrice()
	discount := decimal.Min(s.DiscountFor(pc.Quantity), pc.Tier.MaxDiscountPercentage())

	quote := pricing.StrategyQuote{UnitPrice: list, BaseUnitPrice: list}
	if discount.IsPositive() {
		quote.UnitPrice = list.ApplyDiscount(discount)
		quote.Notes = []string{fmt.Sprintf("Volume discount %s%%", discount.String())}
	}
	return quote, nil
}
