package pricing

import (
	"context"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/erp/pricing/internal/domain/shared/valueobject"
)

// NegotiatedPriceProvider looks up a customer's contracted unit price for a product
type NegotiatedPriceProvider interface {
	// GetNegotiatedPrice returns false when the customer has no price for the product
	GetNegotiatedPrice(ctx context.Context, customerID, productID string) (valueobject.Money, bool, error)
}

// NegotiatedPricingStrategy uses a customer's contracted price when one
// exists and is not below cost. Otherwise it falls back to the tier list price.
type NegotiatedPricingStrategy struct {
	pricing.BaseStrategy
	provider NegotiatedPriceProvider
}

// NewNegotiatedPricingStrategy creates a new negotiated pricing strategy.
// provider may be nil, in which case only the prices in the context are used.
func NewNegotiatedPricingStrategy(provider NegotiatedPriceProvider) *NegotiatedPricingStrategy {
	return &NegotiatedPricingStrategy{
		BaseStrategy: pricing.NewBaseStrategy(
			pricing.StrategyIDNegotiated,
			"Negotiated Pricing",
			pricing.StrategyTypeNegotiated,
			"Customer-specific contracted prices",
		),
		provider: provider,
	}
}

// Calculate returns the negotiated price against the tier list price
func (s *NegotiatedPricingStrategy) Calculate(ctx context.Context, pc pricing.PricingContext) (pricing.StrategyQuote, error) {
	list := pc.ListPrice()
	quote := pricing.StrategyQuote{UnitPrice: list, BaseUnitPrice: list}

	price, found, err := s.lookup(ctx, pc)
	if err != nil {
		return pricing.StrategyQuote{}, err
	}
	if !found {
		return quote, nil
	}
	if !price.SameCurrency(pc.BaseCost) {
		quote.Notes = []string{"Negotiated price ignored: currency differs from cost"}
		return quote, nil
	}
	if price.Amount().LessThan(pc.BaseCost.Amount()) {
		quote.Notes = []string{"Negotiated price ignored: below cost"}
		return quote, nil
	}

	quote.UnitPrice = price
	quote.Notes = []string{"Negotiated customer price"}
	return quote, nil
}

func (s *NegotiatedPricingStrategy) lookup(ctx context.Context, pc pricing.PricingContext) (valueobject.Money, bool, error) {
	if price, ok := pc.NegotiatedPrices[pc.ProductID]; ok {
		return price, true, nil
	}
	if s.provider == nil || pc.CustomerID == "" {
		return valueobject.Money{}, false, nil
	}
	return s.provider.GetNegotiatedPrice(ctx, pc.CustomerID, pc.ProductID)
}
