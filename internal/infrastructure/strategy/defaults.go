package strategy

import (
	"github.com/erp/pricing/internal/domain/pricing"
	pricingstrategy "github.com/erp/pricing/internal/infrastructure/strategy/pricing"
)

// Options tunes the built-in strategies
type Options struct {
	// Markdown weights the dynamic markdown formula; zero value means defaults
	Markdown pricing.MarkdownCoefficients
	// NegotiatedPrices resolves customer prices missing from the pricing context; may be nil
	NegotiatedPrices pricingstrategy.NegotiatedPriceProvider
	// DefaultStrategyID is the strategy used when none is requested
	DefaultStrategyID string
}

// NewRegistryWithDefaults creates a registry with the built-in strategies registered
// and tier markup as the default.
func NewRegistryWithDefaults() (*StrategyRegistry, error) {
	return NewRegistryWithOptions(Options{})
}

// NewRegistryWithOptions creates a registry with the built-in strategies registered
func NewRegistryWithOptions(opts Options) (*StrategyRegistry, error) {
	r := NewStrategyRegistry()

	markdown := opts.Markdown
	if markdown.HorizonDays == 0 {
		markdown = pricing.DefaultMarkdownCoefficients()
	}
	if err := markdown.Validate(); err != nil {
		return nil, err
	}

	strategies := []pricing.PricingStrategy{
		pricingstrategy.NewTierMarkupStrategy(),
		pricingstrategy.DefaultVolumePricingStrategy(),
		pricingstrategy.NewDynamicMarkdownStrategy(markdown),
		pricingstrategy.DefaultTieredSubscriptionStrategy(),
		pricingstrategy.NewNegotiatedPricingStrategy(opts.NegotiatedPrices),
	}
	for _, s := range strategies {
		if err := r.Register(s); err != nil {
			return nil, err
		}
	}

	defaultID := opts.DefaultStrategyID
	if defaultID == "" {
		defaultID = pricing.DefaultPricingStrategy
	}
	if err := r.SetDefault(defaultID); err != nil {
		return nil, err
	}

	return r, nil
}
