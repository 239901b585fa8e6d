package pricing

import (
	"context"

	"github.com/erp/pricing/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Built-in strategy identifiers
const (
	StrategyIDTierMarkup   = "tier-markup"
	StrategyIDVolume       = "volume-pricing"
	StrategyIDDynamic      = "dynamic-markdown"
	StrategyIDTiered       = "tiered-pricing"
	StrategyIDNegotiated   = "negotiated-pricing"
	DefaultPricingStrategy = StrategyIDTierMarkup
)

// StrategyType groups strategies by how they derive a price
type StrategyType string

const (
	StrategyTypeMarkup       StrategyType = "MARKUP"
	StrategyTypeVolume       StrategyType = "VOLUME"
	StrategyTypeDynamic      StrategyType = "DYNAMIC"
	StrategyTypeSubscription StrategyType = "SUBSCRIPTION"
	StrategyTypeNegotiated   StrategyType = "NEGOTIATED"
)

// IsValid returns true if the strategy type is valid
func (t StrategyType) IsValid() bool {
	switch t {
	case StrategyTypeMarkup, StrategyTypeVolume, StrategyTypeDynamic, StrategyTypeSubscription, StrategyTypeNegotiated:
		return true
	}
	return false
}

// SubscriptionTier is a customer subscription level used by tiered pricing
type SubscriptionTier string

const (
	SubscriptionBasic   SubscriptionTier = "BASIC"
	SubscriptionPremium SubscriptionTier = "PREMIUM"
	SubscriptionVIP     SubscriptionTier = "VIP"
)

// IsValid checks if the subscription tier is known
func (s SubscriptionTier) IsValid() bool {
	switch s {
	case SubscriptionBasic, SubscriptionPremium, SubscriptionVIP:
		return true
	}
	return false
}

// PricingContext carries everything a strategy needs to price one line
type PricingContext struct {
	BaseCost          valueobject.Money
	Quantity          int
	Tier              PricingTier
	PriceModifiers    []PriceModifier
	PricingRules      []*PricingRule
	RuleContext       RuleContext
	ProductID         string
	CustomerID        string
	PreviousUnitPrice *valueobject.Money

	// dynamic markdown
	DaysRemaining       *int
	DemandFactor        *decimal.Decimal
	ProfitabilityFactor *decimal.Decimal
	ShelfLifeDays       int

	// subscription
	SubscriptionTier       SubscriptionTier
	IsRecurringFee         bool
	ApplyStoreWideDiscount bool

	// negotiated unit prices keyed by product ID
	NegotiatedPrices map[string]valueobject.Money
}

// Validate checks the fields every strategy relies on
func (c PricingContext) Validate() error {
	if c.BaseCost.Currency() == "" {
		return validationError("Base cost is required")
	}
	if c.BaseCost.IsNegative() {
		return validationError("Base cost cannot be negative")
	}
	if c.Quantity <= 0 {
		return validationError("Quantity must be greater than 0")
	}
	if c.Tier.IsZero() {
		return validationError("Pricing tier is required")
	}
	if c.DaysRemaining != nil && *c.DaysRemaining < 0 {
		return validationError("Days remaining cannot be negative")
	}
	if c.DemandFactor != nil && !isUnitInterval(*c.DemandFactor) {
		return validationError("Demand factor must be between 0 and 1")
	}
	if c.ProfitabilityFactor != nil && !isUnitInterval(*c.ProfitabilityFactor) {
		return validationError("Profitability factor must be between 0 and 1")
	}
	if c.ShelfLifeDays < 0 {
		return validationError("Shelf life days cannot be negative")
	}
	if c.SubscriptionTier != "" && !c.SubscriptionTier.IsValid() {
		return validationError("Invalid subscription tier: %s", c.SubscriptionTier)
	}
	for _, m := range c.PriceModifiers {
		if m.IsZero() {
			return validationError("Price modifier is empty")
		}
	}
	return nil
}

func isUnitInterval(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThanOrEqual(decimal.NewFromInt(1))
}

// ListPrice returns cost multiplied by the tier markup
func (c PricingContext) ListPrice() valueobject.Money {
	return c.BaseCost.Multiply(c.Tier.MarkupMultiplier())
}

// StrategyQuote is the per-unit result produced by a strategy before modifiers
type StrategyQuote struct {
	// UnitPrice is the strategy's price after its own discounts
	UnitPrice valueobject.Money
	// BaseUnitPrice is the undiscounted reference price
	BaseUnitPrice valueobject.Money
	// Notes describe adjustments the strategy made, e.g. "Volume discount 8%"
	Notes []string
}

// PricingStrategy computes a unit price for a pricing context
type PricingStrategy interface {
	// ID returns the unique identifier, e.g. "tier-markup"
	ID() string
	Name() string
	Type() StrategyType
	Description() string
	Calculate(ctx context.Context, pc PricingContext) (StrategyQuote, error)
}

// StrategyRegistry looks strategies up by ID
type StrategyRegistry interface {
	Register(strategy PricingStrategy) error
	Get(id string) (PricingStrategy, error)
	Has(id string) bool
}

// BaseStrategy provides the identity half of a PricingStrategy
type BaseStrategy struct {
	id           string
	name         string
	strategyType StrategyType
	description  string
}

// NewBaseStrategy creates a new BaseStrategy
func NewBaseStrategy(id, name string, strategyType StrategyType, description string) BaseStrategy {
	return BaseStrategy{id: id, name: name, strategyType: strategyType, description: description}
}

// ID returns the strategy identifier
func (s BaseStrategy) ID() string { return s.id }

// Name returns the display name
func (s BaseStrategy) Name() string { return s.name }

// Type returns the strategy type
func (s BaseStrategy) Type() StrategyType { return s.strategyType }

// Description returns a human-readable description
func (s BaseStrategy) Description() string { return s.description }
