package pricing

import (
	"github.com/erp/pricing/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

var (
	hundred        = decimal.NewFromInt(100)
	maxMarkupValue = decimal.NewFromInt(500)
)

// DiscountPercentage is a validated discount in the range [0, 100]
type DiscountPercentage struct {
	value decimal.Decimal
}

// NewDiscountPercentage creates a DiscountPercentage
func NewDiscountPercentage(value decimal.Decimal) (DiscountPercentage, error) {
	if value.IsNegative() {
		return DiscountPercentage{}, validationError("Discount percentage cannot be negative")
	}
	if value.GreaterThan(hundred) {
		return DiscountPercentage{}, validationError("Discount percentage cannot exceed 100%%")
	}
	return DiscountPercentage{value: value}, nil
}

// NewDiscountPercentageForTier creates a DiscountPercentage bounded by the tier's maximum discount
func NewDiscountPercentageForTier(value decimal.Decimal, tier PricingTier) (DiscountPercentage, error) {
	d, err := NewDiscountPercentage(value)
	if err != nil {
		return DiscountPercentage{}, err
	}
	if value.GreaterThan(tier.MaxDiscountPercentage()) {
		return DiscountPercentage{}, validationError("Discount percentage %s%% exceeds maximum %s%% for tier %s",
			value.String(), tier.MaxDiscountPercentage().String(), tier.Name())
	}
	return d, nil
}

// Value returns the percentage value
func (d DiscountPercentage) Value() decimal.Decimal {
	return d.value
}

// ApplyTo reduces the price by the discount
func (d DiscountPercentage) ApplyTo(price valueobject.Money) valueobject.Money {
	return price.ApplyDiscount(d.value)
}

// MarkupPercentage is a validated markup in the range [0, 500]
type MarkupPercentage struct {
	value decimal.Decimal
}

// NewMarkupPercentage creates a MarkupPercentage
func NewMarkupPercentage(value decimal.Decimal) (MarkupPercentage, error) {
	if value.IsNegative() {
		return MarkupPercentage{}, validationError("Markup percentage cannot be negative")
	}
	if value.GreaterThan(maxMarkupValue) {
		return MarkupPercentage{}, validationError("Markup percentage cannot exceed 500%%")
	}
	return MarkupPercentage{value: value}, nil
}

// Value returns the percentage value
func (m MarkupPercentage) Value() decimal.Decimal {
	return m.value
}

// Multiplier returns 1 + value/100
func (m MarkupPercentage) Multiplier() decimal.Decimal {
	return decimal.NewFromInt(1).Add(m.value.Div(hundred))
}

// ApplyTo raises the price by the markup
func (m MarkupPercentage) ApplyTo(cost valueobject.Money) valueobject.Money {
	return cost.Multiply(m.Multiplier())
}
