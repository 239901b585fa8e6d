package pricing

import (
	"fmt"
	"strings"

	"github.com/erp/pricing/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ModifierType classifies a price adjustment
type ModifierType string

const (
	ModifierPercentageDiscount  ModifierType = "PERCENTAGE_DISCOUNT"
	ModifierFixedDiscount       ModifierType = "FIXED_DISCOUNT"
	ModifierPercentageSurcharge ModifierType = "PERCENTAGE_SURCHARGE"
	ModifierFixedSurcharge      ModifierType = "FIXED_SURCHARGE"
)

// IsValid checks if the modifier type is known
func (t ModifierType) IsValid() bool {
	switch t {
	case ModifierPercentageDiscount, ModifierFixedDiscount, ModifierPercentageSurcharge, ModifierFixedSurcharge:
		return true
	}
	return false
}

// String returns the string representation of ModifierType
func (t ModifierType) String() string {
	return string(t)
}

// PriceModifier is an immutable price adjustment: a percentage or fixed discount or surcharge
type PriceModifier struct {
	modifierType ModifierType
	name         string
	description  string
	value        decimal.Decimal
	currency     valueobject.Currency
	priority     int
	campaign     bool
}

// PriceModifierParams holds the arguments for NewPriceModifier
type PriceModifierParams struct {
	Type        ModifierType
	Name        string
	Description string
	Value       decimal.Decimal
	Currency    valueobject.Currency // required for fixed modifiers only
	Priority    int
}

// NewPriceModifier validates and creates a PriceModifier
func NewPriceModifier(p PriceModifierParams) (PriceModifier, error) {
	if !p.Type.IsValid() {
		return PriceModifier{}, validationError("Invalid price modifier type: %s", p.Type)
	}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return PriceModifier{}, validationError("Price modifier name is required")
	}

	switch p.Type {
	case ModifierPercentageDiscount:
		if p.Value.IsNegative() || p.Value.GreaterThan(hundred) {
			return PriceModifier{}, validationError("Percentage discount must be between 0 and 100")
		}
	case ModifierPercentageSurcharge:
		if !p.Value.IsPositive() || p.Value.GreaterThan(maxMarkupValue) {
			return PriceModifier{}, validationError("Percentage surcharge must be greater than 0 and at most 500")
		}
	case ModifierFixedDiscount, ModifierFixedSurcharge:
		if !p.Value.IsPositive() {
			return PriceModifier{}, validationError("Fixed modifier amount must be greater than 0")
		}
		if p.Currency == "" {
			return PriceModifier{}, validationError("Currency is required for fixed price modifiers")
		}
	}
	if p.Type == ModifierPercentageDiscount || p.Type == ModifierPercentageSurcharge {
		if p.Currency != "" {
			return PriceModifier{}, validationError("Currency is not allowed for percentage price modifiers")
		}
	}

	return PriceModifier{
		modifierType: p.Type,
		name:         name,
		description:  p.Description,
		value:        p.Value,
		currency:     p.Currency,
		priority:     p.Priority,
	}, nil
}

// NewPercentageDiscount is a shorthand for a percentage discount modifier
func NewPercentageDiscount(name string, percent decimal.Decimal, priority int) (PriceModifier, error) {
	return NewPriceModifier(PriceModifierParams{
		Type:     ModifierPercentageDiscount,
		Name:     name,
		Value:    percent,
		Priority: priority,
	})
}

// NewFixedDiscount is a shorthand for a fixed amount discount modifier
func NewFixedDiscount(name string, amount valueobject.Money, priority int) (PriceModifier, error) {
	return NewPriceModifier(PriceModifierParams{
		Type:     ModifierFixedDiscount,
		Name:     name,
		Value:    amount.Amount(),
		Currency: amount.Currency(),
		Priority: priority,
	})
}

// Type returns the modifier type
func (m PriceModifier) Type() ModifierType { return m.modifierType }

// Name returns the modifier name
func (m PriceModifier) Name() string { return m.name }

// Description returns the modifier description
func (m PriceModifier) Description() string { return m.description }

// Value returns the percentage or the absolute amount
func (m PriceModifier) Value() decimal.Decimal { return m.value }

// Currency returns the currency of a fixed modifier, empty for percentages
func (m PriceModifier) Currency() valueobject.Currency { return m.currency }

// Priority returns the application order; lower values apply first
func (m PriceModifier) Priority() int { return m.priority }

// IsDiscount reports whether the modifier lowers the price
func (m PriceModifier) IsDiscount() bool {
	return m.modifierType == ModifierPercentageDiscount || m.modifierType == ModifierFixedDiscount
}

// IsSurcharge reports whether the modifier raises the price
func (m PriceModifier) IsSurcharge() bool {
	return m.modifierType == ModifierPercentageSurcharge || m.modifierType == ModifierFixedSurcharge
}

// IsPercentage reports whether the modifier is a percentage
func (m PriceModifier) IsPercentage() bool {
	return m.modifierType == ModifierPercentageDiscount || m.modifierType == ModifierPercentageSurcharge
}

// IsFixed reports whether the modifier is an absolute amount
func (m PriceModifier) IsFixed() bool {
	return m.modifierType == ModifierFixedDiscount || m.modifierType == ModifierFixedSurcharge
}

// IsPromotional reports whether the modifier is a promotional discount.
// Promotions are tagged by name (any discount whose name contains "promo")
// or by coming from a redeemed campaign.
func (m PriceModifier) IsPromotional() bool {
	return m.IsDiscount() && (m.campaign || strings.Contains(strings.ToLower(m.name), "promo"))
}

// AsPromotion marks the modifier as coming from a promotional campaign so
// the stacking rules count it whatever its name
func (m PriceModifier) AsPromotion() PriceModifier {
	m.campaign = true
	return m
}

// IsZero reports whether the modifier was never initialized
func (m PriceModifier) IsZero() bool {
	return m.modifierType == ""
}

// ApplyToPrice applies the adjustment. Fixed discounts are floored at zero.
func (m PriceModifier) ApplyToPrice(price valueobject.Money) (valueobject.Money, error) {
	if m.IsFixed() && m.currency != price.Currency() {
		return valueobject.Money{}, currencyMismatchError(m.currency, price.Currency())
	}

	switch m.modifierType {
	case ModifierPercentageDiscount:
		return price.ApplyDiscount(m.value), nil
	case ModifierPercentageSurcharge:
		return price.ApplyMarkup(m.value), nil
	case ModifierFixedDiscount:
		fixed := valueobject.MustNewMoney(m.value, m.currency)
		reduced, err := price.Subtract(fixed)
		if err != nil {
			return valueobject.Money{}, currencyMismatchError(m.currency, price.Currency())
		}
		return reduced.FloorAtZero(), nil
	case ModifierFixedSurcharge:
		fixed := valueobject.MustNewMoney(m.value, m.currency)
		return price.Add(fixed)
	}
	return valueobject.Money{}, validationError("Invalid price modifier type: %s", m.modifierType)
}

// WouldDriveNegative reports whether a fixed discount exceeds the price
func (m PriceModifier) WouldDriveNegative(price valueobject.Money) bool {
	return m.modifierType == ModifierFixedDiscount && m.value.GreaterThan(price.Amount())
}

// Equals compares modifiers by value
func (m PriceModifier) Equals(other PriceModifier) bool {
	return m.modifierType == other.modifierType &&
		m.name == other.name &&
		m.value.Equal(other.value) &&
		m.currency == other.currency &&
		m.priority == other.priority
}

// String returns a human-readable summary, e.g. "Summer Promo: 10% discount"
func (m PriceModifier) String() string {
	kind := "discount"
	if m.IsSurcharge() {
		kind = "surcharge"
	}
	if m.IsPercentage() {
		return fmt.Sprintf("%s: %s%% %s", m.name, m.value.String(), kind)
	}
	return fmt.Sprintf("%s: %s %s %s", m.name, m.value.StringFixed(2), m.currency, kind)
}
