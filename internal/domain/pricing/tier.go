package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TierType identifies a customer pricing tier
type TierType string

const (
	TierGuest      TierType = "GUEST"
	TierRetail     TierType = "RETAIL"
	TierCommercial TierType = "COMMERCIAL"
	TierWholesale  TierType = "WHOLESALE"
	TierImporter   TierType = "IMPORTER"
)

// AllTierTypes returns the closed set of tier types in a stable order
func AllTierTypes() []TierType {
	return []TierType{TierGuest, TierRetail, TierCommercial, TierWholesale, TierImporter}
}

// IsValid checks if the tier type is known
func (t TierType) IsValid() bool {
	_, ok := tierTable[t]
	return ok
}

// String returns the string representation of TierType
func (t TierType) String() string {
	return string(t)
}

// tierParameters holds the fixed economics of a tier. All values are percentages.
// Floor and target margins are expressed as markup over cost.
type tierParameters struct {
	baseMarkup   int64
	maxDiscount  int64
	floorMargin  int64
	targetMargin int64
}

var tierTable = map[TierType]tierParameters{
	TierGuest:      {baseMarkup: 150, maxDiscount: 15, floorMargin: 135, targetMargin: 140},
	TierRetail:     {baseMarkup: 150, maxDiscount: 20, floorMargin: 130, targetMargin: 140},
	TierCommercial: {baseMarkup: 125, maxDiscount: 25, floorMargin: 100, targetMargin: 110},
	TierWholesale:  {baseMarkup: 100, maxDiscount: 30, floorMargin: 70, targetMargin: 80},
	TierImporter:   {baseMarkup: 60, maxDiscount: 15, floorMargin: 30, targetMargin: 40},
}

// PricingTier is an immutable value object describing a customer pricing tier.
// Identity is the tier type.
type PricingTier struct {
	tierType TierType
	name     string
}

// NewPricingTier creates a PricingTier for a known tier type
func NewPricingTier(tierType TierType) (PricingTier, error) {
	normalized := TierType(strings.ToUpper(strings.TrimSpace(string(tierType))))
	if !normalized.IsValid() {
		return PricingTier{}, validationError("Invalid pricing tier type: %s", tierType)
	}
	return PricingTier{
		tierType: normalized,
		name:     tierName(normalized),
	}, nil
}

// MustPricingTier creates a PricingTier and panics on an unknown type
func MustPricingTier(tierType TierType) PricingTier {
	tier, err := NewPricingTier(tierType)
	if err != nil {
		panic(fmt.Sprintf("pricing: unknown tier type %q", tierType))
	}
	return tier
}

func tierName(t TierType) string {
	s := strings.ToLower(string(t))
	return strings.ToUpper(s[:1]) + s[1:]
}

func (t PricingTier) params() tierParameters {
	p, ok := tierTable[t.tierType]
	if !ok {
		panic(fmt.Sprintf("pricing: unknown tier type %q", t.tierType))
	}
	return p
}

// Type returns the tier type
func (t PricingTier) Type() TierType {
	return t.tierType
}

// Name returns the display name, e.g. "Retail"
func (t PricingTier) Name() string {
	return t.name
}

// BaseMarkupPercentage returns the markup applied to cost for this tier
func (t PricingTier) BaseMarkupPercentage() decimal.Decimal {
	return decimal.NewFromInt(t.params().baseMarkup)
}

// MaxDiscountPercentage returns the largest discount this tier may receive
func (t PricingTier) MaxDiscountPercentage() decimal.Decimal {
	return decimal.NewFromInt(t.params().maxDiscount)
}

// FloorGrossMarginPercentage returns the floor margin for this tier
func (t PricingTier) FloorGrossMarginPercentage() decimal.Decimal {
	return decimal.NewFromInt(t.params().floorMargin)
}

// TargetGrossMarginPercentage returns the target margin for this tier
func (t PricingTier) TargetGrossMarginPercentage() decimal.Decimal {
	return decimal.NewFromInt(t.params().targetMargin)
}

// MarkupMultiplier returns 1 + markup/100
func (t PricingTier) MarkupMultiplier() decimal.Decimal {
	return decimal.NewFromInt(1).Add(t.BaseMarkupPercentage().Div(decimal.NewFromInt(100)))
}

// IsGuest reports whether the tier is GUEST
func (t PricingTier) IsGuest() bool { return t.tierType == TierGuest }

// IsRetail reports whether the tier is RETAIL
func (t PricingTier) IsRetail() bool { return t.tierType == TierRetail }

// IsCommercial reports whether the tier is COMMERCIAL
func (t PricingTier) IsCommercial() bool { return t.tierType == TierCommercial }

// IsWholesale reports whether the tier is WHOLESALE
func (t PricingTier) IsWholesale() bool { return t.tierType == TierWholesale }

// IsImporter reports whether the tier is IMPORTER
func (t PricingTier) IsImporter() bool { return t.tierType == TierImporter }

// IsZero reports whether the tier was never initialized
func (t PricingTier) IsZero() bool {
	return t.tierType == ""
}

// Equals compares tiers by type
func (t PricingTier) Equals(other PricingTier) bool {
	return t.tierType == other.tierType
}

// String returns the display name
func (t PricingTier) String() string {
	return t.name
}
