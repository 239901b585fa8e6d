package pricing

import (
	"github.com/shopspring/decimal"
)

// DefaultShelfLifeDays is the horizon after which remaining shelf life no longer lowers the price
const DefaultShelfLifeDays = 45

// MarkdownCoefficients weights the inputs of the dynamic markdown formula:
//
//	factor    = 1 − β(1−d) − γ(1−p)(1−d) − γ(1−p)(1−t/T), clamped to [0, 1]
//	markdown% = round((1 − factor) × 100)
//
// d is demand, p is profitability, t is days remaining capped at T.
// With nothing left on the shelf (t = 0) the markdown is 100%.
type MarkdownCoefficients struct {
	DemandWeight        decimal.Decimal // β
	ProfitabilityWeight decimal.Decimal // γ
	HorizonDays         int             // T
}

// DefaultMarkdownCoefficients returns β = 0.4, γ = 0.5, T = 45
func DefaultMarkdownCoefficients() MarkdownCoefficients {
	return MarkdownCoefficients{
		DemandWeight:        decimal.RequireFromString("0.4"),
		ProfitabilityWeight: decimal.RequireFromString("0.5"),
		HorizonDays:         DefaultShelfLifeDays,
	}
}

// Validate checks both weights are within [0, 1] and the horizon is positive
func (c MarkdownCoefficients) Validate() error {
	if !isUnitInterval(c.DemandWeight) {
		return validationError("Demand weight must be between 0 and 1")
	}
	if !isUnitInterval(c.ProfitabilityWeight) {
		return validationError("Profitability weight must be between 0 and 1")
	}
	if c.HorizonDays <= 0 {
		return validationError("Markdown horizon must be greater than 0 days")
	}
	return nil
}

// MarkdownPercentage returns the whole-number markdown for the given inputs.
// horizonDays overrides the coefficient horizon when positive.
func (c MarkdownCoefficients) MarkdownPercentage(daysRemaining, horizonDays int, demand, profitability decimal.Decimal) decimal.Decimal {
	if daysRemaining <= 0 {
		return hundred
	}
	horizon := c.HorizonDays
	if horizonDays > 0 {
		horizon = horizonDays
	}
	if daysRemaining > horizon {
		daysRemaining = horizon
	}

	one := decimal.NewFromInt(1)
	d := clampUnit(demand)
	p := clampUnit(profitability)
	t := decimal.NewFromInt(int64(daysRemaining)).Div(decimal.NewFromInt(int64(horizon)))

	lowDemand := one.Sub(d)
	lowProfit := one.Sub(p)
	factor := one.
		Sub(c.DemandWeight.Mul(lowDemand)).
		Sub(c.ProfitabilityWeight.Mul(lowProfit).Mul(lowDemand)).
		Sub(c.ProfitabilityWeight.Mul(lowProfit).Mul(one.Sub(t)))
	factor = clampUnit(factor)

	return one.Sub(factor).Mul(hundred).Round(0)
}

func clampUnit(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	if d.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return d
}
