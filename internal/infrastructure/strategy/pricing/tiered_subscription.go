package pricing

import (
	"context"
	"fmt"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/erp/pricing/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// SubscriptionPlan holds the economics of one subscription tier
type SubscriptionPlan struct {
	Tier                  pricing.SubscriptionTier `json:"tier"`
	MonthlyFee            decimal.Decimal          `json:"monthly_fee"`
	MonthlyCredit         decimal.Decimal          `json:"monthly_credit"`
	StoreWideDiscount     decimal.Decimal          `json:"store_wide_discount"`
	TargetGrossMarginRate decimal.Decimal          `json:"target_gross_margin_rate"`
}

// TieredSubscriptionStrategy prices subscription fees and member purchases
type TieredSubscriptionStrategy struct {
	pricing.BaseStrategy
	plans map[pricing.SubscriptionTier]SubscriptionPlan
}

// NewTieredSubscriptionStrategy creates a subscription strategy with the given plans
func NewTieredSubscriptionStrategy(plans []SubscriptionPlan) *TieredSubscriptionStrategy {
	planMap := make(map[pricing.SubscriptionTier]SubscriptionPlan, len(plans))
	for _, p := range plans {
		planMap[p.Tier] = p
	}

	return &TieredSubscriptionStrategy{
		BaseStrategy: pricing.NewBaseStrategy(
			pricing.StrategyIDTiered,
			"Tiered Subscription Pricing",
			pricing.StrategyTypeSubscription,
			"Subscription fees and store-wide member discounts",
		),
		plans: planMap,
	}
}

// DefaultTieredSubscriptionStrategy creates a strategy with the standard plans
// - BASIC: 60/month, 60 credit, 5% store-wide
// - PREMIUM: 90/month, 95 credit, 8% store-wide
// - VIP: 180/month, 200 credit, 10% store-wide
func DefaultTieredSubscriptionStrategy() *TieredSubscriptionStrategy {
	return NewTieredSubscriptionStrategy([]SubscriptionPlan{
		{Tier: pricing.SubscriptionBasic, MonthlyFee: decimal.NewFromInt(60), MonthlyCredit: decimal.NewFromInt(60), StoreWideDiscount: decimal.NewFromInt(5), TargetGrossMarginRate: decimal.NewFromInt(40)},
		{Tier: pricing.SubscriptionPremium, MonthlyFee: decimal.NewFromInt(90), MonthlyCredit: decimal.NewFromInt(95), StoreWideDiscount: decimal.NewFromInt(8), TargetGrossMarginRate: decimal.NewFromInt(42)},
		{Tier: pricing.SubscriptionVIP, MonthlyFee: decimal.NewFromInt(180), MonthlyCredit: decimal.NewFromInt(200), StoreWideDiscount: decimal.NewFromInt(10), TargetGrossMarginRate: decimal.NewFromInt(45)},
	})
}

// Plan returns the plan for a subscription tier
func (s *TieredSubscriptionStrategy) Plan(tier pricing.SubscriptionTier) (SubscriptionPlan, bool) {
	p, ok := s.plans[tier]
	return p, ok
}

// Calculate returns the monthly fee for recurring lines; otherwise the tier
// list price, less the plan's store-wide discount when requested
func (s *TieredSubscriptionStrategy) Calculate(ctx context.Context, pc pricing.PricingContext) (pricing.StrategyQuote, error) {
	plan, ok := s.plans[pc.SubscriptionTier]
	if !ok {
		return pricing.StrategyQuote{}, shared.NewDomainError(pricing.CodeValidation,
			fmt.Sprintf("Unknown subscription tier '%s'", pc.SubscriptionTier))
	}

	if pc.IsRecurringFee {
		fee, err := valueobject.NewMoney(plan.MonthlyFee, pc.BaseCost.Currency())
		if err != nil {
			return pricing.StrategyQuote{}, err
		}
		return pricing.StrategyQuote{
			UnitPrice:     fee,
			BaseUnitPrice: fee,
			Notes:         []string{fmt.Sprintf("%s monthly subscription fee", plan.Tier)},
		}, nil
	}

	list := pc.ListPrice()
	quote := pricing.StrategyQuote{UnitPrice: list, BaseUnitPrice: list}
	if pc.ApplyStoreWideDiscount && plan.StoreWideDiscount.IsPositive() {
		quote.UnitPrice = list.ApplyDiscount(plan.StoreWideDiscount)
		quote.Notes = []string{fmt.Sprintf("%s member discount %s%%", plan.Tier, plan.StoreWideDiscount.String())}
	}
	return quote, nil
}
