package pricing

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func assertDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr), "expected domain error, got %v", err)
	assert.Equal(t, code, domainErr.Code)
}

func TestPriceQuotationService_CalculateProductPrice(t *testing.T) {
	ctx := context.Background()

	t.Run("prices at tier list price", func(t *testing.T) {
		f := newQuotationFixture(t)
		f.withConfig(t, pricing.TierRetail)

		resp, err := f.service.CalculateProductPrice(ctx, ProductPriceRequest{
			ProductID: "P-1",
			BaseCost:  dec("100"),
			Quantity:  2,
			Tier:      pricing.TierRetail,
		})
		require.NoError(t, err)

		assert.Equal(t, pricing.StrategyIDTierMarkup, resp.StrategyID)
		assert.Equal(t, "BBD", resp.Currency)
		assert.True(t, resp.UnitPrice.Equal(dec("250")), resp.UnitPrice.String())
		assert.True(t, resp.TotalPrice.Equal(dec("500")), resp.TotalPrice.String())
		assert.True(t, resp.DiscountAmount.IsZero())
		assert.Empty(t, resp.AppliedPromotions)
		assert.False(t, resp.DynamicPricingFrozen)
	})

	t.Run("missing tier configuration is not found", func(t *testing.T) {
		f := newQuotationFixture(t)
		f.configs.On("FindByTierType", mock.Anything, pricing.TierCommercial).Return(nil, shared.ErrNotFound)

		_, err := f.service.CalculateProductPrice(ctx, ProductPriceRequest{
			ProductID: "P-1",
			BaseCost:  dec("100"),
			Quantity:  1,
			Tier:      pricing.TierCommercial,
		})
		assertDomainCode(t, err, pricing.CodeNotFound)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.Contains(t, err.Error(), "No pricing configuration found for tier COMMERCIAL")
	})

	t.Run("inactive tier configuration is not found", func(t *testing.T) {
		f := newQuotationFixture(t)
		cfg, err := pricing.NewDefaultSegmentPricingConfig(pricing.MustPricingTier(pricing.TierRetail), pricing.StrategyIDTierMarkup)
		require.NoError(t, err)
		cfg.Deactivate()
		f.configs.On("FindByTierType", mock.Anything, pricing.TierRetail).Return(cfg, nil)

		_, err = f.service.CalculateProductPrice(ctx, ProductPriceRequest{
			ProductID: "P-1", BaseCost: dec("100"), Quantity: 1, Tier: pricing.TierRetail,
		})
		assertDomainCode(t, err, pricing.CodeNotFound)
	})

	t.Run("repository failure is wrapped", func(t *testing.T) {
		f := newQuotationFixture(t)
		f.configs.On("FindByTierType", mock.Anything, pricing.TierRetail).Return(nil, errors.New("connection refused"))

		_, err := f.service.CalculateProductPrice(ctx, ProductPriceRequest{
			ProductID: "P-1", BaseCost: dec("100"), Quantity: 1, Tier: pricing.TierRetail,
		})
		require.Error(t, err)
		var domainErr *shared.DomainError
		assert.False(t, errors.As(err, &domainErr))
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("unknown tier is a validation error", func(t *testing.T) {
		f := newQuotationFixture(t)

		_, err := f.service.CalculateProductPrice(ctx, ProductPriceRequest{
			ProductID: "P-1", BaseCost: dec("100"), Quantity: 1, Tier: "PLATINUM",
		})
		assertDomainCode(t, err, pricing.CodeValidation)
	})

	t.Run("explicit unknown strategy is not found", func(t *testing.T) {
		f := newQuotationFixture(t)
		f.withConfig(t, pricing.TierRetail)

		_, err := f.service.CalculateProductPrice(ctx, ProductPriceRequest{
			ProductID: "P-1", BaseCost: dec("100"), Quantity: 1, Tier: pricing.TierRetail, StrategyID: "mystery",
		})
		assertDomainCode(t, err, pricing.CodeNotFound)
	})
}

func TestPriceQuotationService_StrategySelection(t *testing.T) {
	ctx := context.Background()
	days := 45

	t.Run("shelf life selects dynamic markdown", func(t *testing.T) {
		f := newQuotationFixture(t)
		f.withConfig(t, pricing.TierRetail)

		resp, err := f.service.CalculateProductPrice(ctx, ProductPriceRequest{
			ProductID: "P-1", BaseCost: dec("100"), Quantity: 1, Tier: pricing.TierRetail, DaysRemaining: &days,
		})
		require.NoError(t, err)
		assert.Equal(t, pricing.StrategyIDDynamic, resp.StrategyID)
		assert.True(t, resp.UnitPrice.Equal(dec("250")))
	})

	t.Run("frozen tier falls back to configured default", func(t *testing.T) {
		f := newQuotationFixture(t)
		f.withConfig(t, pricing.TierRetail)
		f.governance.FreezeDynamicPricing(pricing.MustPricingTier(pricing.TierRetail), "manual review")

		resp, err := f.service.CalculateProductPrice(ctx, ProductPriceRequest{
			ProductID: "P-1", BaseCost: dec("100"), Quantity: 1, Tier: pricing.TierRetail, DaysRemaining: &days,
		})
		require.NoError(t, err)
		assert.Equal(t, pricing.StrategyIDTierMarkup, resp.StrategyID)
		assert.True(t, resp.DynamicPricingFrozen)
	})

	t.Run("frozen tier ignores an explicit dynamic request", func(t *testing.T) {
		f := newQuotationFixture(t)
		f.withConfig(t, pricing.TierRetail)
		f.governance.FreezeDynamicPricing(pricing.MustPricingTier(pricing.TierRetail), "manual review")

		resp, err := f.service.CalculateProductPrice(ctx, ProductPriceRequest{
			ProductID:     "P-1",
			BaseCost:      dec("100"),
			Quantity:      1,
			Tier:          pricing.TierRetail,
			StrategyID:    pricing.StrategyIDDynamic,
			DaysRemaining: &days,
		})
		require.NoError(t, err)
		assert.Equal(t, pricing.StrategyIDTierMarkup, resp.StrategyID)
	})

	t.Run("large quantity selects volume pricing", func(t *testing.T) {
		f := newQuotationFixture(t)
		f.withConfig(t, pricing.TierWholesale)

		resp, err := f.service.CalculateProductPrice(ctx, ProductPriceRequest{
			ProductID: "P-1", BaseCost: dec("100"), Quantity: 11, Tier: pricing.TierWholesale,
		})
		require.NoError(t, err)
		assert.Equal(t, pricing.StrategyIDVolume, resp.StrategyID)
		assert.Equal(t, 11, resp.Quantity)
	})
}

func TestPriceQuotationService_PromotionCodes(t *testing.T) {
	ctx := context.Background()

	t.Run("valid code is applied and redeemed", func(t *testing.T) {
		f := newQuotationFixture(t)
		f.withConfig(t, pricing.TierRetail)
		campaign := newTestCampaign(t, "5")
		f.campaigns.On("FindByCode", mock.Anything, "SAVE5").Return(campaign, nil)
		f.campaigns.On("IncrementUsageIfAvailable", mock.Anything, campaign.ID).Return(1, nil)

		resp, err := f.service.CalculateProductPrice(ctx, ProductPriceRequest{
			ProductID:     "P-1",
			BaseCost:      dec("100"),
			Quantity:      1,
			Tier:          pricing.TierRetail,
			PromotionCode: " save5 ",
			OrderID:       "SO-1",
		})
		require.NoError(t, err)

		assert.True(t, resp.UnitPrice.Equal(dec("237.5")), resp.UnitPrice.String())
		assert.True(t, resp.DiscountAmount.Equal(dec("12.5")))
		assert.Equal(t, "SAVE5", resp.PromotionCode)
		assert.Equal(t, []string{"Promo 5%: 5% discount"}, resp.AppliedPromotions)

		redeemed := f.publisher.ofType(pricing.EventTypePromotionalCampaignRedeemed)
		require.Len(t, redeemed, 1)
		evt := redeemed[0].(*pricing.PromotionalCampaignRedeemedEvent)
		assert.Equal(t, 1, evt.UsageCount)
		assert.Equal(t, "SO-1", evt.OrderID)
		f.campaigns.AssertExpectations(t)
	})

	t.Run("unknown code is invalid", func(t *testing.T) {
		f := newQuotationFixture(t)
		f.withConfig(t, pricing.TierRetail)
		f.campaigns.On("FindByCode", mock.Anything, "NOPE").Return(nil, shared.ErrNotFound)

		_, err := f.service.CalculateProductPrice(ctx, ProductPriceRequest{
			ProductID: "P-1", BaseCost: dec("100"), Quantity: 1, Tier: pricing.TierRetail, PromotionCode: "NOPE",
		})
		assertDomainCode(t, err, pricing.CodePromotionInvalid)
		assert.Equal(t, "Promotion code NOPE is invalid, inactive, or has reached its usage limit", err.Error())
	})

	t.Run("paused campaign is invalid", func(t *testing.T) {
		f := newQuotationFixture(t)
		f.withConfig(t, pricing.TierRetail)
		campaign := newTestCampaign(t, "5", withStatus(pricing.CampaignStatusPaused))
		f.campaigns.On("FindByCode", mock.Anything, "SAVE5").Return(campaign, nil)

		_, err := f.service.CalculateProductPrice(ctx, ProductPriceRequest{
			ProductID: "P-1", BaseCost: dec("100"), Quantity: 1, Tier: pricing.TierRetail, PromotionCode: "SAVE5",
		})
		assertDomainCode(t, err, pricing.CodePromotionInvalid)
		f.campaigns.AssertNotCalled(t, "IncrementUsageIfAvailable", mock.Anything, mock.Anything)
	})

	t.Run("exhausted campaign is invalid", func(t *testing.T) {
		f := newQuotationFixture(t)
		f.withConfig(t, pricing.TierRetail)
		campaign := newTestCampaign(t, "5", withMaxUsage(3, 3))
		f.campaigns.On("FindByCode", mock.Anything, "SAVE5").Return(campaign, nil)

		_, err := f.service.CalculateProductPrice(ctx, ProductPriceRequest{
			ProductID: "P-1", BaseCost: dec("100"), Quantity: 1, Tier: pricing.TierRetail, PromotionCode: "SAVE5",
		})
		assertDomainCode(t, err, pricing.CodePromotionInvalid)
	})

	t.Run("code for another tier is not applicable", func(t *testing.T) {
		f := newQuotationFixture(t)
		f.withConfig(t, pricing.TierWholesale)
		campaign := newTestCampaign(t, "5")
		f.campaigns.On("FindByCode", mock.Anything, "SAVE5").Return(campaign, nil)

		_, err := f.service.CalculateProductPrice(ctx, ProductPriceRequest{
			ProductID: "P-1", BaseCost: dec("100"), Quantity: 1, Tier: pricing.TierWholesale, PromotionCode: "SAVE5",
		})
		assertDomainCode(t, err, pricing.CodePromotionNotApplicable)
		assert.Contains(t, err.Error(), "not applicable to this product or customer tier")
	})

	t.Run("code for another product is not applicable", func(t *testing.T) {
		f := newQuotationFixture(t)
		f.withConfig(t, pricing.TierRetail)
		campaign := newTestCampaign(t, "5")
		f.campaigns.On("FindByCode", mock.Anything, "SAVE5").Return(campaign, nil)

		_, err := f.service.CalculateProductPrice(ctx, ProductPriceRequest{
			ProductID: "P-2", BaseCost: dec("100"), Quantity: 1, Tier: pricing.TierRetail, PromotionCode: "SAVE5",
		})
		assertDomainCode(t, err, pricing.CodePromotionNotApplicable)
	})

	t.Run("discount below margin floor is rejected without redemption", func(t *testing.T) {
		f := newQuotationFixture(t)
		f.withConfig(t, pricing.TierRetail)
		campaign := newTestCampaign(t, "10")
		f.campaigns.On("FindByCode", mock.Anything, "SAVE10").Return(campaign, nil)

		_, err := f.service.CalculateProductPrice(ctx, ProductPriceRequest{
			ProductID: "P-1", BaseCost: dec("100"), Quantity: 1, Tier: pricing.TierRetail, PromotionCode: "SAVE10",
		})
		assertDomainCode(t, err, pricing.CodeMarginViolation)
		assert.ErrorIs(t, err, pricing.ErrMarginViolation)

		breaches := f.publisher.ofType(pricing.EventTypeMarginFloorBreached)
		require.Len(t, breaches, 1)
		evt := breaches[0].(*pricing.MarginFloorBreachedEvent)
		assert.Equal(t, "P-1", evt.ProductID)
		assert.Equal(t, pricing.TierRetail, evt.Tier)
		f.campaigns.AssertNotCalled(t, "IncrementUsageIfAvailable", mock.Anything, mock.Anything)
	})

	t.Run("lost redemption race reports usage limit", func(t *testing.T) {
		f := newQuotationFixture(t)
		f.withConfig(t, pricing.TierRetail)
		campaign := newTestCampaign(t, "5", withMaxUsage(1, 0))
		f.campaigns.On("FindByCode", mock.Anything, "SAVE5").Return(campaign, nil)
		f.campaigns.On("IncrementUsageIfAvailable", mock.Anything, campaign.ID).Return(0, pricing.ErrUsageLimitReached)

		_, err := f.service.CalculateProductPrice(ctx, ProductPriceRequest{
			ProductID: "P-1", BaseCost: dec("100"), Quantity: 1, Tier: pricing.TierRetail, PromotionCode: "SAVE5",
		})
		assertDomainCode(t, err, pricing.CodeUsageLimitReached)
		assert.Empty(t, f.publisher.ofType(pricing.EventTypePromotionalCampaignRedeemed))
	})

	t.Run("caller promotion alongside a code is a stacking violation", func(t *testing.T) {
		f := newQuotationFixture(t)
		f.withConfig(t, pricing.TierRetail)
		campaign := newTestCampaign(t, "5")
		f.campaigns.On("FindByCode", mock.Anything, "SAVE5").Return(campaign, nil)

		_, err := f.service.CalculateProductPrice(ctx, ProductPriceRequest{
			ProductID:     "P-1",
			BaseCost:      dec("100"),
			Quantity:      1,
			Tier:          pricing.TierRetail,
			PromotionCode: "SAVE5",
			OrderID:       "SO-7",
			Modifiers: []PriceModifierRequest{
				{Type: pricing.ModifierPercentageDiscount, Name: "Promo Loyalty", Value: dec("3")},
			},
		})
		assertDomainCode(t, err, pricing.CodeStackingViolation)

		violations := f.publisher.ofType(pricing.EventTypePricingRuleViolated)
		require.Len(t, violations, 1)
		assert.Equal(t, "SO-7", violations[0].(*pricing.PricingRuleViolatedEvent).OrderID)
		f.campaigns.AssertNotCalled(t, "IncrementUsageIfAvailable", mock.Anything, mock.Anything)
	})

	t.Run("campaign code counts as a promotion whatever its name", func(t *testing.T) {
		f := newQuotationFixture(t)
		f.withConfig(t, pricing.TierRetail)
		modifier, err := pricing.NewPercentageDiscount("Spring markdown", dec("5"), 10)
		require.NoError(t, err)
		campaign := newTestCampaign(t, "5", func(p *pricing.PromotionalCampaignParams) { p.PriceModifier = modifier })
		f.campaigns.On("FindByCode", mock.Anything, "SAVE5").Return(campaign, nil)

		_, err = f.service.CalculateProductPrice(ctx, ProductPriceRequest{
			ProductID:     "P-1",
			BaseCost:      dec("100"),
			Quantity:      1,
			Tier:          pricing.TierRetail,
			PromotionCode: "SAVE5",
			Modifiers: []PriceModifierRequest{
				{Type: pricing.ModifierPercentageDiscount, Name: "Promo Loyalty", Value: dec("3")},
			},
		})
		assertDomainCode(t, err, pricing.CodeStackingViolation)
	})

	t.Run("caller surcharge combines with a code", func(t *testing.T) {
		f := newQuotationFixture(t)
		f.withConfig(t, pricing.TierRetail)
		campaign := newTestCampaign(t, "5")
		f.campaigns.On("FindByCode", mock.Anything, "SAVE5").Return(campaign, nil)
		f.campaigns.On("IncrementUsageIfAvailable", mock.Anything, campaign.ID).Return(1, nil)

		resp, err := f.service.CalculateProductPrice(ctx, ProductPriceRequest{
			ProductID:     "P-1",
			BaseCost:      dec("100"),
			Quantity:      1,
			Tier:          pricing.TierRetail,
			PromotionCode: "SAVE5",
			Modifiers: []PriceModifierRequest{
				{Type: pricing.ModifierPercentageSurcharge, Name: "Rush handling", Value: dec("2")},
			},
		})
		require.NoError(t, err)
		assert.True(t, resp.UnitPrice.Equal(dec("242.25")), resp.UnitPrice.String())
		assert.Equal(t, []string{"Rush handling: 2% surcharge", "Promo 5%: 5% discount"}, resp.AppliedPromotions)
	})

	t.Run("invalid caller modifier is a validation error", func(t *testing.T) {
		f := newQuotationFixture(t)
		f.withConfig(t, pricing.TierRetail)

		_, err := f.service.CalculateProductPrice(ctx, ProductPriceRequest{
			ProductID: "P-1", BaseCost: dec("100"), Quantity: 1, Tier: pricing.TierRetail,
			Modifiers: []PriceModifierRequest{
				{Type: pricing.ModifierPercentageDiscount, Name: "Too much", Value: dec("150")},
			},
		})
		assertDomainCode(t, err, pricing.CodeValidation)
	})
}

func TestPriceQuotationService_PriceChanged(t *testing.T) {
	ctx := context.Background()
	previous := dec("200")

	t.Run("published once the quote is accepted", func(t *testing.T) {
		f := newQuotationFixture(t)
		f.withConfig(t, pricing.TierRetail)

		_, err := f.service.CalculateProductPrice(ctx, ProductPriceRequest{
			ProductID: "P-1", BaseCost: dec("100"), Quantity: 1, Tier: pricing.TierRetail, PreviousUnitPrice: &previous,
		})
		require.NoError(t, err)

		changed := f.publisher.ofType(pricing.EventTypePriceChanged)
		require.Len(t, changed, 1)
		evt := changed[0].(*pricing.PriceChangedEvent)
		assert.Equal(t, "P-1", evt.ProductID)
		assert.True(t, evt.OldPrice.Equal(previous))
		assert.True(t, evt.NewPrice.Equal(dec("250")))
	})

	t.Run("not published when the margin floor rejects the quote", func(t *testing.T) {
		f := newQuotationFixture(t)
		f.withConfig(t, pricing.TierRetail)
		campaign := newTestCampaign(t, "10")
		f.campaigns.On("FindByCode", mock.Anything, "SAVE10").Return(campaign, nil)

		_, err := f.service.CalculateProductPrice(ctx, ProductPriceRequest{
			ProductID: "P-1", BaseCost: dec("100"), Quantity: 1, Tier: pricing.TierRetail,
			PromotionCode: "SAVE10", PreviousUnitPrice: &previous,
		})
		assertDomainCode(t, err, pricing.CodeMarginViolation)
		assert.Empty(t, f.publisher.ofType(pricing.EventTypePriceChanged))
	})

	t.Run("not published when redemption fails", func(t *testing.T) {
		f := newQuotationFixture(t)
		f.withConfig(t, pricing.TierRetail)
		campaign := newTestCampaign(t, "5", withMaxUsage(1, 0))
		f.campaigns.On("FindByCode", mock.Anything, "SAVE5").Return(campaign, nil)
		f.campaigns.On("IncrementUsageIfAvailable", mock.Anything, campaign.ID).Return(0, pricing.ErrUsageLimitReached)

		_, err := f.service.CalculateProductPrice(ctx, ProductPriceRequest{
			ProductID: "P-1", BaseCost: dec("100"), Quantity: 1, Tier: pricing.TierRetail,
			PromotionCode: "SAVE5", PreviousUnitPrice: &previous,
		})
		assertDomainCode(t, err, pricing.CodeUsageLimitReached)
		assert.Empty(t, f.publisher.ofType(pricing.EventTypePriceChanged))
	})
}

func TestPriceQuotationService_CalculateSubscriptionPrice(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the plan fee without a margin check", func(t *testing.T) {
		f := newQuotationFixture(t)
		f.withConfig(t, pricing.TierRetail)

		resp, err := f.service.CalculateSubscriptionPrice(ctx, SubscriptionPriceRequest{
			PlanID:           "plan-premium",
			SubscriptionTier: pricing.SubscriptionPremium,
			BaseCost:         dec("200"),
			Tier:             pricing.TierRetail,
		})
		require.NoError(t, err)
		assert.Equal(t, pricing.StrategyIDTiered, resp.StrategyID)
		assert.True(t, resp.UnitPrice.Equal(dec("90")), resp.UnitPrice.String())
		assert.Equal(t, 1, resp.Quantity)
		assert.Empty(t, f.publisher.ofType(pricing.EventTypeMarginFloorBreached))
	})

	t.Run("unknown plan is rejected", func(t *testing.T) {
		f := newQuotationFixture(t)

		_, err := f.service.CalculateSubscriptionPrice(ctx, SubscriptionPriceRequest{
			PlanID: "plan-x", SubscriptionTier: "GOLD", BaseCost: dec("10"), Tier: pricing.TierRetail,
		})
		assertDomainCode(t, err, pricing.CodeValidation)
	})
}

func TestPriceQuotationService_CalculateBulkPrices(t *testing.T) {
	ctx := context.Background()
	f := newQuotationFixture(t)
	f.withConfig(t, pricing.TierRetail)
	f.configs.On("FindByTierType", mock.Anything, pricing.TierGuest).Return(nil, shared.ErrNotFound)

	results, err := f.service.CalculateBulkPrices(ctx, []ProductPriceRequest{
		{ProductID: "P-1", BaseCost: dec("100"), Quantity: 1, Tier: pricing.TierRetail},
		{ProductID: "P-2", BaseCost: dec("100"), Quantity: 1, Tier: pricing.TierGuest},
		{ProductID: "P-3", BaseCost: dec("40"), Quantity: 3, Tier: pricing.TierRetail},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	require.NotNil(t, results[0].Price)
	assert.True(t, results[0].Price.UnitPrice.Equal(dec("250")))

	assert.Nil(t, results[1].Price)
	assert.Equal(t, 1, results[1].Index)
	assert.Equal(t, pricing.CodeNotFound, results[1].ErrorCode)
	assert.Contains(t, results[1].Error, "GUEST")

	require.NotNil(t, results[2].Price)
	assert.True(t, results[2].Price.TotalPrice.Equal(dec("300")))

	_, err = f.service.CalculateBulkPrices(ctx, nil)
	assertDomainCode(t, err, pricing.CodeValidation)
}

func TestPriceQuotationService_CalculateOrderTotal(t *testing.T) {
	ctx := context.Background()
	items := []OrderLineItem{
		{ProductID: "P-1", Quantity: 2, UnitPrice: dec("100")},
		{ProductID: "P-2", Quantity: 1, UnitPrice: dec("50")},
	}

	t.Run("without promotion", func(t *testing.T) {
		f := newQuotationFixture(t)

		resp, err := f.service.CalculateOrderTotal(ctx, OrderTotalRequest{OrderID: "SO-1", Tier: pricing.TierRetail, LineItems: items})
		require.NoError(t, err)
		assert.True(t, resp.Subtotal.Equal(dec("250")))
		assert.True(t, resp.Total.Equal(dec("250")))
		assert.True(t, resp.Discount.IsZero())
		assert.Nil(t, resp.AppliedPromotion)
	})

	t.Run("applies one promotion to the subtotal", func(t *testing.T) {
		f := newQuotationFixture(t)
		campaign := newTestCampaign(t, "5")
		f.campaigns.On("FindByCode", mock.Anything, "SAVE5").Return(campaign, nil)
		f.campaigns.On("IncrementUsageIfAvailable", mock.Anything, campaign.ID).Return(4, nil)

		resp, err := f.service.CalculateOrderTotal(ctx, OrderTotalRequest{
			OrderID: "SO-2", Tier: pricing.TierRetail, LineItems: items, PromotionCodes: []string{" save5 "},
		})
		require.NoError(t, err)
		assert.True(t, resp.Discount.Equal(dec("12.5")), resp.Discount.String())
		assert.True(t, resp.Total.Equal(dec("237.5")), resp.Total.String())
		require.NotNil(t, resp.AppliedPromotion)
		assert.Equal(t, "SAVE5", resp.AppliedPromotion.Code)
		assert.Equal(t, 4, resp.AppliedPromotion.UsageCount)
		assert.Len(t, f.publisher.ofType(pricing.EventTypePromotionalCampaignRedeemed), 1)
	})

	t.Run("more than one code is a stacking violation", func(t *testing.T) {
		f := newQuotationFixture(t)

		_, err := f.service.CalculateOrderTotal(ctx, OrderTotalRequest{
			OrderID: "SO-3", Tier: pricing.TierRetail, LineItems: items, PromotionCodes: []string{"SAVE5", "SAVE10"},
		})
		assertDomainCode(t, err, pricing.CodeStackingViolation)
		assert.ErrorIs(t, err, pricing.ErrStackingViolation)
		assert.Equal(t, "Only one promotion code can be applied per order", err.Error())

		violations := f.publisher.ofType(pricing.EventTypePricingRuleViolated)
		require.Len(t, violations, 1)
		evt := violations[0].(*pricing.PricingRuleViolatedEvent)
		assert.Equal(t, "SO-3", evt.OrderID)
		assert.Equal(t, []string{"SAVE5", "SAVE10"}, evt.Context["promotion_codes"])
		f.campaigns.AssertNotCalled(t, "FindByCode", mock.Anything, mock.Anything)
	})

	for _, codes := range [][]string{
		{"save5", "SAVE5"},
		{"SAVE5", "SAVE5"},
		{"SAVE5", ""},
		{"", " "},
	} {
		t.Run(fmt.Sprintf("codes %q are a stacking violation", codes), func(t *testing.T) {
			f := newQuotationFixture(t)

			_, err := f.service.CalculateOrderTotal(ctx, OrderTotalRequest{
				OrderID: "SO-4", Tier: pricing.TierRetail, LineItems: items, PromotionCodes: codes,
			})
			assertDomainCode(t, err, pricing.CodeStackingViolation)
			assert.Len(t, f.publisher.ofType(pricing.EventTypePricingRuleViolated), 1)
			f.campaigns.AssertNotCalled(t, "FindByCode", mock.Anything, mock.Anything)
			f.campaigns.AssertNotCalled(t, "IncrementUsageIfAvailable", mock.Anything, mock.Anything)
		})
	}

	t.Run("single blank code applies no promotion", func(t *testing.T) {
		f := newQuotationFixture(t)

		resp, err := f.service.CalculateOrderTotal(ctx, OrderTotalRequest{
			OrderID: "SO-5", Tier: pricing.TierRetail, LineItems: items, PromotionCodes: []string{"  "},
		})
		require.NoError(t, err)
		assert.True(t, resp.Total.Equal(dec("250")))
		assert.Nil(t, resp.AppliedPromotion)
		f.campaigns.AssertNotCalled(t, "FindByCode", mock.Anything, mock.Anything)
	})

	t.Run("code for another tier is not applicable", func(t *testing.T) {
		f := newQuotationFixture(t)
		campaign := newTestCampaign(t, "5")
		f.campaigns.On("FindByCode", mock.Anything, "SAVE5").Return(campaign, nil)

		_, err := f.service.CalculateOrderTotal(ctx, OrderTotalRequest{
			Tier: pricing.TierImporter, LineItems: items, PromotionCodes: []string{"SAVE5"},
		})
		assertDomainCode(t, err, pricing.CodePromotionNotApplicable)
		assert.Equal(t, "Promotion code SAVE5 is not applicable to this customer tier", err.Error())
	})

	tests := []struct {
		name    string
		items   []OrderLineItem
		code    string
		message string
	}{
		{"no line items", nil, pricing.CodeValidation, "Order must contain at least one line item"},
		{"zero quantity", []OrderLineItem{{ProductID: "P-9", Quantity: 0, UnitPrice: dec("1")}}, pricing.CodeValidation, "Quantity must be positive for product P-9"},
		{"zero price", []OrderLineItem{{ProductID: "P-9", Quantity: 1, UnitPrice: dec("0")}}, pricing.CodeValidation, "Unit price must be positive for product P-9"},
		{"mixed currency", []OrderLineItem{{ProductID: "P-9", Quantity: 1, UnitPrice: dec("1"), Currency: "USD"}}, pricing.CodeCurrencyMismatch, "Currency mismatch: USD vs BBD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newQuotationFixture(t)
			_, err := f.service.CalculateOrderTotal(ctx, OrderTotalRequest{Tier: pricing.TierRetail, LineItems: tt.items})
			assertDomainCode(t, err, tt.code)
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestPriceQuotationService_PreviewPromotions(t *testing.T) {
	ctx := context.Background()

	redeemable := newTestCampaign(t, "5")
	noCode := newTestCampaign(t, "7", withCode(""))
	wholesaleOnly := newTestCampaign(t, "8", withTiers(pricing.TierWholesale))
	exhausted := newTestCampaign(t, "9", withMaxUsage(2, 2))
	byCategory := newTestCampaign(t, "6", withCategories("CAT-9"))
	active := []*pricing.PromotionalCampaign{redeemable, noCode, wholesaleOnly, exhausted, byCategory}

	t.Run("lists redeemable product promotions", func(t *testing.T) {
		f := newQuotationFixture(t)
		f.campaigns.On("FindActive", mock.Anything, testNow).Return(active, nil)

		previews, err := f.service.PreviewPromotions(ctx, "P-1", nil, pricing.TierRetail)
		require.NoError(t, err)
		require.Len(t, previews, 1)
		assert.Equal(t, "SAVE5", previews[0].Code)
		assert.Equal(t, "Promo 5%: 5% discount", previews[0].DiscountValue)
		assert.Equal(t, pricing.ModifierPercentageDiscount, previews[0].DiscountType)
		assert.True(t, previews[0].Recommended)
		f.campaigns.AssertNotCalled(t, "IncrementUsageIfAvailable", mock.Anything, mock.Anything)
	})

	t.Run("includes campaigns targeted by category only", func(t *testing.T) {
		f := newQuotationFixture(t)
		f.campaigns.On("FindActive", mock.Anything, testNow).Return(active, nil)

		previews, err := f.service.PreviewPromotions(ctx, "P-2", []string{"CAT-9"}, pricing.TierRetail)
		require.NoError(t, err)
		require.Len(t, previews, 1)
		assert.Equal(t, "SAVE6", previews[0].Code)

		previews, err = f.service.PreviewPromotions(ctx, "P-1", []string{"CAT-9"}, pricing.TierRetail)
		require.NoError(t, err)
		require.Len(t, previews, 2)
		assert.Equal(t, "SAVE5", previews[0].Code)
		assert.False(t, previews[0].Recommended)
		assert.Equal(t, "SAVE6", previews[1].Code)
		assert.True(t, previews[1].Recommended)
	})

	t.Run("repository failure is wrapped", func(t *testing.T) {
		f := newQuotationFixture(t)
		f.campaigns.On("FindActive", mock.Anything, testNow).Return(nil, errors.New("connection refused"))

		_, err := f.service.PreviewPromotions(ctx, "P-1", nil, pricing.TierRetail)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load active campaigns")
	})

	t.Run("unknown tier is a validation error", func(t *testing.T) {
		f := newQuotationFixture(t)

		_, err := f.service.PreviewPromotions(ctx, "P-1", nil, "NOBODY")
		assertDomainCode(t, err, pricing.CodeValidation)
	})
}
