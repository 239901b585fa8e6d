package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGovernance() (*PricingGovernanceService, *MarginGuardRailService) {
	guard := NewMarginGuardRailService(nil)
	return NewPricingGovernanceService(guard, NewPromotionStackingService(nil)), guard
}

func TestPricingGovernanceService_FreezeLifecycle(t *testing.T) {
	gov, guard := newGovernance()
	retail := MustPricingTier(TierRetail)

	assert.False(t, gov.IsDynamicPricingFrozen(retail))

	err := gov.UnfreezeDynamicPricing(retail, "alice", "")
	require.Error(t, err)
	assert.Equal(t, "Dynamic pricing is not frozen for tier Retail", err.Error())

	gov.FreezeDynamicPricing(retail, "manual")
	assert.True(t, gov.IsDynamicPricingFrozen(retail))
	status, ok := gov.FreezeStatus(retail)
	require.True(t, ok)
	assert.Equal(t, "manual", status.Reason)

	gov.FreezeDynamicPricing(retail, "second")
	status, _ = gov.FreezeStatus(retail)
	assert.Equal(t, "manual", status.Reason, "existing freeze is kept")

	guard.recordViolation(TierRetail, time.Now())
	require.NoError(t, gov.UnfreezeDynamicPricing(retail, "alice", "markup corrected"))
	assert.False(t, gov.IsDynamicPricingFrozen(retail))
	assert.Equal(t, 0, guard.GetRecentViolationCount(retail, ViolationWindow, time.Now()))

	review, ok := gov.LastReview(retail)
	require.True(t, ok)
	assert.Equal(t, "alice", review.Reviewer)
	assert.Equal(t, "markup corrected", review.Notes)
	assert.False(t, review.ReviewedAt.IsZero())
}

func TestPricingGovernanceService_RunGovernanceCheck(t *testing.T) {
	gov, guard := newGovernance()
	now := time.Date(2026, 5, 20, 9, 0, 0, 0, time.UTC)

	// two consecutive weeks for wholesale, one week for importer
	guard.recordViolation(TierWholesale, now.Add(-24*time.Hour))
	guard.recordViolation(TierWholesale, now.Add(-9*24*time.Hour))
	guard.recordViolation(TierImporter, now.Add(-24*time.Hour))

	frozen := gov.RunGovernanceCheck(now)
	assert.Equal(t, []TierType{TierWholesale}, frozen)

	status, ok := gov.FreezeStatus(MustPricingTier(TierWholesale))
	require.True(t, ok)
	assert.Equal(t, FreezeReasonConsecutiveBreaches, status.Reason)
	assert.False(t, gov.IsDynamicPricingFrozen(MustPricingTier(TierImporter)))
}

func TestPricingGovernanceService_ValidateOrder(t *testing.T) {
	gov, _ := newGovernance()

	err := gov.ValidateOrder(context.Background(), "SO-1", []PriceModifier{
		percentDiscount(t, "Promo A", "5", 0),
		percentDiscount(t, "Promo B", "5", 0),
	})
	assert.True(t, errors.Is(err, ErrStackingViolation))

	assert.NoError(t, gov.ValidateOrder(context.Background(), "SO-2", []PriceModifier{percentDiscount(t, "Promo A", "5", 0)}))
}

func TestPricingGovernanceService_RecommendCampaign(t *testing.T) {
	gov, _ := newGovernance()

	voucher := newTestCampaign(t, withModifier(fixedDiscount(t, "Voucher", "50", 0)))
	five := newTestCampaign(t, withModifier(percentDiscount(t, "Five", "5", 0)))
	twelve := newTestCampaign(t, withModifier(percentDiscount(t, "Twelve", "12", 0)))

	assert.Same(t, twelve, gov.RecommendCampaign([]*PromotionalCampaign{voucher, five, twelve}))
	assert.Same(t, voucher, gov.RecommendCampaign([]*PromotionalCampaign{voucher}))
	assert.Nil(t, gov.RecommendCampaign(nil))
}
