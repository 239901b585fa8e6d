package pricing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/erp/pricing/internal/domain/shared"
	"github.com/erp/pricing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) ofType(eventType string) []shared.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []shared.DomainEvent
	for _, e := range p.events {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}

func bbd(amount string) valueobject.Money {
	return valueobject.MustNewMoney(decimal.RequireFromString(amount), valueobject.BBD)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func percentDiscount(t *testing.T, name, pct string, priority int) PriceModifier {
	t.Helper()
	m, err := NewPercentageDiscount(name, dec(pct), priority)
	require.NoError(t, err)
	return m
}

func fixedDiscount(t *testing.T, name, amount string, priority int) PriceModifier {
	t.Helper()
	m, err := NewFixedDiscount(name, bbd(amount), priority)
	require.NoError(t, err)
	return m
}

func newTestRule(t *testing.T, modifier PriceModifier, tiers ...TierType) *PricingRule {
	t.Helper()
	if len(tiers) == 0 {
		tiers = []TierType{TierRetail}
	}
	applicable, err := TiersFromTypes(tiers)
	require.NoError(t, err)
	rule, err := NewPricingRule(PricingRuleParams{
		Name:            "Rule " + modifier.Name(),
		Conditions:      []RuleCondition{NewRuleCondition(ConditionMinimumQuantity, OperatorGreaterOrEqual, "1")},
		PriceModifier:   modifier,
		ApplicableTiers: applicable,
		Priority:        modifier.Priority(),
		ValidFrom:       time.Now().Add(-24 * time.Hour),
		ValidTo:         time.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)
	return rule
}

type campaignOption func(*PromotionalCampaignParams)

func withStatus(s CampaignStatus) campaignOption {
	return func(p *PromotionalCampaignParams) { p.Status = s }
}

func withUsage(current int, max *int) campaignOption {
	return func(p *PromotionalCampaignParams) {
		p.CurrentUsageCount = current
		p.MaxUsageCount = max
	}
}

func withModifier(m PriceModifier) campaignOption {
	return func(p *PromotionalCampaignParams) { p.PriceModifier = m }
}

func withCode(code string) campaignOption {
	return func(p *PromotionalCampaignParams) { p.Code = code }
}

func withWindow(start, end time.Time) campaignOption {
	return func(p *PromotionalCampaignParams) {
		p.StartDate = start
		p.EndDate = end
	}
}

func newTestCampaign(t *testing.T, opts ...campaignOption) *PromotionalCampaign {
	t.Helper()
	modifier := percentDiscount(t, "Summer Promo", "10", 1)
	params := PromotionalCampaignParams{
		TenantID:        uuid.New(),
		Name:            "Summer Sale",
		Type:            CampaignTypeSeasonal,
		StartDate:       time.Now().Add(-24 * time.Hour),
		EndDate:         time.Now().Add(7 * 24 * time.Hour),
		ApplicableTiers: []PricingTier{MustPricingTier(TierRetail), MustPricingTier(TierWholesale)},
		PriceModifier:   modifier,
		PricingRules:    []*PricingRule{newTestRule(t, modifier)},
		ProductIDs:      []string{"SKU-1"},
	}
	for _, opt := range opts {
		opt(&params)
	}
	c, err := NewPromotionalCampaign(params)
	require.NoError(t, err)
	return c
}

func intPtr(v int) *int { return &v }
