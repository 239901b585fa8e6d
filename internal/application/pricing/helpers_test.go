package pricing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/erp/pricing/internal/infrastructure/strategy"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// MockSegmentPricingConfigRepository is a mock implementation of pricing.SegmentPricingConfigRepository
type MockSegmentPricingConfigRepository struct {
	mock.Mock
}

func (m *MockSegmentPricingConfigRepository) Save(ctx context.Context, config *pricing.SegmentPricingConfig) error {
	args := m.Called(ctx, config)
	return args.Error(0)
}

func (m *MockSegmentPricingConfigRepository) FindByID(ctx context.Context, id uuid.UUID) (*pricing.SegmentPricingConfig, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pricing.SegmentPricingConfig), args.Error(1)
}

func (m *MockSegmentPricingConfigRepository) FindByTierType(ctx context.Context, tier pricing.TierType) (*pricing.SegmentPricingConfig, error) {
	args := m.Called(ctx, tier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pricing.SegmentPricingConfig), args.Error(1)
}

func (m *MockSegmentPricingConfigRepository) FindAll(ctx context.Context) ([]*pricing.SegmentPricingConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*pricing.SegmentPricingConfig), args.Error(1)
}

func (m *MockSegmentPricingConfigRepository) FindAllActive(ctx context.Context) ([]*pricing.SegmentPricingConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*pricing.SegmentPricingConfig), args.Error(1)
}

func (m *MockSegmentPricingConfigRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSegmentPricingConfigRepository) ExistsForTier(ctx context.Context, tier pricing.TierType) (bool, error) {
	args := m.Called(ctx, tier)
	return args.Bool(0), args.Error(1)
}

// MockPromotionalCampaignRepository is a mock implementation of pricing.PromotionalCampaignRepository
type MockPromotionalCampaignRepository struct {
	mock.Mock
}

func (m *MockPromotionalCampaignRepository) FindByID(ctx context.Context, id uuid.UUID) (*pricing.PromotionalCampaign, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pricing.PromotionalCampaign), args.Error(1)
}

func (m *MockPromotionalCampaignRepository) FindByCode(ctx context.Context, code string) (*pricing.PromotionalCampaign, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pricing.PromotionalCampaign), args.Error(1)
}

func (m *MockPromotionalCampaignRepository) FindActive(ctx context.Context, now time.Time) ([]*pricing.PromotionalCampaign, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*pricing.PromotionalCampaign), args.Error(1)
}

func (m *MockPromotionalCampaignRepository) FindActiveByProductID(ctx context.Context, productID string, now time.Time) ([]*pricing.PromotionalCampaign, error) {
	args := m.Called(ctx, productID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*pricing.PromotionalCampaign), args.Error(1)
}

func (m *MockPromotionalCampaignRepository) Save(ctx context.Context, campaign *pricing.PromotionalCampaign) error {
	args := m.Called(ctx, campaign)
	return args.Error(0)
}

func (m *MockPromotionalCampaignRepository) IncrementUsageIfAvailable(ctx context.Context, id uuid.UUID) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
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

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type quotationFixture struct {
	configs    *MockSegmentPricingConfigRepository
	campaigns  *MockPromotionalCampaignRepository
	publisher  *recordingPublisher
	governance *pricing.PricingGovernanceService
	service    *PriceQuotationService
}

func newQuotationFixture(t *testing.T) *quotationFixture {
	t.Helper()
	registry, err := strategy.NewRegistryWithDefaults()
	require.NoError(t, err)

	publisher := &recordingPublisher{}
	guardRail := pricing.NewMarginGuardRailService(publisher)
	stacking := pricing.NewPromotionStackingService(publisher)
	governance := pricing.NewPricingGovernanceService(guardRail, stacking)
	calculator := pricing.NewPriceCalculationService(registry, publisher)

	f := &quotationFixture{
		configs:    new(MockSegmentPricingConfigRepository),
		campaigns:  new(MockPromotionalCampaignRepository),
		publisher:  publisher,
		governance: governance,
	}
	f.service = NewPriceQuotationService(f.configs, f.campaigns, calculator, guardRail, governance, publisher, zaptest.NewLogger(t)).
		WithClock(fixedClock)
	return f
}

// withConfig registers an active tier-markup config for each tier
func (f *quotationFixture) withConfig(t *testing.T, tiers ...pricing.TierType) {
	t.Helper()
	for _, tt := range tiers {
		cfg, err := pricing.NewDefaultSegmentPricingConfig(pricing.MustPricingTier(tt), pricing.StrategyIDTierMarkup)
		require.NoError(t, err)
		f.configs.On("FindByTierType", mock.Anything, tt).Return(cfg, nil)
	}
}

type campaignOption func(*pricing.PromotionalCampaignParams)

func withTiers(tiers ...pricing.TierType) campaignOption {
	return func(p *pricing.PromotionalCampaignParams) {
		p.ApplicableTiers = nil
		for _, tt := range tiers {
			p.ApplicableTiers = append(p.ApplicableTiers, pricing.MustPricingTier(tt))
		}
	}
}

func withStatus(status pricing.CampaignStatus) campaignOption {
	return func(p *pricing.PromotionalCampaignParams) { p.Status = status }
}

func withCategories(categoryIDs ...string) campaignOption {
	return func(p *pricing.PromotionalCampaignParams) {
		p.ProductIDs = nil
		p.CategoryIDs = categoryIDs
	}
}

func withCode(code string) campaignOption {
	return func(p *pricing.PromotionalCampaignParams) { p.Code = code }
}

func withMaxUsage(limit, current int) campaignOption {
	return func(p *pricing.PromotionalCampaignParams) {
		p.MaxUsageCount = &limit
		p.CurrentUsageCount = current
	}
}

func newTestCampaign(t *testing.T, percent string, opts ...campaignOption) *pricing.PromotionalCampaign {
	t.Helper()
	modifier, err := pricing.NewPercentageDiscount("Promo "+percent+"%", decimal.RequireFromString(percent), 10)
	require.NoError(t, err)
	tiers := []pricing.PricingTier{pricing.MustPricingTier(pricing.TierRetail)}
	rule, err := pricing.NewPricingRule(pricing.PricingRuleParams{
		Name:            "Always",
		Conditions:      []pricing.RuleCondition{pricing.NewRuleCondition(pricing.ConditionMinimumQuantity, pricing.OperatorGreaterOrEqual, "1")},
		PriceModifier:   modifier,
		ApplicableTiers: tiers,
		ValidFrom:       testNow.Add(-48 * time.Hour),
		ValidTo:         testNow.Add(48 * time.Hour),
	})
	require.NoError(t, err)

	params := pricing.PromotionalCampaignParams{
		TenantID:        uuid.New(),
		Name:            "Spring Sale",
		Description:     "Spring sale on selected products",
		Type:            pricing.CampaignTypeSeasonal,
		Status:          pricing.CampaignStatusActive,
		StartDate:       testNow.Add(-24 * time.Hour),
		EndDate:         testNow.Add(24 * time.Hour),
		ApplicableTiers: tiers,
		PriceModifier:   modifier,
		PricingRules:    []*pricing.PricingRule{rule},
		ProductIDs:      []string{"P-1"},
		Code:            "SAVE" + percent,
	}
	for _, opt := range opts {
		opt(&params)
	}
	c, err := pricing.NewPromotionalCampaign(params)
	require.NoError(t, err)
	c.ClearDomainEvents()
	return c
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
