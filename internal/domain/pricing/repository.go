package pricing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SegmentPricingConfigRepository persists per-tier pricing configuration
type SegmentPricingConfigRepository interface {
	Save(ctx context.Context, config *SegmentPricingConfig) error
	FindByID(ctx context.Context, id uuid.UUID) (*SegmentPricingConfig, error)
	// FindByTierType returns the config for a tier, or shared.ErrNotFound
	FindByTierType(ctx context.Context, tier TierType) (*SegmentPricingConfig, error)
	FindAll(ctx context.Context) ([]*SegmentPricingConfig, error)
	FindAllActive(ctx context.Context) ([]*SegmentPricingConfig, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ExistsForTier(ctx context.Context, tier TierType) (bool, error)
}

// PromotionalCampaignRepository persists promotional campaigns
type PromotionalCampaignRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PromotionalCampaign, error)
	// FindByCode looks a campaign up by its normalized redemption code
	FindByCode(ctx context.Context, code string) (*PromotionalCampaign, error)
	// FindActive returns ACTIVE campaigns whose window contains now
	FindActive(ctx context.Context, now time.Time) ([]*PromotionalCampaign, error)
	FindActiveByProductID(ctx context.Context, productID string, now time.Time) ([]*PromotionalCampaign, error)
	// Save inserts or updates the campaign. Updates are rejected with
	// shared.ErrConcurrencyConflict when the stored version has moved on.
	Save(ctx context.Context, campaign *PromotionalCampaign) error
	// IncrementUsageIfAvailable atomically counts one redemption when the
	// usage cap allows it and returns the new count. It returns
	// ErrUsageLimitReached when the cap is exhausted.
	IncrementUsageIfAvailable(ctx context.Context, id uuid.UUID) (int, error)
}

// PricingStrategyRepository is the read side of the strategy registry
type PricingStrategyRepository interface {
	FindByID(id string) (PricingStrategy, error)
	FindAll() []PricingStrategy
	FindByType(strategyType StrategyType) []PricingStrategy
}
