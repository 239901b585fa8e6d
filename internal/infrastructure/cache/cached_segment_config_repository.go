package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CachedSegmentPricingConfigRepository is a read-through cache in front of a
// SegmentPricingConfigRepository. Only tier lookups are cached; writes evict.
// Cache failures are logged and the call falls through to the repository.
type CachedSegmentPricingConfigRepository struct {
	next   pricing.SegmentPricingConfigRepository
	store  SegmentConfigStore
	ttl    time.Duration
	logger *zap.Logger

	hits   int64
	misses int64
}

// CachedRepositoryOption configures the cached repository
type CachedRepositoryOption func(*CachedSegmentPricingConfigRepository)

// WithTTL sets the entry lifetime
func WithTTL(ttl time.Duration) CachedRepositoryOption {
	return func(r *CachedSegmentPricingConfigRepository) { r.ttl = ttl }
}

// WithCacheLogger sets the logger
func WithCacheLogger(logger *zap.Logger) CachedRepositoryOption {
	return func(r *CachedSegmentPricingConfigRepository) { r.logger = logger }
}

// NewCachedSegmentPricingConfigRepository wraps next with store
func NewCachedSegmentPricingConfigRepository(
	next pricing.SegmentPricingConfigRepository,
	store SegmentConfigStore,
	opts ...CachedRepositoryOption,
) *CachedSegmentPricingConfigRepository {
	r := &CachedSegmentPricingConfigRepository{
		next:   next,
		store:  store,
		ttl:    defaultSegmentConfigTTL,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FindByTierType serves from cache, loading and populating on a miss
func (r *CachedSegmentPricingConfigRepository) FindByTierType(ctx context.Context, tier pricing.TierType) (*pricing.SegmentPricingConfig, error) {
	cached, err := r.store.Get(ctx, tier)
	if err != nil {
		r.logger.Warn("Segment config cache read failed", zap.String("tier", string(tier)), zap.Error(err))
	}
	if cached != nil {
		atomic.AddInt64(&r.hits, 1)
		return cached, nil
	}
	atomic.AddInt64(&r.misses, 1)

	config, err := r.next.FindByTierType(ctx, tier)
	if err != nil {
		return nil, err
	}
	if err := r.store.Set(ctx, config, r.ttl); err != nil {
		r.logger.Warn("Segment config cache write failed", zap.String("tier", string(tier)), zap.Error(err))
	}
	return config, nil
}

// Save persists the config and evicts its tier
func (r *CachedSegmentPricingConfigRepository) Save(ctx context.Context, config *pricing.SegmentPricingConfig) error {
	if err := r.next.Save(ctx, config); err != nil {
		return err
	}
	r.evict(ctx, config.Tier().Type())
	return nil
}

// Delete removes the config and evicts its tier
func (r *CachedSegmentPricingConfigRepository) Delete(ctx context.Context, id uuid.UUID) error {
	config, err := r.next.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := r.next.Delete(ctx, id); err != nil {
		return err
	}
	r.evict(ctx, config.Tier().Type())
	return nil
}

// FindByID is not cached
func (r *CachedSegmentPricingConfigRepository) FindByID(ctx context.Context, id uuid.UUID) (*pricing.SegmentPricingConfig, error) {
	return r.next.FindByID(ctx, id)
}

// FindAll is not cached
func (r *CachedSegmentPricingConfigRepository) FindAll(ctx context.Context) ([]*pricing.SegmentPricingConfig, error) {
	return r.next.FindAll(ctx)
}

// FindAllActive is not cached
func (r *CachedSegmentPricingConfigRepository) FindAllActive(ctx context.Context) ([]*pricing.SegmentPricingConfig, error) {
	return r.next.FindAllActive(ctx)
}

// ExistsForTier is not cached
func (r *CachedSegmentPricingConfigRepository) ExistsForTier(ctx context.Context, tier pricing.TierType) (bool, error) {
	return r.next.ExistsForTier(ctx, tier)
}

// Invalidate drops every cached tier
func (r *CachedSegmentPricingConfigRepository) Invalidate(ctx context.Context) error {
	return r.store.InvalidateAll(ctx)
}

// CacheStats reports hit and miss counts
type CacheStats struct {
	Hits   int64
	Misses int64
}

// Stats returns the current hit and miss counts
func (r *CachedSegmentPricingConfigRepository) Stats() CacheStats {
	return CacheStats{
		Hits:   atomic.LoadInt64(&r.hits),
		Misses: atomic.LoadInt64(&r.misses),
	}
}

func (r *CachedSegmentPricingConfigRepository) evict(ctx context.Context, tier pricing.TierType) {
	if err := r.store.Delete(ctx, tier); err != nil {
		r.logger.Warn("Segment config cache eviction failed", zap.String("tier", string(tier)), zap.Error(err))
	}
}

var _ pricing.SegmentPricingConfigRepository = (*CachedSegmentPricingConfigRepository)(nil)
