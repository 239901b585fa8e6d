package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/erp/pricing/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConfigRepo struct {
	mu        sync.Mutex
	byTier    map[pricing.TierType]*pricing.SegmentPricingConfig
	tierLoads int
	saveErr   error
}

func newFakeConfigRepo(configs ...*pricing.SegmentPricingConfig) *fakeConfigRepo {
	r := &fakeConfigRepo{byTier: make(map[pricing.TierType]*pricing.SegmentPricingConfig)}
	for _, c := range configs {
		r.byTier[c.Tier().Type()] = c
	}
	return r
}

func (r *fakeConfigRepo) Save(ctx context.Context, c *pricing.SegmentPricingConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.byTier[c.Tier().Type()] = c
	return nil
}

func (r *fakeConfigRepo) FindByID(ctx context.Context, id uuid.UUID) (*pricing.SegmentPricingConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.byTier {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeConfigRepo) FindByTierType(ctx context.Context, tier pricing.TierType) (*pricing.SegmentPricingConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tierLoads++
	c, ok := r.byTier[tier]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return c, nil
}

func (r *fakeConfigRepo) FindAll(ctx context.Context) ([]*pricing.SegmentPricingConfig, error) {
	return r.FindAllActive(ctx)
}

func (r *fakeConfigRepo) FindAllActive(ctx context.Context) ([]*pricing.SegmentPricingConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*pricing.SegmentPricingConfig, 0, len(r.byTier))
	for _, c := range r.byTier {
		out = append(out, c)
	}
	return out, nil
}

func (r *fakeConfigRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for tier, c := range r.byTier {
		if c.ID == id {
			delete(r.byTier, tier)
			return nil
		}
	}
	return shared.ErrNotFound
}

func (r *fakeConfigRepo) ExistsForTier(ctx context.Context, tier pricing.TierType) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byTier[tier]
	return ok, nil
}

func (r *fakeConfigRepo) loads() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tierLoads
}

func newConfig(t *testing.T, tier pricing.TierType) *pricing.SegmentPricingConfig {
	t.Helper()
	c, err := pricing.NewDefaultSegmentPricingConfig(pricing.MustPricingTier(tier), pricing.StrategyIDTierMarkup)
	require.NoError(t, err)
	return c
}

func TestInMemorySegmentConfigStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(d)
	}

	store := NewInMemorySegmentConfigStore(WithClock(clock))
	defer store.Close()

	retail := newConfig(t, pricing.TierRetail)

	t.Run("miss returns nil", func(t *testing.T) {
		got, err := store.Get(ctx, pricing.TierRetail)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("hit returns an equivalent config", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, retail, time.Minute))
		got, err := store.Get(ctx, pricing.TierRetail)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, retail.ID, got.ID)
		assert.True(t, retail.BaseMarkup().Value().Equal(got.BaseMarkup().Value()))
		assert.Equal(t, retail.DefaultStrategyID(), got.DefaultStrategyID())
	})

	t.Run("entries expire", func(t *testing.T) {
		advance(2 * time.Minute)
		got, err := store.Get(ctx, pricing.TierRetail)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("delete and invalidate all", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, retail, 0))
		require.NoError(t, store.Set(ctx, newConfig(t, pricing.TierImporter), 0))

		require.NoError(t, store.Delete(ctx, pricing.TierRetail))
		got, _ := store.Get(ctx, pricing.TierRetail)
		assert.Nil(t, got)

		require.NoError(t, store.InvalidateAll(ctx))
		got, _ = store.Get(ctx, pricing.TierImporter)
		assert.Nil(t, got)
	})

	t.Run("close is idempotent", func(t *testing.T) {
		assert.NoError(t, store.Close())
		assert.NoError(t, store.Close())
	})
}

func TestCachedSegmentPricingConfigRepository(t *testing.T) {
	ctx := context.Background()
	retail := newConfig(t, pricing.TierRetail)
	repo := newFakeConfigRepo(retail)
	store := NewInMemorySegmentConfigStore()
	defer store.Close()

	cached := NewCachedSegmentPricingConfigRepository(repo, store, WithTTL(time.Minute))

	t.Run("second lookup is served from cache", func(t *testing.T) {
		first, err := cached.FindByTierType(ctx, pricing.TierRetail)
		require.NoError(t, err)
		second, err := cached.FindByTierType(ctx, pricing.TierRetail)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 1, repo.loads())
		assert.Equal(t, CacheStats{Hits: 1, Misses: 1}, cached.Stats())
	})

	t.Run("not found is not cached", func(t *testing.T) {
		_, err := cached.FindByTierType(ctx, pricing.TierGuest)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		_, err = cached.FindByTierType(ctx, pricing.TierGuest)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("save evicts the tier", func(t *testing.T) {
		before := repo.loads()
		retail.UpdateNotes("holiday review")
		require.NoError(t, cached.Save(ctx, retail))

		got, err := cached.FindByTierType(ctx, pricing.TierRetail)
		require.NoError(t, err)
		assert.Equal(t, "holiday review", got.Notes())
		assert.Equal(t, before+1, repo.loads())
	})

	t.Run("failed save leaves the cache alone", func(t *testing.T) {
		repo.saveErr = errors.New("db down")
		defer func() { repo.saveErr = nil }()

		before := repo.loads()
		assert.Error(t, cached.Save(ctx, retail))
		_, err := cached.FindByTierType(ctx, pricing.TierRetail)
		require.NoError(t, err)
		assert.Equal(t, before, repo.loads())
	})

	t.Run("delete evicts the tier", func(t *testing.T) {
		require.NoError(t, cached.Delete(ctx, retail.ID))
		_, err := cached.FindByTierType(ctx, pricing.TierRetail)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestSegmentConfigStoreFactory(t *testing.T) {
	unreachable := config.RedisConfig{Host: "127.0.0.1", Port: 1}

	t.Run("falls back to memory", func(t *testing.T) {
		store, err := NewSegmentConfigStoreFactory(unreachable).CreateStore()
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemorySegmentConfigStore{}, store)
	})

	t.Run("fails when fallback is disabled", func(t *testing.T) {
		_, err := NewSegmentConfigStoreFactory(unreachable, WithInMemoryFallback(false)).CreateStore()
		assert.Error(t, err)
	})
}
