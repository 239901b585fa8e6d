package strategy

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/erp/pricing/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock pricing strategy for testing
type mockPricingStrategy struct {
	pricing.BaseStrategy
}

func newMockPricingStrategy(id string, strategyType pricing.StrategyType) *mockPricingStrategy {
	return &mockPricingStrategy{
		BaseStrategy: pricing.NewBaseStrategy(id, "Mock "+id, strategyType, "Mock pricing strategy"),
	}
}

func (s *mockPricingStrategy) Calculate(ctx context.Context, pc pricing.PricingContext) (pricing.StrategyQuote, error) {
	return pricing.StrategyQuote{}, nil
}

func TestStrategyRegistry_Register(t *testing.T) {
	r := NewStrategyRegistry()

	require.NoError(t, r.Register(newMockPricingStrategy("a", pricing.StrategyTypeMarkup)))
	err := r.Register(newMockPricingStrategy("a", pricing.StrategyTypeMarkup))
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrAlreadyExists))

	assert.True(t, r.Has("a"))
	assert.False(t, r.Has("b"))
}

func TestStrategyRegistry_GetAndDefault(t *testing.T) {
	r := NewStrategyRegistry()
	require.NoError(t, r.Register(newMockPricingStrategy("a", pricing.StrategyTypeMarkup)))
	require.NoError(t, r.Register(newMockPricingStrategy("b", pricing.StrategyTypeVolume)))

	_, err := r.Get("")
	assert.True(t, errors.Is(err, shared.ErrNotFound), "no default yet")

	_, err = r.Get("missing")
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	assert.True(t, errors.Is(r.SetDefault("missing"), shared.ErrNotFound))
	require.NoError(t, r.SetDefault("a"))
	assert.Equal(t, "a", r.GetDefault())

	s, err := r.Get("")
	require.NoError(t, err)
	assert.Equal(t, "a", s.ID())
	assert.Equal(t, "a", r.GetOrDefault("missing").ID())
	assert.Equal(t, "b", r.GetOrDefault("b").ID())

	require.NoError(t, r.Unregister("a"))
	assert.Empty(t, r.GetDefault())
	assert.True(t, errors.Is(r.Unregister("a"), shared.ErrNotFound))
}

func TestStrategyRegistry_Queries(t *testing.T) {
	r := NewStrategyRegistry()
	require.NoError(t, r.Register(newMockPricingStrategy("c", pricing.StrategyTypeVolume)))
	require.NoError(t, r.Register(newMockPricingStrategy("a", pricing.StrategyTypeMarkup)))
	require.NoError(t, r.Register(newMockPricingStrategy("b", pricing.StrategyTypeVolume)))

	assert.Equal(t, []string{"a", "b", "c"}, r.List())

	all := r.FindAll()
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].ID())

	volume := r.FindByType(pricing.StrategyTypeVolume)
	require.Len(t, volume, 2)
	assert.Equal(t, "b", volume[0].ID())
	assert.Equal(t, "c", volume[1].ID())

	_, err := r.FindByID("")
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	found, err := r.FindByID("c")
	require.NoError(t, err)
	assert.Equal(t, "c", found.ID())

	assert.Equal(t, map[pricing.StrategyType]int{pricing.StrategyTypeVolume: 2, pricing.StrategyTypeMarkup: 1}, r.Stats())
}

func TestStrategyRegistry_ConcurrentAccess(t *testing.T) {
	r := NewStrategyRegistry()
	require.NoError(t, r.Register(newMockPricingStrategy("base", pricing.StrategyTypeMarkup)))

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = r.Register(newMockPricingStrategy(string(rune('a'+i)), pricing.StrategyTypeVolume))
		}(i)
		go func() {
			defer wg.Done()
			_, _ = r.Get("base")
			_ = r.List()
		}()
	}
	wg.Wait()

	assert.Len(t, r.List(), 21)
}

func TestNewRegistryWithDefaults(t *testing.T) {
	r, err := NewRegistryWithDefaults()
	require.NoError(t, err)

	assert.Equal(t, []string{
		pricing.StrategyIDDynamic,
		pricing.StrategyIDNegotiated,
		pricing.StrategyIDTierMarkup,
		pricing.StrategyIDTiered,
		pricing.StrategyIDVolume,
	}, r.List())
	assert.Equal(t, pricing.StrategyIDTierMarkup, r.GetDefault())
}

func TestNewRegistryWithOptions(t *testing.T) {
	t.Run("custom default", func(t *testing.T) {
		r, err := NewRegistryWithOptions(Options{DefaultStrategyID: pricing.StrategyIDVolume})
		require.NoError(t, err)
		assert.Equal(t, pricing.StrategyIDVolume, r.GetDefault())
	})

	t.Run("unknown default", func(t *testing.T) {
		_, err := NewRegistryWithOptions(Options{DefaultStrategyID: "nope"})
		assert.Error(t, err)
	})

	t.Run("invalid markdown coefficients", func(t *testing.T) {
		bad := pricing.DefaultMarkdownCoefficients()
		bad.DemandWeight = bad.DemandWeight.Neg()
		_, err := NewRegistryWithOptions(Options{Markdown: bad})
		assert.Error(t, err)
	})

	t.Run("plugs into the calculation service", func(t *testing.T) {
		r, err := NewRegistryWithDefaults()
		require.NoError(t, err)
		svc := pricing.NewPriceCalculationService(r, nil)
		_, err = svc.GetStrategy(pricing.StrategyIDDynamic)
		assert.NoError(t, err)
	})
}
