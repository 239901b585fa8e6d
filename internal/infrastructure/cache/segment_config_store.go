package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultSegmentConfigTTL = 10 * time.Minute
	defaultCleanupInterval  = 30 * time.Second
	segmentConfigKeyPrefix  = "pricing:segment_config:"
)

// SegmentConfigStore is a TTL key/value store for segment pricing configs keyed by tier
type SegmentConfigStore interface {
	// Get returns nil, nil on a miss
	Get(ctx context.Context, tier pricing.TierType) (*pricing.SegmentPricingConfig, error)
	Set(ctx context.Context, config *pricing.SegmentPricingConfig, ttl time.Duration) error
	Delete(ctx context.Context, tier pricing.TierType) error
	InvalidateAll(ctx context.Context) error
	Close() error
}

// cachedSegmentConfig is the serialized form held by the stores
type cachedSegmentConfig struct {
	ID                uuid.UUID        `json:"id"`
	Version           int              `json:"version"`
	Tier              pricing.TierType `json:"tier"`
	BaseMarkup        decimal.Decimal  `json:"base_markup"`
	MaxDiscount       decimal.Decimal  `json:"max_discount"`
	FloorMargin       decimal.Decimal  `json:"floor_margin"`
	TargetMargin      decimal.Decimal  `json:"target_margin"`
	DefaultStrategyID string           `json:"default_strategy_id"`
	Notes             string           `json:"notes,omitempty"`
	Active            bool             `json:"active"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

func toCached(c *pricing.SegmentPricingConfig) cachedSegmentConfig {
	s := c.State()
	return cachedSegmentConfig{
		ID:                s.ID,
		Version:           s.Version,
		Tier:              s.Tier,
		BaseMarkup:        s.BaseMarkup,
		MaxDiscount:       s.MaxDiscount,
		FloorMargin:       s.FloorMargin,
		TargetMargin:      s.TargetMargin,
		DefaultStrategyID: s.DefaultStrategyID,
		Notes:             s.Notes,
		Active:            s.Active,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}

func (c cachedSegmentConfig) toDomain() (*pricing.SegmentPricingConfig, error) {
	return pricing.ReconstructSegmentPricingConfig(pricing.SegmentPricingConfigState{
		ID:                c.ID,
		Version:           c.Version,
		Tier:              c.Tier,
		BaseMarkup:        c.BaseMarkup,
		MaxDiscount:       c.MaxDiscount,
		FloorMargin:       c.FloorMargin,
		TargetMargin:      c.TargetMargin,
		DefaultStrategyID: c.DefaultStrategyID,
		Notes:             c.Notes,
		Active:            c.Active,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	})
}

// cacheEntry wraps a cached value with expiration time
type cacheEntry[T any] struct {
	value     T
	expiresAt time.Time
}

func (e *cacheEntry[T]) isExpired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// InMemorySegmentConfigStore keeps configs in process memory.
// State is not shared across instances.
type InMemorySegmentConfigStore struct {
	entries sync.Map // map[pricing.TierType]*cacheEntry[cachedSegmentConfig]
	logger  *zap.Logger
	now     func() time.Time
	stopCh  chan struct{}
	stopped int32
}

// InMemoryStoreOption configures an InMemorySegmentConfigStore
type InMemoryStoreOption func(*InMemorySegmentConfigStore)

// WithInMemoryLogger sets the store logger
func WithInMemoryLogger(logger *zap.Logger) InMemoryStoreOption {
	return func(s *InMemorySegmentConfigStore) { s.logger = logger }
}

// WithClock overrides the time source, for tests
func WithClock(now func() time.Time) InMemoryStoreOption {
	return func(s *InMemorySegmentConfigStore) { s.now = now }
}

// NewInMemorySegmentConfigStore creates the store and starts its cleanup goroutine
func NewInMemorySegmentConfigStore(opts ...InMemoryStoreOption) *InMemorySegmentConfigStore {
	s := &InMemorySegmentConfigStore{
		logger: zap.NewNop(),
		now:    time.Now,
		stopCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.cleanupExpired()
	return s
}

// Get returns the cached config or nil on a miss
func (s *InMemorySegmentConfigStore) Get(ctx context.Context, tier pricing.TierType) (*pricing.SegmentPricingConfig, error) {
	value, ok := s.entries.Load(tier)
	if !ok {
		return nil, nil
	}
	entry := value.(*cacheEntry[cachedSegmentConfig])
	if entry.isExpired(s.now()) {
		s.entries.Delete(tier)
		return nil, nil
	}
	return entry.value.toDomain()
}

// Set stores the config; a zero ttl uses the default
func (s *InMemorySegmentConfigStore) Set(ctx context.Context, config *pricing.SegmentPricingConfig, ttl time.Duration) error {
	if config == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultSegmentConfigTTL
	}
	cached := toCached(config)
	s.entries.Store(cached.Tier, &cacheEntry[cachedSegmentConfig]{
		value:     cached,
		expiresAt: s.now().Add(ttl),
	})
	return nil
}

// Delete evicts one tier
func (s *InMemorySegmentConfigStore) Delete(ctx context.Context, tier pricing.TierType) error {
	s.entries.Delete(tier)
	return nil
}

// InvalidateAll evicts every tier
func (s *InMemorySegmentConfigStore) InvalidateAll(ctx context.Context) error {
	s.entries.Range(func(key, _ any) bool {
		s.entries.Delete(key)
		return true
	})
	s.logger.Debug("Invalidated in-memory segment config cache")
	return nil
}

// Close stops the cleanup goroutine; safe to call more than once
func (s *InMemorySegmentConfigStore) Close() error {
	if atomic.CompareAndSwapInt32(&s.stopped, 0, 1) {
		close(s.stopCh)
	}
	return nil
}

func (s *InMemorySegmentConfigStore) cleanupExpired() {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			now := s.now()
			s.entries.Range(func(key, value any) bool {
				if value.(*cacheEntry[cachedSegmentConfig]).isExpired(now) {
					s.entries.Delete(key)
				}
				return true
			})
		}
	}
}

var _ SegmentConfigStore = (*InMemorySegmentConfigStore)(nil)
