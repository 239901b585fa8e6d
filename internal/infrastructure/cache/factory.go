package cache

import (
	"fmt"

	"github.com/erp/pricing/internal/infrastructure/config"
	"go.uber.org/zap"
)

// SegmentConfigStoreFactory creates segment config stores based on configuration
type SegmentConfigStoreFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*SegmentConfigStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *SegmentConfigStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory store when Redis is unavailable.
// Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *SegmentConfigStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewSegmentConfigStoreFactory creates a new factory
func NewSegmentConfigStoreFactory(cfg config.RedisConfig, opts ...FactoryOption) *SegmentConfigStoreFactory {
	f := &SegmentConfigStoreFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateRedisStore creates a Redis-backed store
func (f *SegmentConfigStoreFactory) CreateRedisStore() (SegmentConfigStore, error) {
	store, err := NewRedisSegmentConfigStore(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis segment config store: %w", err)
	}
	return store, nil
}

// CreateInMemoryStore creates a process-local store
func (f *SegmentConfigStoreFactory) CreateInMemoryStore() SegmentConfigStore {
	return NewInMemorySegmentConfigStore(WithInMemoryLogger(f.logger))
}

// CreateStore tries Redis first and falls back to memory when allowed.
// In-memory caches are per instance, so config edits made elsewhere
// become visible only after the TTL.
func (f *SegmentConfigStoreFactory) CreateStore() (SegmentConfigStore, error) {
	store, err := f.CreateRedisStore()
	if err == nil {
		f.logger.Info("using Redis segment config cache")
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for segment config cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory segment config cache",
		zap.Error(err),
	)
	return f.CreateInMemoryStore(), nil
}
