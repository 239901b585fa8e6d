package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultScanBatchSize = 100

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisSegmentConfigStore implements SegmentConfigStore using Redis so that
// every instance sees the same cached configuration.
type RedisSegmentConfigStore struct {
	client     *redis.Client
	ownsClient bool
	keyPrefix  string
	logger     *zap.Logger
}

// NewRedisSegmentConfigStore connects to Redis and verifies the connection
func NewRedisSegmentConfigStore(cfg RedisConfig, logger *zap.Logger) (*RedisSegmentConfigStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	store := NewRedisSegmentConfigStoreWithClient(client, "", logger)
	store.ownsClient = true
	return store, nil
}

// NewRedisSegmentConfigStoreWithClient wraps an existing client. The caller keeps ownership of it.
func NewRedisSegmentConfigStoreWithClient(client *redis.Client, keyPrefix string, logger *zap.Logger) *RedisSegmentConfigStore {
	if keyPrefix == "" {
		keyPrefix = segmentConfigKeyPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisSegmentConfigStore{
		client:    client,
		keyPrefix: keyPrefix,
		logger:    logger,
	}
}

func (s *RedisSegmentConfigStore) key(tier pricing.TierType) string {
	return s.keyPrefix + string(tier)
}

// Get returns the cached config or nil on a miss
func (s *RedisSegmentConfigStore) Get(ctx context.Context, tier pricing.TierType) (*pricing.SegmentPricingConfig, error) {
	data, err := s.client.Get(ctx, s.key(tier)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get segment config from cache: %w", err)
	}

	var cached cachedSegmentConfig
	if err := json.Unmarshal(data, &cached); err != nil {
		// drop the corrupt entry so the next read repopulates it
		s.logger.Warn("Discarding unreadable segment config cache entry",
			zap.String("tier", string(tier)),
			zap.Error(err))
		_ = s.client.Del(ctx, s.key(tier)).Err()
		return nil, nil
	}
	return cached.toDomain()
}

// Set stores the config with a TTL; a zero ttl uses the default
func (s *RedisSegmentConfigStore) Set(ctx context.Context, config *pricing.SegmentPricingConfig, ttl time.Duration) error {
	if config == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultSegmentConfigTTL
	}
	cached := toCached(config)
	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to marshal segment config: %w", err)
	}
	if err := s.client.Set(ctx, s.key(cached.Tier), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache segment config: %w", err)
	}
	return nil
}

// Delete evicts one tier
func (s *RedisSegmentConfigStore) Delete(ctx context.Context, tier pricing.TierType) error {
	if err := s.client.Del(ctx, s.key(tier)).Err(); err != nil {
		return fmt.Errorf("failed to delete segment config from cache: %w", err)
	}
	return nil
}

// InvalidateAll removes every key under the store prefix using SCAN
func (s *RedisSegmentConfigStore) InvalidateAll(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.keyPrefix+"*", defaultScanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("failed to scan segment config keys: %w", err)
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to delete segment config keys: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Close closes the client when the store created it
func (s *RedisSegmentConfigStore) Close() error {
	if s.ownsClient {
		return s.client.Close()
	}
	return nil
}

var _ SegmentConfigStore = (*RedisSegmentConfigStore)(nil)
