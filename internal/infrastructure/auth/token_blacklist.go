package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// defaultBlacklistPrefix is shared with the identity service, which writes the entries
const defaultBlacklistPrefix = "token:blacklist:"

// RevocationChecker reports whether a verified token was revoked before it expired
type RevocationChecker interface {
	IsRevoked(ctx context.Context, claims *Claims) (bool, error)
}

// RedisTokenBlacklist reads revocations from Redis.
// A token is revoked when its JTI is listed or when it was issued at or before
// the user's invalidation timestamp.
type RedisTokenBlacklist struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisTokenBlacklist creates a blacklist reader on an existing client
func NewRedisTokenBlacklist(client redis.UniversalClient) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{client: client, keyPrefix: defaultBlacklistPrefix}
}

func (b *RedisTokenBlacklist) jtiKey(jti string) string {
	return b.keyPrefix + "jti:" + jti
}

func (b *RedisTokenBlacklist) userKey(userID string) string {
	return b.keyPrefix + "user:" + userID
}

// IsRevoked implements RevocationChecker
func (b *RedisTokenBlacklist) IsRevoked(ctx context.Context, claims *Claims) (bool, error) {
	if claims.ID != "" {
		n, err := b.client.Exists(ctx, b.jtiKey(claims.ID)).Result()
		if err != nil {
			return false, fmt.Errorf("failed to check token blacklist: %w", err)
		}
		if n > 0 {
			return true, nil
		}
	}

	raw, err := b.client.Get(ctx, b.userKey(claims.UserID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check user token invalidation: %w", err)
	}
	invalidatedAt, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("failed to parse invalidation timestamp %q: %w", raw, err)
	}
	return claims.GetIssuedAtTime().Unix() <= invalidatedAt, nil
}

var _ RevocationChecker = (*RedisTokenBlacklist)(nil)

// InMemoryTokenBlacklist is a single-process RevocationChecker for tests and local runs
type InMemoryTokenBlacklist struct {
	mu          sync.RWMutex
	jtis        map[string]time.Time
	invalidated map[string]time.Time
	now         func() time.Time
}

// NewInMemoryTokenBlacklist creates an empty in-memory blacklist
func NewInMemoryTokenBlacklist() *InMemoryTokenBlacklist {
	return &InMemoryTokenBlacklist{
		jtis:        make(map[string]time.Time),
		invalidated: make(map[string]time.Time),
		now:         time.Now,
	}
}

// RevokeToken lists jti until ttl elapses
func (b *InMemoryTokenBlacklist) RevokeToken(jti string, ttl time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jtis[jti] = b.now().Add(ttl)
}

// RevokeUser invalidates every token the user was issued up to now
func (b *InMemoryTokenBlacklist) RevokeUser(userID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.invalidated[userID] = b.now()
}

// IsRevoked implements RevocationChecker
func (b *InMemoryTokenBlacklist) IsRevoked(_ context.Context, claims *Claims) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if expiry, ok := b.jtis[claims.ID]; ok {
		if b.now().Before(expiry) {
			return true, nil
		}
		delete(b.jtis, claims.ID)
	}
	if at, ok := b.invalidated[claims.UserID]; ok {
		return !claims.GetIssuedAtTime().After(at), nil
	}
	return false, nil
}

var _ RevocationChecker = (*InMemoryTokenBlacklist)(nil)
