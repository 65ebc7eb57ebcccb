package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRevocationCache stores revoked-token flags with TTL. Tokens are
// keyed by digest so the raw credential never lands in Redis. The TTL
// matches the token's own expiry: once the token would be rejected as
// expired anyway, the marker has nothing left to protect.
type RedisRevocationCache struct {
	client *redis.Client
}

// NewRedisRevocationCache creates the token revocation cache adapter.
func NewRedisRevocationCache(client *redis.Client) *RedisRevocationCache {
	return &RedisRevocationCache{client: client}
}

func (s *RedisRevocationCache) RevokeToken(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, revocationKey(token), "1", ttl).Err()
}

func (s *RedisRevocationCache) IsTokenRevoked(ctx context.Context, token string) (bool, error) {
	n, err := s.client.Exists(ctx, revocationKey(token)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func revocationKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "auth:revoked:" + hex.EncodeToString(sum[:])
}
