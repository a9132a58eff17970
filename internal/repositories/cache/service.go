// Package cache provides the redis-backed read cache. Only wallet snapshots
// are cached; every balance mutation invalidates the owning user's entry, so
// the database stays the single source of truth.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"custora/internal/models"

	"github.com/redis/go-redis/v9"
)

// CacheService wraps redis with JSON marshalling and key conventions.
type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCacheService creates a cache service with a default TTL.
func NewCacheService(client *redis.Client, defaultTTL time.Duration) *CacheService {
	return &CacheService{client: client, ttl: defaultTTL}
}

func (s *CacheService) walletKey(userID uint) string {
	return fmt.Sprintf("wallets:user:%d", userID)
}

// GetUserWallets returns the cached wallet triple, or found=false on miss.
func (s *CacheService) GetUserWallets(ctx context.Context, userID uint) ([]models.Wallet, bool, error) {
	data, err := s.client.Get(ctx, s.walletKey(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get cached wallets: %w", err)
	}
	var wallets []models.Wallet
	if err := json.Unmarshal(data, &wallets); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached wallets: %w", err)
	}
	return wallets, true, nil
}

// SetUserWallets caches the wallet triple.
func (s *CacheService) SetUserWallets(ctx context.Context, userID uint, wallets []models.Wallet) error {
	data, err := json.Marshal(wallets)
	if err != nil {
		return fmt.Errorf("failed to marshal wallets: %w", err)
	}
	return s.client.Set(ctx, s.walletKey(userID), data, s.ttl).Err()
}

// InvalidateUserWallets drops the cached triple after a mutation.
func (s *CacheService) InvalidateUserWallets(ctx context.Context, userID uint) error {
	return s.client.Del(ctx, s.walletKey(userID)).Err()
}

// Close releases the underlying redis connection.
func (s *CacheService) Close() error {
	return s.client.Close()
}
