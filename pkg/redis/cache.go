package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Cache provides typed caching utilities
// ⭐ SSOT: 캐시 헬퍼는 여기서만
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

// Get retrieves a cached value
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	fullKey := fmt.Sprintf("%s:cache:%s", c.prefix, key)
	data, err := c.client.rdb.Get(ctx, fullKey).Bytes()
	if err != nil {
		// Key not found is not an error
		return false, nil
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}

	return true, nil
}

// Set stores a value in cache with TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}

	fullKey := fmt.Sprintf("%s:cache:%s", c.prefix, key)
	return c.client.rdb.Set(ctx, fullKey, data, ttl).Err()
}

// Delete removes a cached value
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.client.Enabled() {
		return nil
	}

	fullKey := fmt.Sprintf("%s:cache:%s", c.prefix, key)
	return c.client.rdb.Del(ctx, fullKey).Err()
}

// Predefined TTLs
const (
	TTLSummary   = 24 * time.Hour   // 시뮬레이션 요약 (프로필/오버라이드 해시 기준)
	TTLDashboard = 10 * time.Minute // 저널 대시보드 집계
)

// SummaryKey builds the cache key for a simulation summary
// 동일 프로필+오버라이드 조합은 항상 같은 키로 매핑
func SummaryKey(profileHash string, overridesHash string) string {
	return fmt.Sprintf("sim:summary:%s:%s", profileHash, overridesHash)
}

// DashboardKey builds the cache key for journal dashboard stats
func DashboardKey(accountID string) string {
	return fmt.Sprintf("journal:dashboard:%s", accountID)
}
