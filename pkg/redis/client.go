package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kyuwon/riskbook/pkg/config"
)

// Connection timeouts. riskbook에서 Redis는 순수 cache-aside 용도라
// 느린 캐시 조회가 시뮬레이션 경로를 붙잡지 않도록 짧게 유지
const (
	dialTimeout = 5 * time.Second
	opTimeout   = 2 * time.Second
)

// Client wraps the Redis connection behind the cache layer.
// ⭐ SSOT: Redis 연결은 여기서만 관리 — raw client는 노출하지 않는다
type Client struct {
	rdb     *redis.Client
	enabled bool
}

// New creates a new Redis client
// Redis가 비활성화된 경우에도 동작하는 no-op 클라이언트 반환
func New(cfg *config.Config) (*Client, error) {
	if !cfg.Redis.Enabled {
		return &Client{enabled: false}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  opTimeout,
		WriteTimeout: opTimeout,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &Client{
		rdb:     rdb,
		enabled: true,
	}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

// Enabled returns whether Redis is enabled
func (c *Client) Enabled() bool {
	return c.enabled
}
