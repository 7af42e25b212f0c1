package provider

import (
	"context"
	"errors"
	"sync"
	"time"

	"go_storereview_auth/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// TokenInfoCache は検証済みの tokeninfo レスポンスを保持します。キーはトークンのハッシュ。
type TokenInfoCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryTokenInfoCache はプロセス内のキャッシュ。Redis を使わない構成で使う。
type MemoryTokenInfoCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryTokenInfoCache() *MemoryTokenInfoCache {
	return &MemoryTokenInfoCache{entries: make(map[string]memoryEntry), now: time.Now}
}

func (c *MemoryTokenInfoCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

func (c *MemoryTokenInfoCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	// 期限切れのエントリを掃除しておく
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = memoryEntry{value: value, expiresAt: now.Add(ttl)}
	return nil
}

// RedisTokenInfoCache は複数インスタンスで共有するキャッシュ
type RedisTokenInfoCache struct {
	client redis.Cmdable
}

func NewRedisTokenInfoCache(client redis.Cmdable) *RedisTokenInfoCache {
	return &RedisTokenInfoCache{client: client}
}

// Get は Redis の障害をキャッシュミスとして扱います
func (c *RedisTokenInfoCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			middleware.GetLogger(ctx).Warn("Token info cache lookup failed", "error", err)
		}
		return nil, false
	}
	return val, true
}

func (c *RedisTokenInfoCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}
