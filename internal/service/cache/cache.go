// Package cache 短时缓存外部查询得到的辅助标识（如适格請求書発行事業者登録番号）
package cache

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"
)

// DefaultTTL 默认有效期
const DefaultTTL = 10 * time.Minute

// Clock 时间来源，测试中替换
type Clock interface {
	Now() time.Time
}

// SystemClock 系统时间
type SystemClock struct{}

// Now 当前时间
func (SystemClock) Now() time.Time { return time.Now() }

// Backend 缓存存储
type Backend interface {
	Load(ctx context.Context, key string, now time.Time) (string, bool, error)
	Store(ctx context.Context, key, value string, now time.Time, ttl time.Duration) error
}

// LookupFunc 缓存未命中时的实际查询
type LookupFunc func(ctx context.Context) (string, error)

// IdentifierCache 带 TTL 的标识缓存；过期只会触发重新查询
type IdentifierCache struct {
	ttl     time.Duration
	clock   Clock
	backend Backend
}

// New 创建缓存；backend 为空时使用进程内存
func New(ttl time.Duration, clock Clock, backend Backend) *IdentifierCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if backend == nil {
		backend = NewMemoryBackend()
	}
	return &IdentifierCache{ttl: ttl, clock: clock, backend: backend}
}

// Get 命中且未过期时直接返回，否则调用 lookup 并写回
//
// lookup 失败不写缓存；后端故障只记录日志，按未命中处理。
func (c *IdentifierCache) Get(ctx context.Context, key string, lookup LookupFunc) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("cache: empty key")
	}
	if v, ok, err := c.backend.Load(ctx, key, c.clock.Now()); err != nil {
		log.Printf("[WARN] 读取缓存 %s 失败: %v", key, err)
	} else if ok {
		return v, nil
	}

	v, err := lookup(ctx)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", nil
	}
	if err := c.backend.Store(ctx, key, v, c.clock.Now(), c.ttl); err != nil {
		log.Printf("[WARN] 写入缓存 %s 失败: %v", key, err)
	}
	return v, nil
}

// TTL 有效期
func (c *IdentifierCache) TTL() time.Duration {
	return c.ttl
}

type entry struct {
	value   string
	expires time.Time
}

// MemoryBackend 进程内缓存：条目不可变，读取无锁
type MemoryBackend struct {
	entries sync.Map // string -> *entry
}

// NewMemoryBackend 创建内存后端
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// Load 读取未过期条目
func (m *MemoryBackend) Load(_ context.Context, key string, now time.Time) (string, bool, error) {
	v, ok := m.entries.Load(key)
	if !ok {
		return "", false, nil
	}
	e := v.(*entry)
	if !now.Before(e.expires) {
		return "", false, nil
	}
	return e.value, true, nil
}

// Store 以新条目整体替换旧条目
func (m *MemoryBackend) Store(_ context.Context, key, value string, now time.Time, ttl time.Duration) error {
	m.entries.Store(key, &entry{value: value, expires: now.Add(ttl)})
	return nil
}
