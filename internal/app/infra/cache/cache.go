package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"agrichain/pkg/logger"
)

// Cache 字节缓存接口（Redis 实现见 pkg/infra/redis）
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Policy 缓存分级 TTL
type Policy struct {
	LongTTL  time.Duration // 结构性数据：APMC 目录等
	ShortTTL time.Duration // 实时数据：报价、天气
}

// DefaultPolicy 24 小时 / 15 分钟
func DefaultPolicy() Policy {
	return Policy{LongTTL: 24 * time.Hour, ShortTTL: 15 * time.Minute}
}

// LoadFunc 缓存未命中时的加载函数
type LoadFunc func(ctx context.Context) ([]byte, error)

// Loader 带防击穿的读穿缓存
// 同一 key 的并发加载只会调用一次上游
type Loader struct {
	cache Cache
	group singleflight.Group
	log   logger.Logger
}

// NewLoader 创建 Loader
func NewLoader(c Cache, log logger.Logger) *Loader {
	return &Loader{cache: c, log: log}
}

// Load 先查缓存，未命中时加载并回写
// 缓存读写失败只记录日志，不影响加载结果
func (l *Loader) Load(ctx context.Context, key string, ttl time.Duration, fn LoadFunc) ([]byte, error) {
	if val, ok, err := l.cache.Get(ctx, key); err != nil {
		l.log.Warnf(ctx, "[Cache] get %s failed: %v", key, err)
	} else if ok {
		return val, nil
	}

	v, err, shared := l.group.Do(key, func() (interface{}, error) {
		val, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		if err := l.cache.Set(ctx, key, val, ttl); err != nil {
			l.log.Warnf(ctx, "[Cache] set %s failed: %v", key, err)
		}
		return val, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		l.log.Debugf(ctx, "[Cache] %s loaded by a concurrent caller", key)
	}

	return v.([]byte), nil
}

// Memory 进程内缓存（单机部署、CLI 与测试使用）
type Memory struct {
	mu    sync.Mutex
	items map[string]memoryItem
	now   func() time.Time
}

type memoryItem struct {
	value    []byte
	expireAt time.Time
}

// NewMemory 创建进程内缓存
func NewMemory() *Memory {
	return &Memory{
		items: make(map[string]memoryItem),
		now:   time.Now,
	}
}

// Get 读取缓存，过期条目视为不存在
func (m *Memory) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[key]
	if !ok {
		return nil, false, nil
	}
	if !item.expireAt.IsZero() && !m.now().Before(item.expireAt) {
		delete(m.items, key)
		return nil, false, nil
	}
	return item.value, true, nil
}

// Set 写入缓存，ttl<=0 表示永不过期
func (m *Memory) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	item := memoryItem{value: append([]byte(nil), value...)}
	if ttl > 0 {
		item.expireAt = m.now().Add(ttl)
	}
	m.items[key] = item
	return nil
}
