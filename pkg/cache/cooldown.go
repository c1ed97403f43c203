package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ==================== 冷却接口 ====================

// CheckResult 检查结果
type CheckResult struct {
	Allowed    bool          // 是否允许
	RetryAfter time.Duration // 剩余冷却时间
}

// Cooldown 按 key 的冷却控制
type Cooldown interface {
	// Acquire 不在冷却期内时开始一次新的冷却并放行
	Acquire(ctx context.Context, key string, interval time.Duration) (CheckResult, error)
	// Reset 提前结束冷却
	Reset(ctx context.Context, key string) error
}

// ==================== 内存实现 ====================

// MemoryCooldown 进程内冷却，单实例部署使用
type MemoryCooldown struct {
	locks sync.Map // key -> *lockEntry
	now   func() time.Time
}

// lockEntry 锁条目
type lockEntry struct {
	lastTime time.Time
	mu       sync.Mutex
}

// NewMemoryCooldown 创建内存冷却
func NewMemoryCooldown() *MemoryCooldown {
	return &MemoryCooldown{now: time.Now}
}

func (m *MemoryCooldown) Acquire(_ context.Context, key string, interval time.Duration) (CheckResult, error) {
	actual, _ := m.locks.LoadOrStore(key, &lockEntry{})
	entry := actual.(*lockEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := m.now()
	if !entry.lastTime.IsZero() {
		if elapsed := now.Sub(entry.lastTime); elapsed < interval {
			return CheckResult{Allowed: false, RetryAfter: interval - elapsed}, nil
		}
	}

	// 更新最后执行时间
	entry.lastTime = now
	return CheckResult{Allowed: true}, nil
}

func (m *MemoryCooldown) Reset(_ context.Context, key string) error {
	m.locks.Delete(key)
	return nil
}

// ==================== Redis 实现 ====================

// RedisCooldown 基于 SET NX PX，多实例共享冷却状态
type RedisCooldown struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisCooldown 创建 Redis 冷却，prefix 为空时使用 "cooldown:"
func NewRedisCooldown(client redis.UniversalClient, prefix string) *RedisCooldown {
	if prefix == "" {
		prefix = "cooldown:"
	}
	return &RedisCooldown{client: client, prefix: prefix}
}

func (r *RedisCooldown) Acquire(ctx context.Context, key string, interval time.Duration) (CheckResult, error) {
	k := r.prefix + key

	ok, err := r.client.SetNX(ctx, k, "1", interval).Result()
	if err != nil {
		return CheckResult{}, fmt.Errorf("redis setnx failure: %w", err)
	}
	if ok {
		return CheckResult{Allowed: true}, nil
	}

	ttl, err := r.client.PTTL(ctx, k).Result()
	if err != nil {
		return CheckResult{}, fmt.Errorf("redis pttl failure: %w", err)
	}
	if ttl < 0 {
		// key 刚过期或没有 TTL，按剩余 0 处理
		ttl = 0
	}
	return CheckResult{Allowed: false, RetryAfter: ttl}, nil
}

func (r *RedisCooldown) Reset(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del failure: %w", err)
	}
	return nil
}

// NewRedisClient 创建客户端并 Ping 校验连通性
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failure: %w", err)
	}
	return rdb, nil
}
