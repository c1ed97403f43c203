package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==================== 内存实现 ====================

func TestMemoryCooldown_Acquire(t *testing.T) {
	c := NewMemoryCooldown()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	res, err := c.Acquire(ctx, "page:1", time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	now = now.Add(20 * time.Second)
	res, err = c.Acquire(ctx, "page:1", time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 40*time.Second, res.RetryAfter)

	res, _ = c.Acquire(ctx, "page:2", time.Minute)
	assert.True(t, res.Allowed, "不同 key 互不影响")

	now = now.Add(40 * time.Second)
	res, _ = c.Acquire(ctx, "page:1", time.Minute)
	assert.True(t, res.Allowed, "冷却结束后放行")
}

func TestMemoryCooldown_Reset(t *testing.T) {
	c := NewMemoryCooldown()
	ctx := context.Background()

	res, _ := c.Acquire(ctx, "k", time.Hour)
	require.True(t, res.Allowed)
	res, _ = c.Acquire(ctx, "k", time.Hour)
	require.False(t, res.Allowed)

	require.NoError(t, c.Reset(ctx, "k"))
	res, _ = c.Acquire(ctx, "k", time.Hour)
	assert.True(t, res.Allowed)
}

func TestMemoryCooldown_Concurrent(t *testing.T) {
	c := NewMemoryCooldown()
	var allowed int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if res, _ := c.Acquire(context.Background(), "same", time.Hour); res.Allowed {
				atomic.AddInt32(&allowed, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), allowed, "并发下只放行一次")
}

// ==================== Redis 实现 ====================

func TestRedisCooldown_Acquire(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewRedisCooldown(db, "")
	ctx := context.TODO()

	// 首次放行
	mock.ExpectSetNX("cooldown:page:1", "1", 30*time.Second).SetVal(true)
	res, err := c.Acquire(ctx, "page:1", 30*time.Second)
	assert.NoError(t, err)
	assert.True(t, res.Allowed)

	// 冷却中
	mock.ExpectSetNX("cooldown:page:1", "1", 30*time.Second).SetVal(false)
	mock.ExpectPTTL("cooldown:page:1").SetVal(12 * time.Second)
	res, err = c.Acquire(ctx, "page:1", 30*time.Second)
	assert.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 12*time.Second, res.RetryAfter)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestRedisCooldown_Errors(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewRedisCooldown(db, "cd:")
	ctx := context.TODO()

	mock.ExpectSetNX("cd:k", "1", time.Second).SetErr(errors.New("redis error"))
	_, err := c.Acquire(ctx, "k", time.Second)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis setnx failure")

	mock.ExpectSetNX("cd:k", "1", time.Second).SetVal(false)
	mock.ExpectPTTL("cd:k").SetErr(errors.New("redis error"))
	_, err = c.Acquire(ctx, "k", time.Second)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis pttl failure")

	mock.ExpectDel("cd:k").SetErr(errors.New("redis error"))
	err = c.Reset(ctx, "k")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis del failure")

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestRedisCooldown_Reset(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewRedisCooldown(db, "")

	mock.ExpectDel("cooldown:k").SetVal(1)
	assert.NoError(t, c.Reset(context.TODO(), "k"))

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}
