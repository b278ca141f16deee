//go:build integration

package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MateoHeras77/ShiftTradeAV/config"
)

// ═══════════════════════════════════════════════════════════
// Test Setup（真实 Redis，使用 15 号库）
// ═══════════════════════════════════════════════════════════

func newTestClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	c, err := NewClient(&config.RedisConfig{Addr: addr, DB: 15}, zap.NewNop())
	if err != nil {
		t.Skipf("无法连接测试 Redis %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func uniqueKey(prefix string) string {
	return fmt.Sprintf("test:%s:%d", prefix, time.Now().UnixNano())
}

// ═══════════════════════════════════════════════════════════
// Test: 滑动窗口限流
// ═══════════════════════════════════════════════════════════

func TestCheckRateLimit_WindowSlides(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	key := uniqueKey("rate_limit:accept")
	t.Cleanup(func() { c.rdb.Del(context.Background(), key) })

	const limit = 3
	window := 500 * time.Millisecond

	for i := 0; i < limit; i++ {
		ok, err := c.CheckRateLimit(ctx, key, limit, window)
		require.NoError(t, err)
		assert.True(t, ok, "第 %d 次请求应放行", i+1)
	}
	ok, err := c.CheckRateLimit(ctx, key, limit, window)
	require.NoError(t, err)
	assert.False(t, ok, "超过上限应拒绝")

	// 窗口滑过后重新计数
	time.Sleep(window + 100*time.Millisecond)
	ok, err = c.CheckRateLimit(ctx, key, limit, window)
	require.NoError(t, err)
	assert.True(t, ok, "窗口过后应重新放行")
}

func TestCheckRateLimit_KeyExpires(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	key := uniqueKey("rate_limit:login")
	t.Cleanup(func() { c.rdb.Del(context.Background(), key) })

	_, err := c.CheckRateLimit(ctx, key, 10, time.Second)
	require.NoError(t, err)

	ttl, err := c.rdb.PTTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Second)
}

func TestCheckRateLimit_KeysAreIndependent(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	a, b := uniqueKey("rate_limit:ip-a"), uniqueKey("rate_limit:ip-b")
	t.Cleanup(func() { c.rdb.Del(context.Background(), a, b) })

	ok, err := c.CheckRateLimit(ctx, a, 1, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	ok, _ = c.CheckRateLimit(ctx, a, 1, time.Minute)
	assert.False(t, ok)

	ok, err = c.CheckRateLimit(ctx, b, 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "不同 IP 的计数互不影响")
}

// ═══════════════════════════════════════════════════════════
// Test: Token 黑名单
// ═══════════════════════════════════════════════════════════

func TestBlacklist_ExpiresWithToken(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	jti := uniqueKey("jti")

	require.NoError(t, c.BlacklistToken(ctx, jti, 300*time.Millisecond))
	listed, err := c.IsBlacklisted(ctx, jti)
	require.NoError(t, err)
	assert.True(t, listed)

	time.Sleep(400 * time.Millisecond)
	listed, err = c.IsBlacklisted(ctx, jti)
	require.NoError(t, err)
	assert.False(t, listed, "黑名单条目应随 Token 剩余有效期过期")

	// 已过期的 Token 不写入
	require.NoError(t, c.BlacklistToken(ctx, jti, 0))
	listed, _ = c.IsBlacklisted(ctx, jti)
	assert.False(t, listed)
}
