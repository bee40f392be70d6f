package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"student_tracking/backend/internal/shared"
)

func TestNilLimiterAllows(t *testing.T) {
	var l *Limiter
	assert.False(t, l.Enabled())

	ok, err := l.Allow(context.Background(), "127.0.0.1:/api/auth/login")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = New(nil, 1, time.Minute).Allow(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewClientWithoutAddress(t *testing.T) {
	rdb, err := NewClient(&shared.RedisConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, rdb)
}

func TestUnreachableRedisReportsError(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	l := New(rdb, 5, time.Minute)
	require.True(t, l.Enabled())

	_, err := l.Allow(context.Background(), "k")
	assert.Error(t, err)
}

func TestSlidingWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb, err := NewClient(&shared.RedisConfig{Addr: mr.Addr()}, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, rdb)
	defer rdb.Close()

	ctx := context.Background()
	clock := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	l := New(rdb, 3, time.Minute)
	l.now = func() time.Time { return clock }

	// 1. Hits up to the limit pass
	for i := 1; i <= 3; i++ {
		clock = clock.Add(time.Second)
		ok, err := l.Allow(ctx, "10.0.0.1:/api/auth/login")
		require.NoError(t, err)
		assert.True(t, ok, "hit %d", i)
	}

	// 2. The next hit in the window is denied
	clock = clock.Add(time.Second)
	ok, err := l.Allow(ctx, "10.0.0.1:/api/auth/login")
	require.NoError(t, err)
	assert.False(t, ok)

	// 3. Other keys are counted separately
	ok, err = l.Allow(ctx, "10.0.0.2:/api/auth/login")
	require.NoError(t, err)
	assert.True(t, ok)

	// 4. Once the window has slid past the earlier hits, requests pass again
	clock = clock.Add(time.Minute + time.Second)
	ok, err = l.Allow(ctx, "10.0.0.1:/api/auth/login")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.True(t, mr.Exists(keyPrefix+"10.0.0.1:/api/auth/login"))
	assert.Equal(t, time.Minute, mr.TTL(keyPrefix+"10.0.0.1:/api/auth/login"))
}
