package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKeyPrefix = "test:report:"

func newTestRedisCache(t *testing.T) (*RedisReportCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisReportCache(client, testKeyPrefix), mr
}

func TestRedisReportCache_FirstWriteWins(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, mr := newTestRedisCache(t)

	_, ok, err := c.Get(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)

	first := record("203.0.113.5", 50)
	stored, err := c.PutIfAbsent(ctx, "10.0.0.1", first)
	require.NoError(t, err)
	assert.Equal(t, first, stored)

	stored, err = c.PutIfAbsent(ctx, "10.0.0.1", record("203.0.113.5", 99))
	require.NoError(t, err)
	assert.Equal(t, first, stored)

	got, ok, err := c.Get(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, first, got)

	assert.True(t, mr.Exists(testKeyPrefix+"10.0.0.1"))
	assert.Zero(t, mr.TTL(testKeyPrefix+"10.0.0.1"))
}

func TestRedisReportCache_CorruptEntry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, mr := newTestRedisCache(t)
	require.NoError(t, mr.Set(testKeyPrefix+"10.0.0.2", "not json"))

	_, _, err := c.Get(ctx, "10.0.0.2")
	assert.Error(t, err)
}

func TestNewRedisClient(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	_ = client.Close()

	addr := mr.Addr()
	mr.Close()
	_, err = NewRedisClient(context.Background(), RedisConfig{Addr: addr})
	assert.Error(t, err)
}
