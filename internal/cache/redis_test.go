// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupMiniRedis creates a test Redis server using miniredis.
func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, newRedisStore(client, "", zerolog.Nop())
}

func TestRedisStore_SetGet(t *testing.T) {
	mr, store := setupMiniRedis(t)

	store.Set("http://h/a", "http://cdn/a.m3u8")

	val, ok := store.Get("http://h/a")
	require.True(t, ok)
	assert.Equal(t, "http://cdn/a.m3u8", val)
	assert.Equal(t, "http://cdn/a.m3u8", mr.HGet(DefaultRedisKey, "http://h/a"))

	stats := store.Stats()
	assert.Equal(t, int64(1), stats.Sets)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, 1, stats.CurrentSize)
}

func TestRedisStore_GetMissing(t *testing.T) {
	_, store := setupMiniRedis(t)

	val, ok := store.Get("nonexistent")
	assert.False(t, ok)
	assert.Empty(t, val)
	assert.Equal(t, int64(1), store.Stats().Misses)
}

func TestRedisStore_NoExpiry(t *testing.T) {
	mr, store := setupMiniRedis(t)

	store.Set("k", "v")
	assert.Zero(t, mr.TTL(DefaultRedisKey))
}

func TestRedisStore_Unavailable(t *testing.T) {
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	store := newRedisStore(client, "", zerolog.Nop())
	mr.Close()

	store.Set("k", "v")
	_, ok := store.Get("k")
	assert.False(t, ok, "redis failure degrades to a miss")
	assert.Zero(t, store.Len())
	assert.Error(t, store.HealthCheck(context.Background()))
}

func TestNewRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)

	store, err := NewRedisStore(RedisConfig{Addr: mr.Addr(), Key: "custom"}, zerolog.Nop())
	require.NoError(t, err)
	defer store.Close()

	store.Set("k", "v")
	assert.Equal(t, "v", mr.HGet("custom", "k"))
	assert.NoError(t, store.HealthCheck(context.Background()))
}

func TestNewRedisStore_ConnectionFailure(t *testing.T) {
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisStore(RedisConfig{Addr: addr}, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis connection failed")
}

func TestTiered_OverRedis(t *testing.T) {
	mr, back := setupMiniRedis(t)
	mr.HSet(DefaultRedisKey, "http://h/a", "http://cdn/a.mp4")

	front := NewMemoryStore()
	tiered := NewTiered(front, back)

	v, ok := tiered.Get("http://h/a")
	require.True(t, ok)
	assert.Equal(t, "http://cdn/a.mp4", v)

	v, ok = front.Get("http://h/a")
	require.True(t, ok)
	assert.Equal(t, "http://cdn/a.mp4", v)
}
