package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, time.Minute), mr
}

func TestRedis_SetGet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	var out map[string]int64
	assert.False(t, c.Get(ctx, "experiences", &out))

	c.Set(ctx, "experiences", map[string]int64{"pending": 3})
	require.True(t, c.Get(ctx, "experiences", &out))
	assert.EqualValues(t, 3, out["pending"])
	assert.True(t, mr.Exists(keyPrefix+"experiences"))

	mr.FastForward(2 * time.Minute)
	assert.False(t, c.Get(ctx, "experiences", &out))
}

func TestRedis_Invalidate(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "audit:actions:a", 1)
	c.Set(ctx, "audit:actions:b", 2)
	c.Set(ctx, "experiences", 3)

	c.Invalidate(ctx, "audit:")
	assert.False(t, mr.Exists(keyPrefix+"audit:actions:a"))
	assert.False(t, mr.Exists(keyPrefix+"audit:actions:b"))
	assert.True(t, mr.Exists(keyPrefix+"experiences"))
}

func TestRedis_UndecodableEntry(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set(keyPrefix+"bad", "{not json"))
	var out map[string]int64
	assert.False(t, c.Get(context.Background(), "bad", &out))
}

func TestRedis_DownIsAMiss(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	c := NewRedis(client, time.Minute)
	ctx := context.Background()
	mr.Close()

	var out int
	assert.False(t, c.Get(ctx, "x", &out))
	assert.NotPanics(t, func() { c.Set(ctx, "x", 1) })
	assert.Error(t, c.Health(ctx))
}

func TestConnect(t *testing.T) {
	ctx := context.Background()
	c, client, err := Connect(ctx, "", time.Second)
	require.NoError(t, err)
	assert.Nil(t, c)
	assert.Nil(t, client)

	_, _, err = Connect(ctx, "::not a url", time.Second)
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	c, client, err = Connect(ctx, "redis://"+mr.Addr(), time.Second)
	require.NoError(t, err)
	require.NotNil(t, c)
	defer client.Close()
	assert.NoError(t, c.Health(ctx))
}

func TestNoop(t *testing.T) {
	var c StatsCache = Noop{}
	var out int
	c.Set(context.Background(), "k", 1)
	assert.False(t, c.Get(context.Background(), "k", &out))
	assert.NoError(t, c.Health(context.Background()))
}
