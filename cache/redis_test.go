// Package cache
package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gotest.tools/assert"

	"github.com/kardiachain/circulation-backend/types"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *Redis) {
	s := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: s.Addr()})
	logger, err := zap.NewDevelopment()
	assert.NilError(t, err)
	c := newRedisWithClient(redisClient, Config{Adapter: RedisAdapter, URL: s.Addr(), Logger: logger})
	t.Cleanup(func() { _ = c.Close() })
	return s, c
}

func TestRedis_GetMissing(t *testing.T) {
	_, c := setupRedis(t)
	_, err := c.Get(context.Background(), types.KeyTotalCirculation)
	assert.Assert(t, errors.Is(err, types.ErrNotFound))
}

func TestRedis_MSetThenGet(t *testing.T) {
	s, c := setupRedis(t)
	ctx := context.Background()
	err := c.MSet(ctx, map[string]string{
		"phalaCirculation":        "10.000000000000",
		types.KeyTotalCirculation: "10.000000000000",
		types.KeyLastUpdate:       "1700000000000",
	})
	assert.NilError(t, err)

	v, err := c.Get(ctx, types.KeyTotalCirculation)
	assert.NilError(t, err)
	assert.Equal(t, v, "10.000000000000")

	raw, err := s.Get(DefaultKeyPrefix + types.KeyLastUpdate)
	assert.NilError(t, err)
	assert.Equal(t, raw, "1700000000000")
}

func TestRedis_MGetAlignsWithKeys(t *testing.T) {
	_, c := setupRedis(t)
	ctx := context.Background()
	assert.NilError(t, c.MSet(ctx, map[string]string{"a": "1", "c": "3"}))

	values, err := c.MGet(ctx, "a", "b", "c")
	assert.NilError(t, err)
	assert.Equal(t, len(values), 3)
	assert.Equal(t, *values[0], "1")
	assert.Assert(t, values[1] == nil)
	assert.Equal(t, *values[2], "3")

	values, err = c.MGet(ctx)
	assert.NilError(t, err)
	assert.Equal(t, len(values), 0)
}

func TestRedis_MSetEmpty(t *testing.T) {
	_, c := setupRedis(t)
	assert.NilError(t, c.MSet(context.Background(), nil))
}

func TestRedis_KeyPrefix(t *testing.T) {
	s := miniredis.RunT(t)
	c := newRedisWithClient(redis.NewClient(&redis.Options{Addr: s.Addr()}), Config{KeyPrefix: "pha:"})
	assert.NilError(t, c.MSet(context.Background(), map[string]string{"k": "v"}))
	raw, err := s.Get("pha:k")
	assert.NilError(t, err)
	assert.Equal(t, raw, "v")
}

func TestNew_InvalidAdapter(t *testing.T) {
	_, err := New(Config{Adapter: "memcached"})
	assert.ErrorContains(t, err, "invalid cache config")
}
