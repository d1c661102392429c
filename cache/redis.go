/*
 *  Copyright 2018 KardiaChain
 *  This file is part of the go-kardia library.
 *
 *  The go-kardia library is free software: you can redistribute it and/or modify
 *  it under the terms of the GNU Lesser General Public License as published by
 *  the Free Software Foundation, either version 3 of the License, or
 *  (at your option) any later version.
 *
 *  The go-kardia library is distributed in the hope that it will be useful,
 *  but WITHOUT ANY WARRANTY; without even the implied warranty of
 *  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 *  GNU Lesser General Public License for more details.
 *
 *  You should have received a copy of the GNU Lesser General Public License
 *  along with the go-kardia library. If not, see <http://www.gnu.org/licenses/>.
 */

// Package cache
package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/kardiachain/circulation-backend/types"
)

// DefaultKeyPrefix namespaces circulation figures inside a shared redis.
const DefaultKeyPrefix = "#circulation#"

type Redis struct {
	cfg    Config
	client *redis.Client
	prefix string

	logger *zap.Logger
}

func newRedis(cfg Config) (Client, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:        cfg.URL,
		DB:          cfg.DB,
		Password:    cfg.Password,
		DialTimeout: cfg.DialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		return nil, err
	}

	return newRedisWithClient(redisClient, cfg), nil
}

func newRedisWithClient(redisClient *redis.Client, cfg Config) *Redis {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Redis{
		cfg:    cfg,
		client: redisClient,
		prefix: prefix,
		logger: cfg.Logger.With(zap.String("cache", "redis")),
	}
}

func (c *Redis) key(k string) string {
	return c.prefix + k
}

func (c *Redis) Get(ctx context.Context, key string) (string, error) {
	result, err := c.client.Get(ctx, c.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("%w: %s", types.ErrNotFound, key)
	}
	if err != nil {
		return "", err
	}
	return result, nil
}

func (c *Redis) MGet(ctx context.Context, keys ...string) ([]*string, error) {
	values := make([]*string, len(keys))
	if len(keys) == 0 {
		return values, nil
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = c.key(k)
	}
	result, err := c.client.MGet(ctx, prefixed...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range result {
		if s, ok := v.(string); ok {
			values[i] = &s
		}
	}
	return values, nil
}

// MSet relies on MSET being atomic: readers see either every new value or
// none of them.
func (c *Redis) MSet(ctx context.Context, entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}
	pairs := make([]interface{}, 0, 2*len(entries))
	for k, v := range entries {
		pairs = append(pairs, c.key(k), v)
	}
	if err := c.client.MSet(ctx, pairs...).Err(); err != nil {
		c.logger.Warn("cannot set circulation figures", zap.Error(err))
		return err
	}
	return nil
}

func (c *Redis) Close() error {
	return c.client.Close()
}
