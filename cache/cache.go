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
	"time"

	"go.uber.org/zap"
)

type Adapter string

const (
	RedisAdapter Adapter = "redis"
	MongoAdapter Adapter = "mongo"
)

type Config struct {
	Adapter Adapter
	URL     string
	DB      int

	// Redis only
	Password  string
	KeyPrefix string

	// Mongo only
	Database   string
	Collection string

	DialTimeout time.Duration

	Logger *zap.Logger
}

// Client is the shared store between the refresh job and the API. Values
// never expire; each successful refresh cycle overwrites them.
type Client interface {
	// Get returns types.ErrNotFound when key has never been written.
	Get(ctx context.Context, key string) (string, error)
	// MGet returns one value per key, positionally. Absent keys are nil.
	MGet(ctx context.Context, keys ...string) ([]*string, error)
	// MSet writes every entry in one atomic operation.
	MSet(ctx context.Context, entries map[string]string) error

	Close() error
}

func New(cfg Config) (Client, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	switch cfg.Adapter {
	case RedisAdapter:
		return newRedis(cfg)
	case MongoAdapter:
		return newMongo(cfg)
	}
	return nil, errors.New("invalid cache config")
}
