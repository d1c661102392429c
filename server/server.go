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

// Package server
package server

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kardiachain/circulation-backend/aggregator"
	"github.com/kardiachain/circulation-backend/cache"
	"github.com/kardiachain/circulation-backend/metrics"
	"github.com/kardiachain/circulation-backend/source"
	"github.com/kardiachain/circulation-backend/types"
)

type Config struct {
	Chains []types.ChainConfig

	// Source is only required by the refresh job.
	Source source.Client
	Cache  cache.Client

	Metrics *metrics.Provider
	Logger  *zap.Logger
}

// Server owns both roles around the shared cache: the refresh job, which is
// the only writer, and the query side, which only reads.
type Server struct {
	chains []types.ChainConfig
	keys   []string

	aggregator  *aggregator.Aggregator
	cacheClient cache.Client

	refreshing int32
	now        func() time.Time

	metrics *metrics.Provider
	logger  *zap.Logger
}

func New(cfg Config) (*Server, error) {
	if cfg.Cache == nil {
		return nil, errors.New("missing cache client")
	}
	if len(cfg.Chains) == 0 {
		return nil, errors.New("missing chain table")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	s := &Server{
		chains:      cfg.Chains,
		keys:        types.Keys(cfg.Chains),
		cacheClient: cfg.Cache,
		now:         time.Now,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
	}
	if cfg.Source != nil {
		s.aggregator = aggregator.New(cfg.Source, cfg.Logger)
	}
	return s, nil
}

// Keys lists every figure key served by All, in chain table order.
func (s *Server) Keys() []string {
	return append([]string(nil), s.keys...)
}
